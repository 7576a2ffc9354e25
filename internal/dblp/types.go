package dblp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Publication is one hit returned by the publication search API.
type Publication struct {
	// Key is the dblp record key, e.g. conf/ccs/MillerXCSS16.
	Key     string
	Title   string
	Authors []string
	Venue   string
	Volume  string
	Year    string
	Type    string
	DOI     string
	// EE is the electronic edition URL.
	EE  string
	URL string
}

// String renders the hit the way a selection menu displays it.
func (p Publication) String() string {
	var b strings.Builder
	if len(p.Authors) > 0 {
		b.WriteString(strings.Join(p.Authors, ", "))
		b.WriteString(": ")
	}
	b.WriteString(p.Title)
	if !strings.HasSuffix(p.Title, ".") {
		b.WriteString(".")
	}
	if p.Venue != "" {
		b.WriteString(" ")
		b.WriteString(p.Venue)
	}
	if p.Volume != "" {
		b.WriteString(" ")
		b.WriteString(p.Volume)
	}
	if p.Year != "" {
		b.WriteString(" (")
		b.WriteString(p.Year)
		b.WriteString(")")
	}
	return b.String()
}

// Search API response shapes. The index collapses single-element lists
// to bare objects and mixes strings with numbers, hence the flexible
// decoders below.
type searchResponse struct {
	Result struct {
		Hits struct {
			Hit []searchHit `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type searchHit struct {
	Info hitInfo `json:"info"`
}

type hitInfo struct {
	Authors authorList `json:"authors"`
	Title   string     `json:"title"`
	Venue   flexString `json:"venue"`
	Volume  flexString `json:"volume"`
	Year    flexString `json:"year"`
	Type    string     `json:"type"`
	Key     string     `json:"key"`
	DOI     string     `json:"doi"`
	EE      string     `json:"ee"`
	URL     string     `json:"url"`
}

func (h hitInfo) publication() Publication {
	return Publication{
		Key:     h.Key,
		Title:   h.Title,
		Authors: h.Authors.Names,
		Venue:   string(h.Venue),
		Volume:  string(h.Volume),
		Year:    string(h.Year),
		Type:    h.Type,
		DOI:     h.DOI,
		EE:      h.EE,
		URL:     h.URL,
	}
}

type authorList struct {
	Names []string
}

func (a *authorList) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper.Author) == 0 {
		return nil
	}

	var many []authorName
	if err := json.Unmarshal(wrapper.Author, &many); err == nil {
		for _, n := range many {
			a.Names = append(a.Names, n.Text)
		}
		return nil
	}

	var one authorName
	if err := json.Unmarshal(wrapper.Author, &one); err != nil {
		return fmt.Errorf("author list: %w", err)
	}
	a.Names = append(a.Names, one.Text)
	return nil
}

type authorName struct {
	Text string `json:"text"`
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = flexString(strings.Join(list, ", "))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	return fmt.Errorf("unexpected value %s", string(data))
}
