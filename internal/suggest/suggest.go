package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/entry"
)

// defaultMaxSuggestions caps how many candidates the model is asked for.
const defaultMaxSuggestions = 5

// Completer produces a chat completion for a request.
type Completer interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// Engine turns bibliographic context into ranked entry suggestions.
type Engine struct {
	LLM Completer

	// MaxSuggestions overrides the default candidate cap.
	MaxSuggestions int
}

// Hints carries manually entered bibliographic details, used when no
// current record exists for the target key.
type Hints struct {
	Title   string
	Authors string
	Year    string
	Venue   string
}

// Suggestion is one entry candidate proposed by the model.
type Suggestion struct {
	Title        string
	Authors      string
	Year         string
	Venue        string
	Kind         string
	DBLPKey      string
	ArxivID      string
	ArxivVersion string
	EprintID     string
	RawBibtex    string
	Reasoning    string
	Priority     int
}

// String renders the suggestion the way a selection menu displays it.
func (s Suggestion) String() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(s.Kind), s.Title)
}

// ToEntry converts the suggestion into a store entry cited under key.
func (s Suggestion) ToEntry(key string) (entry.Entry, error) {
	switch s.Kind {
	case entry.SourceDBLP:
		if s.DBLPKey == "" {
			return nil, fmt.Errorf("%w: suggestion misses a dblp key", entry.ErrValidation)
		}
		return &entry.DBLP{ID: key, DBLPID: s.DBLPKey}, nil
	case entry.SourceArxiv:
		if s.ArxivID == "" {
			return nil, fmt.Errorf("%w: suggestion misses an arxiv id", entry.ErrValidation)
		}
		return &entry.Arxiv{ID: key, ArxivID: s.ArxivID, Version: s.ArxivVersion}, nil
	case entry.SourceEprint:
		if s.EprintID == "" {
			return nil, fmt.Errorf("%w: suggestion misses an eprint id", entry.ErrValidation)
		}
		return &entry.Eprint{ID: key, EprintID: s.EprintID}, nil
	case entry.SourceRaw:
		if strings.TrimSpace(s.RawBibtex) == "" {
			return nil, fmt.Errorf("%w: suggestion misses the raw record", entry.ErrValidation)
		}
		text := strings.ReplaceAll(s.RawBibtex, "\r\n", "\n")
		return &entry.Raw{ID: key, Lines: strings.Split(text, "\n")}, nil
	}
	return nil, fmt.Errorf("%w: unknown suggestion kind %q", entry.ErrValidation, s.Kind)
}

const systemPrompt = `You are a bibliographic assistant helping to find the most appropriate bibliographic entries for academic references.

Your task is to analyze the given bibliographic information and propose up to %d pertinent entries the user may want to add to their bibliography.

PRIORITIZATION RULES:
1. For any preprint, check whether the work has been officially published since the preprint's release. If so, prefer the officially published version (via DBLP) over the preprint.
2. If there is no officially published version of a preprint yet, prefer IACR ePrint or arXiv entries directly rather than DBLP entries that reference those preprint services.
3. Only resort to raw BibTeX entries if none of the specific entry kinds (DBLP, arXiv, IACR ePrint) can represent the reference.`

const responseFormatPrompt = `Provide your suggestions in the following JSON format:

{
  "suggestions": [
    {
      "title": "Paper title",
      "authors": "Author1, Author2",
      "year": "2023",
      "venue": "Conference/Journal name",
      "entry_type": "dblp|arxiv|eprint|raw",
      "entry_data": {
        "dblp_key": "for dblp entries",
        "arxiv_id": "2301.12345 for arxiv entries",
        "version": "v1 for arxiv entries, may be empty",
        "eprint_id": "2023/123 for eprint entries",
        "bibtex": "raw BibTeX record for raw entries"
      },
      "reasoning": "Why this entry was selected",
      "priority": 1
    }
  ]
}

Rank entries by priority (1=highest) according to the prioritization rules. Return ONLY the JSON object, no other text.`

// Suggest asks the model for entry candidates for the target citation
// key. The context block is built from the current record when one
// exists, otherwise from the hints.
func (e *Engine) Suggest(ctx context.Context, target string, old *bibtex.Entry, hints Hints) ([]Suggestion, error) {
	req := ChatRequest{
		Messages: []Message{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, e.maxSuggestions())},
			{Role: "user", Content: "Please find the most appropriate bibliographic entries for:\n\n" +
				contextBlock(target, old, hints) + "\n\n" + responseFormatPrompt},
		},
		MaxTokens:      2000,
		Temperature:    0.1,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	text, err := e.LLM.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(text)
}

func (e *Engine) maxSuggestions() int {
	if e.MaxSuggestions > 0 {
		return e.MaxSuggestions
	}
	return defaultMaxSuggestions
}

// contextBlock summarizes what is already known about the target key.
func contextBlock(target string, old *bibtex.Entry, hints Hints) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BibTeX ID: %s\n", target)

	if old != nil {
		if t := old.Fields["title"]; t != "" {
			fmt.Fprintf(&b, "Current Title: %s\n", t)
		}
		if authors := old.Authors(); len(authors) > 0 {
			fmt.Fprintf(&b, "Current Authors: %s\n", strings.Join(authors, ", "))
		}
		if y := old.Fields["year"]; y != "" {
			fmt.Fprintf(&b, "Current Year: %s\n", y)
		}
		if v := old.Fields["booktitle"]; v != "" {
			fmt.Fprintf(&b, "Current Venue: %s\n", v)
		}
		if j := old.Fields["journal"]; j != "" {
			fmt.Fprintf(&b, "Current Journal: %s\n", j)
		}
		fmt.Fprintf(&b, "\nCurrent BibTeX entry:\n%s", bibtex.Format(old))
		return b.String()
	}

	if hints.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", hints.Title)
	}
	if hints.Authors != "" {
		fmt.Fprintf(&b, "Authors: %s\n", hints.Authors)
	}
	if hints.Year != "" {
		fmt.Fprintf(&b, "Year: %s\n", hints.Year)
	}
	if hints.Venue != "" {
		fmt.Fprintf(&b, "Venue: %s\n", hints.Venue)
	}
	return b.String()
}

// Wire shapes for the model's JSON response.
type suggestionWire struct {
	Title     string        `json:"title"`
	Authors   string        `json:"authors"`
	Year      yearString    `json:"year"`
	Venue     string        `json:"venue"`
	Kind      string        `json:"entry_type"`
	EntryData entryDataWire `json:"entry_data"`
	Reasoning string        `json:"reasoning"`
	Priority  int           `json:"priority"`
}

type entryDataWire struct {
	DBLPKey  string `json:"dblp_key"`
	ArxivID  string `json:"arxiv_id"`
	Version  string `json:"version"`
	EprintID string `json:"eprint_id"`
	Bibtex   string `json:"bibtex"`
}

// yearString tolerates models emitting years as bare numbers.
type yearString string

func (y *yearString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = yearString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*y = yearString(n.String())
		return nil
	}
	return fmt.Errorf("unexpected year value %s", string(data))
}

// parseSuggestions decodes the model response, tolerating a markdown
// code fence around the JSON object.
func parseSuggestions(response string) ([]Suggestion, error) {
	text := strings.TrimSpace(response)
	if strings.HasPrefix(text, "```") {
		text = extractFromCodeBlock(text)
	}

	var wire struct {
		Suggestions []suggestionWire `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(wire.Suggestions))
	for _, w := range wire.Suggestions {
		priority := w.Priority
		if priority == 0 {
			priority = defaultMaxSuggestions
		}
		suggestions = append(suggestions, Suggestion{
			Title:        w.Title,
			Authors:      w.Authors,
			Year:         string(w.Year),
			Venue:        w.Venue,
			Kind:         w.Kind,
			DBLPKey:      w.EntryData.DBLPKey,
			ArxivID:      w.EntryData.ArxivID,
			ArxivVersion: strings.TrimPrefix(strings.ToLower(w.EntryData.Version), "v"),
			EprintID:     w.EntryData.EprintID,
			RawBibtex:    w.EntryData.Bibtex,
			Reasoning:    w.Reasoning,
			Priority:     priority,
		})
	}
	return suggestions, nil
}

// extractFromCodeBlock extracts content from a markdown code block.
func extractFromCodeBlock(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	start := 1
	end := len(lines)
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		end = len(lines) - 1
	}
	return strings.Join(lines[start:end], "\n")
}
