package arxiv

import "time"

// Paper is the metadata the archive publishes for one preprint version.
type Paper struct {
	// ID is the abstract page URL, e.g. http://arxiv.org/abs/2301.12345v2.
	ID string
	// ShortID is the versioned short id, e.g. 2301.12345v2. Old-style
	// ids keep their category prefix, e.g. cond-mat/0207270v1.
	ShortID         string
	Title           string
	Authors         []string
	Summary         string
	PrimaryCategory string
	Published       time.Time
}

// Atom feed shapes for the query API.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Primary   atomCategory `xml:"http://arxiv.org/schemas/atom primary_category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}
