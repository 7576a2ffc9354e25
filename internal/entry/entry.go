// Package entry defines the bibliography entry variants tracked by the
// store. Each variant knows how to resolve itself to a citation record
// and exposes stable identity keys used for sorting and deduplication.
package entry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joachimneu/regenbib/internal/arxiv"
	"github.com/joachimneu/regenbib/internal/bibtex"
)

var (
	// ErrValidation marks malformed manual input. Callers re-prompt
	// instead of failing the session.
	ErrValidation = errors.New("invalid input")
	// ErrFetch marks a failed source lookup during render.
	ErrFetch = errors.New("fetch failed")
	// ErrParse marks fetched or stored text that did not yield exactly
	// one citation record.
	ErrParse = errors.New("parse failed")
)

// Variant tags, also used as the kind discriminator in the persisted
// store file.
const (
	SourceRaw    = "raw"
	SourceDBLP   = "dblp"
	SourceArxiv  = "arxiv"
	SourceEprint = "eprint"
)

// DBLPSource fetches a BibTeX record from the publication index.
type DBLPSource interface {
	BibtexByKey(ctx context.Context, key string) (string, error)
}

// ArxivSource fetches preprint metadata by versioned id.
type ArxivSource interface {
	PaperByID(ctx context.Context, id string) (*arxiv.Paper, error)
}

// EprintSource fetches the BibTeX block published for an archive id.
type EprintSource interface {
	BibtexByID(ctx context.Context, id string) (string, error)
}

// Sources bundles the external lookups Render may need. Variants use
// only the source matching their kind.
type Sources struct {
	DBLP   DBLPSource
	Arxiv  ArxivSource
	Eprint EprintSource
}

// Entry is one bibliography record tracked by the store.
type Entry interface {
	// Key returns the citation key the document cites this entry by.
	Key() string
	// SetKey reassigns the citation key. The import session uses this
	// to move a fetched candidate onto the key being imported;
	// everything else treats entries as immutable.
	SetKey(key string)
	// Source returns the variant tag.
	Source() string
	// ContentID returns the deterministic content identity, prefixed
	// with the variant tag. It never performs a lookup.
	ContentID() string
	// Render resolves the entry to a citation record keyed by Key,
	// fetching from its source as needed.
	Render(ctx context.Context, src Sources) (*bibtex.Entry, error)
}

// Raw is a frozen literal BibTeX record, stored line by line.
type Raw struct {
	ID    string   `yaml:"bibtexid"`
	Lines []string `yaml:"rawbibtex"`
}

// NewRawFromRecord freezes a citation record into a raw entry cited
// under key.
func NewRawFromRecord(key string, rec *bibtex.Entry) *Raw {
	text := strings.TrimRight(bibtex.Format(rec), "\n")
	return &Raw{ID: key, Lines: strings.Split(text, "\n")}
}

func (e *Raw) Key() string     { return e.ID }
func (e *Raw) SetKey(k string) { e.ID = k }
func (e *Raw) Source() string  { return SourceRaw }

func (e *Raw) ContentID() string {
	sum := sha256.Sum256([]byte(strings.Join(e.Lines, "\n")))
	return SourceRaw + ":" + hex.EncodeToString(sum[:])
}

func (e *Raw) Render(ctx context.Context, src Sources) (*bibtex.Entry, error) {
	rec, err := bibtex.ParseOne(strings.Join(e.Lines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	rec.Key = e.ID
	return rec, nil
}

func (e *Raw) String() string {
	return fmt.Sprintf("%s (raw)", e.ID)
}

// DBLP is an entry resolved through the publication index by record key.
type DBLP struct {
	ID     string `yaml:"bibtexid"`
	DBLPID string `yaml:"dblpid"`
}

func (e *DBLP) Key() string     { return e.ID }
func (e *DBLP) SetKey(k string) { e.ID = k }
func (e *DBLP) Source() string  { return SourceDBLP }

func (e *DBLP) ContentID() string {
	return SourceDBLP + ":" + e.DBLPID
}

func (e *DBLP) Render(ctx context.Context, src Sources) (*bibtex.Entry, error) {
	text, err := src.DBLP.BibtexByKey(ctx, e.DBLPID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	rec, err := bibtex.ParseOne(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	rec.Key = e.ID
	return rec, nil
}

func (e *DBLP) String() string {
	return fmt.Sprintf("%s (dblp %s)", e.ID, e.DBLPID)
}

// Arxiv is an entry resolved through the preprint archive. Version may
// be empty, meaning the archive's current version.
type Arxiv struct {
	ID      string `yaml:"bibtexid"`
	ArxivID string `yaml:"arxivid"`
	Version string `yaml:"version"`
}

// NewArxivFromManual builds an arxiv entry from manually entered text
// such as "2301.12345v2". The id must be bare: qualified forms like
// "arXiv:2301.12345" fail validation.
func NewArxivFromManual(key, input string) (*Arxiv, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if strings.Contains(input, "arxiv") {
		return nil, fmt.Errorf("%w: arxiv id %q must be bare, without an arXiv prefix", ErrValidation, input)
	}
	id, version, _ := strings.Cut(input, "v")
	if id == "" {
		return nil, fmt.Errorf("%w: empty arxiv id", ErrValidation)
	}
	return &Arxiv{ID: key, ArxivID: id, Version: version}, nil
}

func (e *Arxiv) Key() string     { return e.ID }
func (e *Arxiv) SetKey(k string) { e.ID = k }
func (e *Arxiv) Source() string  { return SourceArxiv }

func (e *Arxiv) ContentID() string {
	return fmt.Sprintf("%s:%sv%s", SourceArxiv, e.ArxivID, e.Version)
}

// queryID is the id sent to the archive: the version suffix is attached
// only when a version is pinned.
func (e *Arxiv) queryID() string {
	if e.Version != "" {
		return e.ArxivID + "v" + e.Version
	}
	return e.ArxivID
}

func (e *Arxiv) Render(ctx context.Context, src Sources) (*bibtex.Entry, error) {
	paper, err := src.Arxiv.PaperByID(ctx, e.queryID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	authors := make([]string, len(paper.Authors))
	for i, a := range paper.Authors {
		authors[i] = bibtex.Escape(a)
	}

	rec := bibtex.NewEntry("misc", e.ID)
	rec.Fields["author"] = strings.Join(authors, " and ")
	rec.Fields["title"] = bibtex.Escape(paper.Title)
	rec.Fields["howpublished"] = fmt.Sprintf("arXiv:%s [%s]", paper.ShortID, paper.PrimaryCategory)
	rec.Fields["url"] = paper.ID
	rec.Fields["year"] = strconv.Itoa(paper.Published.Year())
	rec.Fields["archiveprefix"] = "arXiv"
	rec.Fields["eprint"] = paper.ShortID
	rec.Fields["primaryclass"] = paper.PrimaryCategory
	return rec, nil
}

func (e *Arxiv) String() string {
	return fmt.Sprintf("%s (arxiv %s)", e.ID, e.queryID())
}

// Eprint is an entry resolved through the cryptology preprint archive
// by its year/number id.
type Eprint struct {
	ID       string `yaml:"bibtexid"`
	EprintID string `yaml:"eprintid"`
}

// NewEprintFromManual builds an eprint entry from manually entered text
// such as "2023/123". The id must be bare and carry the year/number
// separator.
func NewEprintFromManual(key, input string) (*Eprint, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if strings.Contains(input, "eprint") || strings.Contains(input, "iacr") {
		return nil, fmt.Errorf("%w: eprint id %q must be bare, without an archive prefix", ErrValidation, input)
	}
	if input == "" {
		return nil, fmt.Errorf("%w: empty eprint id", ErrValidation)
	}
	if !strings.Contains(input, "/") {
		return nil, fmt.Errorf("%w: eprint id %q must look like year/number", ErrValidation, input)
	}
	return &Eprint{ID: key, EprintID: input}, nil
}

func (e *Eprint) Key() string     { return e.ID }
func (e *Eprint) SetKey(k string) { e.ID = k }
func (e *Eprint) Source() string  { return SourceEprint }

func (e *Eprint) ContentID() string {
	return SourceEprint + ":" + e.EprintID
}

func (e *Eprint) Render(ctx context.Context, src Sources) (*bibtex.Entry, error) {
	text, err := src.Eprint.BibtexByID(ctx, e.EprintID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	rec, err := bibtex.ParseOne(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	rec.Key = e.ID
	return rec, nil
}

func (e *Eprint) String() string {
	return fmt.Sprintf("%s (eprint %s)", e.ID, e.EprintID)
}
