// Package importer drives the interactive session that grows the store
// to cover every citation key a document uses.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/dblp"
	"github.com/joachimneu/regenbib/internal/entry"
	"github.com/joachimneu/regenbib/internal/pdfid"
	"github.com/joachimneu/regenbib/internal/prompt"
	"github.com/joachimneu/regenbib/internal/store"
)

// ErrAborted signals that the user backed out of a strategy. The
// session reacts by offering the method menu again.
var ErrAborted = errors.New("aborted")

// defaultSearchLimit caps search candidate menus.
const defaultSearchLimit = 5

// Method is one import strategy offered on the session menu.
type Method struct {
	Name string
	Run  func(ctx context.Context) (entry.Entry, error)
}

// DBLPSearcher finds publication candidates for a free-text query.
type DBLPSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]dblp.Publication, error)
}

// Session imports missing citation keys into the store, one prompt at
// a time.
type Session struct {
	Store     *store.Store
	StorePath string

	// Bib is the current rendered bibliography, used to offer records
	// that exist in the .bib file but not yet in the store.
	Bib *bibtex.Database

	Prompter prompt.Prompter
	DBLP     DBLPSearcher

	// Sniff extracts archive ids from a PDF. When unset the pdf-sniff
	// strategy is not offered.
	Sniff func(path string) (pdfid.Identifiers, error)

	// Out receives session output; defaults to stdout.
	Out io.Writer

	SearchLimit int
}

// Run walks ids in order and imports every key the store does not
// already track. The store file is rewritten after each key so an
// interrupted session keeps its progress.
func (s *Session) Run(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if s.Store.Contains(id) {
			continue
		}
		s.printf("Importing entry: %s\n", id)

		old := s.lookupOld(id)
		if old == nil {
			s.printf("-> Not found in .bib file!\n")
		} else {
			s.printf("-> Current entry:\n%s", bibtex.Format(old))
		}

		e, err := s.attempt(ctx, s.methodsFor(id, old))
		if err != nil {
			return err
		}
		if e != nil {
			s.Store.Append(e)
		}
		if err := s.Store.Dump(s.StorePath); err != nil {
			return fmt.Errorf("saving store: %w", err)
		}
	}
	return nil
}

// lookupOld finds the current record for id in the .bib database. A
// record matched through its biblatex ids aliases is copied onto id
// with the aliases dropped.
func (s *Session) lookupOld(id string) *bibtex.Entry {
	if s.Bib == nil {
		return nil
	}
	rec, ok := s.Bib.Lookup(id)
	if !ok {
		return nil
	}
	return rec
}

// attempt offers the method menu until a strategy produces an entry or
// the user skips the key.
func (s *Session) attempt(ctx context.Context, methods []Method) (entry.Entry, error) {
	label := menuLabel(methods)
	for {
		choice, err := s.Prompter.Number(label, 0, len(methods))
		if err != nil {
			return nil, err
		}
		if choice == 0 {
			return nil, nil
		}

		e, err := methods[choice-1].Run(ctx)
		if err != nil {
			if errors.Is(err, ErrAborted) {
				continue
			}
			s.printf("-> Import failed: %v\n", err)
			continue
		}
		return e, nil
	}
}

func (s *Session) methodsFor(key string, old *bibtex.Entry) []Method {
	methods := []Method{
		{Name: "dblp-free-search", Run: func(ctx context.Context) (entry.Entry, error) {
			return s.dblpFreeSearch(ctx, key)
		}},
		{Name: "arxiv-manual-id", Run: func(ctx context.Context) (entry.Entry, error) {
			return s.arxivManualID(key)
		}},
		{Name: "eprint-manual-id", Run: func(ctx context.Context) (entry.Entry, error) {
			return s.eprintManualID(key)
		}},
	}
	if s.Sniff != nil {
		methods = append(methods, Method{Name: "pdf-sniff", Run: func(ctx context.Context) (entry.Entry, error) {
			return s.pdfSniff(key)
		}})
	}
	if old != nil {
		methods = append(methods,
			Method{Name: "current-entry", Run: func(ctx context.Context) (entry.Entry, error) {
				return entry.NewRawFromRecord(key, old), nil
			}},
			Method{Name: "dblp-search-title", Run: func(ctx context.Context) (entry.Entry, error) {
				return s.dblpSearchTitle(ctx, key, old)
			}},
			Method{Name: "dblp-search-authorstitle", Run: func(ctx context.Context) (entry.Entry, error) {
				return s.dblpSearchAuthorsTitle(ctx, key, old)
			}},
		)
	}
	return methods
}

func menuLabel(methods []Method) string {
	parts := make([]string, 0, len(methods)+1)
	parts = append(parts, "0=skip")
	for i, m := range methods {
		parts = append(parts, fmt.Sprintf("%d=%s", i+1, m.Name))
	}
	return "-> Import method? (" + strings.Join(parts, ", ") + ")"
}

func (s *Session) searchLimit() int {
	if s.SearchLimit > 0 {
		return s.SearchLimit
	}
	return defaultSearchLimit
}

func (s *Session) printf(format string, args ...any) {
	w := s.Out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, format, args...)
}
