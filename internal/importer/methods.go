package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/entry"
)

// errNoMatches reports a search that came back empty.
var errNoMatches = errors.New("no matches")

// dblpFreeSearch prompts for a query until a publication is picked.
// The candidate menu loops back to the query prompt; an empty query
// ends the method.
func (s *Session) dblpFreeSearch(ctx context.Context, key string) (entry.Entry, error) {
	for {
		query, err := s.Prompter.Text("---> DBLP query [<empty>=abort]")
		if err != nil {
			return nil, err
		}
		if query == "" {
			return nil, ErrAborted
		}

		e, err := s.selectDBLP(ctx, key, query)
		switch {
		case errors.Is(err, errNoMatches):
			s.printf("---> No entry found, retry!\n")
		case errors.Is(err, ErrAborted):
			s.printf("---> Aborted, retry!\n")
		case err != nil:
			return nil, err
		default:
			return e, nil
		}
	}
}

func (s *Session) dblpSearchTitle(ctx context.Context, key string, old *bibtex.Entry) (entry.Entry, error) {
	return s.searchOnce(ctx, key, old.Fields["title"])
}

func (s *Session) dblpSearchAuthorsTitle(ctx context.Context, key string, old *bibtex.Entry) (entry.Entry, error) {
	authors := strings.Join(strings.Split(old.Fields["author"], " and "), ", ")
	query := strings.TrimSpace(authors + " " + old.Fields["title"])
	return s.searchOnce(ctx, key, query)
}

// searchOnce runs a single derived-query search. No matches, or an
// abort at the candidate menu, send the user back to the method menu.
func (s *Session) searchOnce(ctx context.Context, key, query string) (entry.Entry, error) {
	e, err := s.selectDBLP(ctx, key, query)
	if errors.Is(err, errNoMatches) {
		return nil, ErrAborted
	}
	return e, err
}

// selectDBLP searches dblp and lets the user pick one candidate.
func (s *Session) selectDBLP(ctx context.Context, key, query string) (entry.Entry, error) {
	pubs, err := s.DBLP.Search(ctx, query, s.searchLimit())
	if err != nil {
		return nil, err
	}
	if len(pubs) == 0 {
		return nil, errNoMatches
	}

	s.printf("-----> The search returned %d matches:\n", len(pubs))
	for i, pub := range pubs {
		s.printf("-----> (%d)\t%s\n", i+1, pub.String())
	}

	choice, err := s.Prompter.Number("-----> Intended publication? [0=abort]", 0, len(pubs))
	if err != nil {
		return nil, err
	}
	if choice == 0 {
		return nil, ErrAborted
	}
	return &entry.DBLP{ID: key, DBLPID: pubs[choice-1].Key}, nil
}

func (s *Session) arxivManualID(key string) (entry.Entry, error) {
	for {
		input, err := s.Prompter.Text("---> arXiv ID [<empty>=abort]")
		if err != nil {
			return nil, err
		}
		if input == "" {
			return nil, ErrAborted
		}

		e, err := entry.NewArxivFromManual(key, input)
		if err != nil {
			s.printf("---> %v, retry!\n", err)
			continue
		}
		return e, nil
	}
}

func (s *Session) eprintManualID(key string) (entry.Entry, error) {
	for {
		input, err := s.Prompter.Text("---> IACR ePrint ID [<empty>=abort]")
		if err != nil {
			return nil, err
		}
		if input == "" {
			return nil, ErrAborted
		}

		e, err := entry.NewEprintFromManual(key, input)
		if err != nil {
			s.printf("---> %v, retry!\n", err)
			continue
		}
		return e, nil
	}
}

// pdfSniff prompts for a PDF path and builds an entry from the archive
// ids stamped in the document.
func (s *Session) pdfSniff(key string) (entry.Entry, error) {
	for {
		path, err := s.Prompter.Text("---> PDF file [<empty>=abort]")
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, ErrAborted
		}

		ids, err := s.Sniff(path)
		if err != nil {
			s.printf("---> %v, retry!\n", err)
			continue
		}
		switch {
		case ids.ArxivID != "":
			s.printf("---> Found arXiv:%s\n", ids.ArxivID)
			return entry.NewArxivFromManual(key, ids.ArxivID)
		case ids.EprintID != "":
			s.printf("---> Found ePrint %s\n", ids.EprintID)
			return &entry.Eprint{ID: key, EprintID: ids.EprintID}, nil
		case ids.DOI != "":
			s.printf("---> Found only DOI %s, retry!\n", ids.DOI)
		default:
			s.printf("---> No identifiers found, retry!\n")
		}
	}
}
