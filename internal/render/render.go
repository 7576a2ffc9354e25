// Package render resolves store entries into a BibTeX database, either
// one record per citation key or grouped by content identity.
package render

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/entry"
	"github.com/joachimneu/regenbib/internal/store"
)

// groupKeyLen is the number of fingerprint hex chars in a synthesized
// group key.
const groupKeyLen = 12

// Fingerprint hashes a content identity to a stable hex string.
func Fingerprint(contentID string) string {
	sum := blake2b.Sum256([]byte(contentID))
	return hex.EncodeToString(sum[:])
}

// Pipeline renders a store into a BibTeX database.
type Pipeline struct {
	Sources entry.Sources
	Hook    Hook

	// Group merges entries with identical content into one record
	// carrying every contributing citation key as an alias. Grouped
	// output needs the extended writer; callers enforce that.
	Group bool

	// Progress, when set, is called before each entry is rendered.
	Progress func(e entry.Entry)
}

// Run renders every entry in store order. Any failure aborts the whole
// run: a bibliography pointing at the wrong paper is worse than no
// bibliography at all.
func (p *Pipeline) Run(ctx context.Context, s *store.Store) (*bibtex.Database, error) {
	if p.Group {
		return p.runGrouped(ctx, s)
	}
	return p.runFlat(ctx, s)
}

func (p *Pipeline) runFlat(ctx context.Context, s *store.Store) (*bibtex.Database, error) {
	db := bibtex.NewDatabase()
	for _, e := range s.Entries {
		_, rec, err := p.renderOne(ctx, e)
		if err != nil {
			return nil, err
		}
		// Colliding citation keys overwrite, latest entry wins.
		db.Set(rec)
	}
	return db, nil
}

func (p *Pipeline) runGrouped(ctx context.Context, s *store.Store) (*bibtex.Database, error) {
	type group struct {
		rec  *bibtex.Entry
		ids  []string
		seen map[string]bool
	}

	groups := make(map[string]*group)
	var order []string

	for _, e := range s.Entries {
		e, rec, err := p.renderOne(ctx, e)
		if err != nil {
			return nil, err
		}

		fp := Fingerprint(e.ContentID())
		g, ok := groups[fp]
		if !ok {
			g = &group{rec: rec, seen: make(map[string]bool)}
			groups[fp] = g
			order = append(order, fp)
		}
		if key := e.Key(); !g.seen[key] {
			g.seen[key] = true
			g.ids = append(g.ids, key)
		}
	}

	db := bibtex.NewDatabase()
	for _, fp := range order {
		g := groups[fp]
		g.rec.Key = uniqueKey(db, "g"+fp[:groupKeyLen])
		g.rec.IDs = g.ids
		db.Set(g.rec)
	}
	return db, nil
}

func (p *Pipeline) renderOne(ctx context.Context, e entry.Entry) (entry.Entry, *bibtex.Entry, error) {
	if p.Progress != nil {
		p.Progress(e)
	}
	rec, err := e.Render(ctx, p.Sources)
	if err != nil {
		return nil, nil, fmt.Errorf("rendering %s: %w", e.Key(), err)
	}
	if p.Hook != nil {
		e, rec = p.Hook(e, rec)
	}
	return e, rec, nil
}

// uniqueKey returns base if free, else base-2, base-3, and so on.
func uniqueKey(db *bibtex.Database, base string) string {
	if _, ok := db.Get(base); !ok {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, ok := db.Get(candidate); !ok {
			return candidate
		}
	}
}
