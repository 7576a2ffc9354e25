// Package bibtex parses and renders BibTeX citation records.
package bibtex

import "strings"

// Entry is a single citation record.
//
// Fields holds every field keyed by lowercase name, with the field value
// stored verbatim minus the outer delimiters. IDs carries the biblatex
// `ids` field, a list of alternate citation keys pointing at the same
// record; classic BibTeX has no such field and Format drops it.
type Entry struct {
	Type   string
	Key    string
	Fields map[string]string
	IDs    []string
}

// NewEntry returns an empty record of the given type and citation key.
func NewEntry(entryType, key string) *Entry {
	return &Entry{Type: entryType, Key: key, Fields: make(map[string]string)}
}

// Authors splits the author field on top-level " and " separators.
func (e *Entry) Authors() []string {
	raw, ok := e.Fields["author"]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	return SplitAuthors(raw)
}

// HasAlias reports whether key appears in the record's ids list.
func (e *Entry) HasAlias(key string) bool {
	for _, id := range e.IDs {
		if id == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (e *Entry) Clone() *Entry {
	c := &Entry{Type: e.Type, Key: e.Key, Fields: make(map[string]string, len(e.Fields))}
	for k, v := range e.Fields {
		c.Fields[k] = v
	}
	c.IDs = append([]string(nil), e.IDs...)
	return c
}

// SplitAuthors splits an author field on " and " separators that sit
// outside braces, so protected names like {Bell Labs and Friends} stay
// intact.
func SplitAuthors(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && strings.HasPrefix(s[i:], " and ") {
			parts = append(parts, s[start:i])
			i += 4
			start = i + 1
		}
	}
	parts = append(parts, s[start:])

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Escape escapes LaTeX special characters in plain text. Use it on text
// that did not originate from a BibTeX source, such as API metadata.
func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}

// Database is an ordered collection of entries keyed by citation key.
type Database struct {
	order   []string
	entries map[string]*Entry
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{entries: make(map[string]*Entry)}
}

// Set inserts or replaces the entry stored under e.Key. Replacing an
// existing key keeps its original position.
func (db *Database) Set(e *Entry) {
	if _, ok := db.entries[e.Key]; !ok {
		db.order = append(db.order, e.Key)
	}
	db.entries[e.Key] = e
}

// Get returns the entry stored under key.
func (db *Database) Get(key string) (*Entry, bool) {
	e, ok := db.entries[key]
	return e, ok
}

// GetByAlias returns the entry that lists key among its biblatex alias
// ids. Keys stored directly take precedence over aliases.
func (db *Database) GetByAlias(key string) (*Entry, bool) {
	if e, ok := db.entries[key]; ok {
		return e, true
	}
	for _, k := range db.order {
		if e := db.entries[k]; e.HasAlias(key) {
			return e, true
		}
	}
	return nil, false
}

// Lookup resolves key to the record a document citing key would get: a
// direct hit returns the stored entry, an alias hit returns a copy
// rekeyed to key with the alias list dropped.
func (db *Database) Lookup(key string) (*Entry, bool) {
	if e, ok := db.entries[key]; ok {
		return e, true
	}
	e, ok := db.GetByAlias(key)
	if !ok {
		return nil, false
	}
	clone := e.Clone()
	clone.Key = key
	clone.IDs = nil
	return clone, true
}

// Keys returns the citation keys in insertion order.
func (db *Database) Keys() []string {
	keys := make([]string, len(db.order))
	copy(keys, db.order)
	return keys
}

// Entries returns the entries in insertion order.
func (db *Database) Entries() []*Entry {
	entries := make([]*Entry, 0, len(db.order))
	for _, k := range db.order {
		entries = append(entries, db.entries[k])
	}
	return entries
}

// Len returns the number of entries.
func (db *Database) Len() int {
	return len(db.order)
}
