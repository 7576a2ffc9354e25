// Package store persists the bibliography as a YAML file of tagged
// entry records. The file is the source of truth; rendered BibTeX is
// derived output.
package store

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joachimneu/regenbib/internal/entry"
)

// Store is the ordered list of bibliography entries.
type Store struct {
	Entries []entry.Entry
}

type storeFile struct {
	Entries []record `yaml:"entries"`
}

// record wraps one entry for persistence. On disk every record carries
// a kind tag naming its variant, followed by the variant's own fields.
type record struct {
	e entry.Entry
}

type rawRecord struct {
	Kind      string `yaml:"kind"`
	entry.Raw `yaml:",inline"`
}

type dblpRecord struct {
	Kind       string `yaml:"kind"`
	entry.DBLP `yaml:",inline"`
}

type arxivRecord struct {
	Kind        string `yaml:"kind"`
	entry.Arxiv `yaml:",inline"`
}

type eprintRecord struct {
	Kind         string `yaml:"kind"`
	entry.Eprint `yaml:",inline"`
}

func (r record) MarshalYAML() (interface{}, error) {
	switch e := r.e.(type) {
	case *entry.Raw:
		return rawRecord{Kind: entry.SourceRaw, Raw: *e}, nil
	case *entry.DBLP:
		return dblpRecord{Kind: entry.SourceDBLP, DBLP: *e}, nil
	case *entry.Arxiv:
		return arxivRecord{Kind: entry.SourceArxiv, Arxiv: *e}, nil
	case *entry.Eprint:
		return eprintRecord{Kind: entry.SourceEprint, Eprint: *e}, nil
	}
	return nil, fmt.Errorf("unknown entry type %T", r.e)
}

func (r *record) UnmarshalYAML(value *yaml.Node) error {
	var probe struct {
		Kind string `yaml:"kind"`
	}
	if err := value.Decode(&probe); err != nil {
		return err
	}

	switch probe.Kind {
	case entry.SourceRaw:
		var rec rawRecord
		if err := value.Decode(&rec); err != nil {
			return err
		}
		r.e = &rec.Raw
	case entry.SourceDBLP:
		var rec dblpRecord
		if err := value.Decode(&rec); err != nil {
			return err
		}
		r.e = &rec.DBLP
	case entry.SourceArxiv:
		var rec arxivRecord
		if err := value.Decode(&rec); err != nil {
			return err
		}
		r.e = &rec.Arxiv
	case entry.SourceEprint:
		var rec eprintRecord
		if err := value.Decode(&rec); err != nil {
			return err
		}
		r.e = &rec.Eprint
	case "":
		return fmt.Errorf("entry record at line %d is missing a kind tag", value.Line)
	default:
		return fmt.Errorf("unknown entry kind %q at line %d", probe.Kind, value.Line)
	}
	return nil
}

// Load reads the store file at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	s := &Store{}
	for _, r := range f.Entries {
		s.Entries = append(s.Entries, r.e)
	}
	return s, nil
}

// LoadOrEmpty reads the store file at path, treating a missing file as
// an empty store.
func LoadOrEmpty(path string) (*Store, error) {
	s, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{}, nil
		}
		return nil, err
	}
	return s, nil
}

// Dump writes the store to path. Output is deterministic: entries in
// store order, fields in declaration order, two-space indentation.
func (s *Store) Dump(path string) error {
	f := storeFile{Entries: make([]record, len(s.Entries))}
	for i, e := range s.Entries {
		f.Entries[i] = record{e: e}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("serializing store: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("serializing store: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// BibtexIDs returns the citation keys of all entries, in store order.
func (s *Store) BibtexIDs() []string {
	ids := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		ids[i] = e.Key()
	}
	return ids
}

// Contains reports whether some entry is cited under key.
func (s *Store) Contains(key string) bool {
	for _, e := range s.Entries {
		if e.Key() == key {
			return true
		}
	}
	return false
}

// Append adds an entry at the end of the store.
func (s *Store) Append(e entry.Entry) {
	s.Entries = append(s.Entries, e)
}
