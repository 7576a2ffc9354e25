package entry

import (
	"fmt"
	"strings"
)

// KeyCode selects one of the three orthogonal sort orders an entry
// exposes.
type KeyCode byte

const (
	// KeySource orders by variant tag.
	KeySource KeyCode = 'S'
	// KeyID orders by citation key.
	KeyID KeyCode = 'B'
	// KeyContent orders by content identity.
	KeyContent KeyCode = 'C'
)

// ParseKeyCodes parses an order string such as "SB" into key codes.
func ParseKeyCodes(s string) ([]KeyCode, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty sort order", ErrValidation)
	}
	var codes []KeyCode
	for _, r := range strings.ToUpper(s) {
		switch KeyCode(r) {
		case KeySource, KeyID, KeyContent:
			codes = append(codes, KeyCode(r))
		default:
			return nil, fmt.Errorf("%w: unknown sort key %q, want a combination of S, B, C", ErrValidation, string(r))
		}
	}
	return codes, nil
}

// SortKey returns the entry's key under a single order code.
func SortKey(e Entry, code KeyCode) string {
	switch code {
	case KeySource:
		return e.Source()
	case KeyID:
		return e.Key()
	case KeyContent:
		return e.ContentID()
	}
	return ""
}

// CompositeKey returns the entry's composite sort key tuple for the
// given codes, in code order. Tuples compare lexicographically.
func CompositeKey(e Entry, codes []KeyCode) []string {
	keys := make([]string, len(codes))
	for i, c := range codes {
		keys[i] = SortKey(e, c)
	}
	return keys
}

// LessComposite compares two composite key tuples lexicographically.
func LessComposite(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
