package bibtex

import (
	"fmt"
	"sort"
	"strings"
)

// preferredFields lists the field order used when rendering an entry.
// Fields not listed here follow alphabetically.
var preferredFields = []string{
	"author", "editor", "title", "booktitle", "journal", "series",
	"volume", "number", "pages", "publisher", "address", "howpublished",
	"year", "month", "note", "url", "doi",
}

// Format renders the entry as classic BibTeX. The biblatex ids list is
// dropped because classic BibTeX has no alias field.
func Format(e *Entry) string {
	return formatEntry(e, false)
}

// FormatExtended renders the entry as biblatex, including the ids alias
// list when present.
func FormatExtended(e *Entry) string {
	return formatEntry(e, true)
}

// FormatAll renders every entry of the database as classic BibTeX,
// separated by blank lines.
func FormatAll(db *Database) string {
	return formatDatabase(db, Format)
}

// FormatAllExtended renders every entry of the database as biblatex.
func FormatAllExtended(db *Database) string {
	return formatDatabase(db, FormatExtended)
}

func formatDatabase(db *Database, format func(*Entry) string) string {
	var entries []string
	for _, e := range db.Entries() {
		entries = append(entries, format(e))
	}
	return strings.Join(entries, "\n")
}

func formatEntry(e *Entry, withIDs bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", e.Type, e.Key))
	if withIDs && len(e.IDs) > 0 {
		b.WriteString(fmt.Sprintf("  ids = {%s},\n", strings.Join(e.IDs, ",")))
	}
	for _, name := range fieldOrder(e.Fields) {
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, e.Fields[name]))
	}
	b.WriteString("}\n")
	return b.String()
}

func fieldOrder(fields map[string]string) []string {
	order := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, name := range preferredFields {
		if _, ok := fields[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
