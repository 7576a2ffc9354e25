package bibtex

import (
	"strings"
	"testing"
)

func TestFormat_FieldOrder(t *testing.T) {
	e := NewEntry("inproceedings", "miller2016")
	e.Fields["year"] = "2016"
	e.Fields["zzz"] = "last"
	e.Fields["aaa"] = "first of the rest"
	e.Fields["title"] = "The Honey Badger of {BFT} Protocols"
	e.Fields["author"] = "Andrew Miller and Yu Xia"

	got := Format(e)

	if !strings.HasPrefix(got, "@inproceedings{miller2016,\n") {
		t.Errorf("unexpected head:\n%s", got)
	}

	// Preferred fields first, then the remainder alphabetically.
	order := []string{"author =", "title =", "year =", "aaa =", "zzz ="}
	pos := -1
	for _, marker := range order {
		idx := strings.Index(got, marker)
		if idx < 0 {
			t.Fatalf("missing %q in:\n%s", marker, got)
		}
		if idx < pos {
			t.Errorf("field %q out of order in:\n%s", marker, got)
		}
		pos = idx
	}

	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("entry should end with }\\n, got:\n%s", got)
	}
}

func TestFormat_Deterministic(t *testing.T) {
	e := NewEntry("article", "k")
	e.Fields["title"] = "T"
	e.Fields["beta"] = "b"
	e.Fields["alpha"] = "a"

	first := Format(e)
	for i := 0; i < 10; i++ {
		if got := Format(e); got != first {
			t.Fatalf("output changed between runs:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestFormatExtended_IncludesIDs(t *testing.T) {
	e := NewEntry("inproceedings", "g1a2b3c4")
	e.IDs = []string{"miller2016", "honeybadger"}
	e.Fields["year"] = "2016"

	got := FormatExtended(e)
	if !strings.Contains(got, "  ids = {miller2016,honeybadger},\n") {
		t.Errorf("extended format should carry ids, got:\n%s", got)
	}

	if strings.Contains(Format(e), "ids =") {
		t.Error("classic format must drop ids")
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	e := NewEntry("inproceedings", "DBLP:conf/ccs/MillerXCSS16")
	e.Fields["author"] = "Andrew Miller and Yu Xia"
	e.Fields["title"] = "The Honey Badger of {BFT} Protocols"
	e.Fields["booktitle"] = "{CCS}"
	e.Fields["year"] = "2016"
	e.IDs = []string{"honeybadger"}

	back, err := ParseOne(FormatExtended(e))
	if err != nil {
		t.Fatalf("reparse error: %v", err)
	}
	if back.Type != e.Type || back.Key != e.Key {
		t.Errorf("type/key changed: %s %s", back.Type, back.Key)
	}
	for name, want := range e.Fields {
		if got := back.Fields[name]; got != want {
			t.Errorf("field %s = %q, want %q", name, got, want)
		}
	}
	if len(back.IDs) != 1 || back.IDs[0] != "honeybadger" {
		t.Errorf("ids lost in round trip: %v", back.IDs)
	}
}

func TestFormatAll_SeparatesEntries(t *testing.T) {
	db := NewDatabase()
	a := NewEntry("misc", "a")
	a.Fields["year"] = "1"
	b := NewEntry("misc", "b")
	b.Fields["year"] = "2"
	db.Set(a)
	db.Set(b)

	got := FormatAll(db)
	want := "@misc{a,\n  year = {1},\n}\n\n@misc{b,\n  year = {2},\n}\n"
	if got != want {
		t.Errorf("FormatAll = %q, want %q", got, want)
	}
}

func TestFormatAll_Empty(t *testing.T) {
	if got := FormatAll(NewDatabase()); got != "" {
		t.Errorf("empty database should format to empty string, got %q", got)
	}
}
