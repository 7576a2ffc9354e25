package render

import (
	"testing"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/entry"
)

func TestDefaultHook_AbbreviatesSeries(t *testing.T) {
	rec := bibtex.NewEntry("inproceedings", "x")
	rec.Fields["series"] = "Lecture Notes in Computer Science"

	_, out := DefaultHook(&entry.DBLP{ID: "x"}, rec)
	if out.Fields["series"] != "LNCS" {
		t.Errorf("series = %q, want LNCS", out.Fields["series"])
	}
}

func TestDefaultHook_LeavesOtherSeries(t *testing.T) {
	rec := bibtex.NewEntry("inproceedings", "x")
	rec.Fields["series"] = "Annals of Discrete Mathematics"

	_, out := DefaultHook(&entry.DBLP{ID: "x"}, rec)
	if out.Fields["series"] != "Annals of Discrete Mathematics" {
		t.Errorf("series = %q, want unchanged", out.Fields["series"])
	}
}

func TestDefaultHook_StripsEprintNote(t *testing.T) {
	rec := bibtex.NewEntry("misc", "x")
	rec.Fields["url"] = "https://eprint.iacr.org/2023/123"
	rec.Fields["note"] = "Preprint"

	_, out := DefaultHook(&entry.Eprint{ID: "x"}, rec)
	if _, ok := out.Fields["note"]; ok {
		t.Error("note should be dropped for eprint urls")
	}
}

func TestDefaultHook_KeepsOtherNotes(t *testing.T) {
	rec := bibtex.NewEntry("misc", "x")
	rec.Fields["url"] = "https://example.org/paper"
	rec.Fields["note"] = "Preprint"

	_, out := DefaultHook(&entry.Raw{ID: "x"}, rec)
	if out.Fields["note"] != "Preprint" {
		t.Error("note should stay for other urls")
	}
}

func TestConfigHook_CustomRules(t *testing.T) {
	hook := ConfigHook(HookConfig{
		SeriesAbbreviations: map[string]string{
			"ACM Symposium on Theory of Computing": "STOC",
		},
		StripNoteURLPrefixes: []string{"https://ia.cr/"},
	})

	rec := bibtex.NewEntry("inproceedings", "x")
	rec.Fields["series"] = "ACM Symposium on Theory of Computing"
	rec.Fields["url"] = "https://ia.cr/2023/123"
	rec.Fields["note"] = "Full version"

	_, out := hook(&entry.DBLP{ID: "x"}, rec)
	if out.Fields["series"] != "STOC" {
		t.Errorf("series = %q, want STOC", out.Fields["series"])
	}
	if _, ok := out.Fields["note"]; ok {
		t.Error("note should be dropped for configured prefix")
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("dblp:conf/x/y")
	b := Fingerprint("dblp:conf/x/y")
	if a != b {
		t.Error("fingerprint must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("unexpected fingerprint length %d", len(a))
	}
	if Fingerprint("dblp:conf/x/z") == a {
		t.Error("different content must fingerprint differently")
	}
}
