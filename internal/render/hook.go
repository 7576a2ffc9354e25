package render

import (
	"strings"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/entry"
)

// Hook post-processes one rendered record. Hooks are pure: they may
// rewrite the record or swap the entry, and return both.
type Hook func(e entry.Entry, rec *bibtex.Entry) (entry.Entry, *bibtex.Entry)

// HookConfig is the data form of a hook, loadable from the tool
// configuration.
type HookConfig struct {
	// SeriesAbbreviations maps full series names to their short forms.
	SeriesAbbreviations map[string]string `yaml:"series_abbreviations"`
	// StripNoteURLPrefixes drops the note field from records whose url
	// starts with one of these prefixes.
	StripNoteURLPrefixes []string `yaml:"strip_note_url_prefixes"`
}

// DefaultHookConfig returns the stock rewrites: abbreviate the LNCS
// series name, and drop the note on records already pointing at the
// Cryptology ePrint archive.
func DefaultHookConfig() HookConfig {
	return HookConfig{
		SeriesAbbreviations: map[string]string{
			"Lecture Notes in Computer Science": "LNCS",
		},
		StripNoteURLPrefixes: []string{"https://eprint.iacr.org/"},
	}
}

// ConfigHook builds a hook applying the configured rewrites.
func ConfigHook(cfg HookConfig) Hook {
	return func(e entry.Entry, rec *bibtex.Entry) (entry.Entry, *bibtex.Entry) {
		if short, ok := cfg.SeriesAbbreviations[rec.Fields["series"]]; ok {
			rec.Fields["series"] = short
		}
		for _, prefix := range cfg.StripNoteURLPrefixes {
			if prefix != "" && strings.HasPrefix(rec.Fields["url"], prefix) {
				delete(rec.Fields, "note")
				break
			}
		}
		return e, rec
	}
}

// DefaultHook applies DefaultHookConfig.
var DefaultHook = ConfigHook(DefaultHookConfig())
