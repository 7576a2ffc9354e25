// Package main provides the regenbib CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joachimneu/regenbib/internal/arxiv"
	"github.com/joachimneu/regenbib/internal/auxfile"
	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/cache"
	"github.com/joachimneu/regenbib/internal/config"
	"github.com/joachimneu/regenbib/internal/dblp"
	"github.com/joachimneu/regenbib/internal/entry"
	"github.com/joachimneu/regenbib/internal/eprint"
	"github.com/joachimneu/regenbib/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

// Path flags shared by every command. Flags the user leaves unset fall
// back to the tool configuration.
var (
	yamlPath     string
	bibPath      string
	auxPath      string
	noCache      bool
	cacheTTLFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like unknown flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "regenbib",
	Short: "Regenerate .bib bibliographies from a YAML reference store",
	Long: `regenbib keeps the references of a LaTeX document in a small YAML
store and regenerates the .bib file from it.

Workflow:
  - 'regenbib import' walks the citation keys in the document's .aux
    file and interactively imports every key the store does not track
    yet, from DBLP, arXiv, the Cryptology ePrint Archive, a PDF, or
    the current .bib record.
  - 'regenbib import-ai' does the same with AI-proposed candidates.
  - 'regenbib render' resolves each stored reference against its
    archive and writes a fresh .bib file.
  - 'regenbib scrub' normalizes, sorts and deduplicates the store.

Fetched archive responses are cached on disk so repeated renders do
not hammer the archives.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&yamlPath, "yaml", config.DefaultYaml, "File name of .yaml reference store")
	rootCmd.PersistentFlags().StringVar(&bibPath, "bib", config.DefaultBib, "File name of .bib bibliography")
	rootCmd.PersistentFlags().StringVar(&auxPath, "aux", config.DefaultAux, "File name of LaTeX .aux file")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the archive response cache")
	rootCmd.PersistentFlags().StringVar(&cacheTTLFlag, "cache-ttl", "", "Lifetime of cached archive responses (e.g. 72h, 14d, 2w)")
	rootCmd.Version = Version
}

// exitWithError prints an error to stderr and exits with code.
func exitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(code)
}

// mustLoadConfig loads the tool configuration and overlays it onto
// every path flag the user left unset, exits on error.
func mustLoadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.LoadDefault()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if !cmd.Flags().Changed("yaml") {
		yamlPath = cfg.Yaml
	}
	if !cmd.Flags().Changed("bib") {
		bibPath = cfg.Bib
	}
	if !cmd.Flags().Changed("aux") {
		auxPath = cfg.Aux
	}
	return cfg
}

// mustLoadStore loads the reference store, exits on error. A missing
// file yields an empty store.
func mustLoadStore() *store.Store {
	s, err := store.LoadOrEmpty(yamlPath)
	if err != nil {
		exitWithError(ExitDataError, "loading %s: %v", yamlPath, err)
	}
	return s
}

// mustParseBib parses the current bibliography, exits on error. A
// missing file yields an empty database.
func mustParseBib(lax bool) *bibtex.Database {
	if lax {
		db, err := bibtex.ParseFileLax(bibPath)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", bibPath, err)
		}
		return db
	}
	db, err := bibtex.ParseFile(bibPath)
	if err != nil {
		exitWithError(ExitDataError, "parsing %s: %v", bibPath, err)
	}
	return db
}

// mustReadCitations extracts the cited keys from the .aux file, exits
// on error.
func mustReadCitations() []string {
	ids, err := auxfile.Citations(auxPath)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", auxPath, err)
	}
	return ids
}

// openCache opens the archive response cache. Caching is best effort:
// when disabled or unavailable the archives are hit directly, so the
// returned cache may be nil.
func openCache(cmd *cobra.Command, cfg *config.Config) (*cache.Cache, time.Duration) {
	if noCache || cfg.CachePath == "" {
		return nil, 0
	}

	ttl := time.Duration(cfg.CacheTTL)
	if cmd.Flags().Changed("cache-ttl") {
		parsed, err := config.ParseDuration(cacheTTLFlag)
		if err != nil {
			exitWithError(ExitError, "parsing --cache-ttl: %v", err)
		}
		ttl = parsed
	}

	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: response cache disabled: %v\n", err)
		return nil, 0
	}
	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: response cache disabled: %v\n", err)
		return nil, 0
	}
	return c, ttl
}

// newDBLPClient builds the publication index client, cached when c is
// non-nil.
func newDBLPClient(c *cache.Cache, ttl time.Duration) *dblp.Client {
	if c == nil {
		return dblp.NewClient()
	}
	return dblp.NewClient(dblp.WithCache(c, ttl))
}

// newSources builds the archive clients rendering needs, sharing the
// cache when c is non-nil.
func newSources(c *cache.Cache, ttl time.Duration) entry.Sources {
	if c == nil {
		return entry.Sources{
			DBLP:   dblp.NewClient(),
			Arxiv:  arxiv.NewClient(),
			Eprint: eprint.NewClient(),
		}
	}
	return entry.Sources{
		DBLP:   dblp.NewClient(dblp.WithCache(c, ttl)),
		Arxiv:  arxiv.NewClient(arxiv.WithCache(c, ttl)),
		Eprint: eprint.NewClient(eprint.WithCache(c, ttl)),
	}
}
