package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/entry"
	"github.com/joachimneu/regenbib/internal/render"
)

var (
	renderBiblatex bool
	renderGroup    bool
)

func init() {
	renderCmd.Flags().BoolVar(&renderBiblatex, "biblatex", false, "Write BibLaTeX-only fields (ids aliases) to the .bib file")
	renderCmd.Flags().BoolVar(&renderGroup, "group", false, "Merge entries with identical content under one record (requires --biblatex)")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the .bib bibliography from the reference store",
	Long: `Resolve every reference in the .yaml store against its archive and
write the resulting records to the .bib file.

With --group, entries whose resolved content is identical are merged
under one synthesized record that lists every contributing citation
key as a BibLaTeX alias; aliases travel in the ids field, so --group
requires --biblatex.

Any failed lookup aborts the run before the .bib file is touched, so
a half-rendered bibliography is never written.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig(cmd)

	if renderGroup && !renderBiblatex {
		exitWithError(ExitError, "--group requires --biblatex")
	}

	st := mustLoadStore()

	c, ttl := openCache(cmd, cfg)
	if c != nil {
		defer c.Close()
	}

	pipeline := &render.Pipeline{
		Sources: newSources(c, ttl),
		Hook:    render.ConfigHook(cfg.Render),
		Group:   renderGroup,
		Progress: func(e entry.Entry) {
			fmt.Printf("Rendering: %s\n", e)
		},
	}

	db, err := pipeline.Run(ctx, st)
	if err != nil {
		return err
	}

	out := bibtex.FormatAll(db)
	if renderBiblatex {
		out = bibtex.FormatAllExtended(db)
	}
	if err := os.WriteFile(bibPath, []byte(out), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", bibPath, err)
	}
	fmt.Printf("Wrote %d entries to %s\n", db.Len(), bibPath)
	return nil
}
