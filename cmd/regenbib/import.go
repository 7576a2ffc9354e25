package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joachimneu/regenbib/internal/importer"
	"github.com/joachimneu/regenbib/internal/pdfid"
	"github.com/joachimneu/regenbib/internal/prompt"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Interactively import cited keys missing from the store",
	Long: `Walk the citation keys in the document's .aux file and import every
key the reference store does not track yet.

For each missing key the session offers a menu of import strategies:
free-text DBLP search, manual arXiv and ePrint ids, sniffing ids out
of a PDF, freezing the current .bib record, and DBLP searches seeded
from the current record's title or authors. The store file is saved
after every key, so an interrupted session keeps its progress.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig(cmd)

	ids := mustReadCitations()
	st := mustLoadStore()
	bib := mustParseBib(false)

	c, ttl := openCache(cmd, cfg)
	if c != nil {
		defer c.Close()
	}

	session := &importer.Session{
		Store:     st,
		StorePath: yamlPath,
		Bib:       bib,
		Prompter:  prompt.NewStdTerminal(),
		DBLP:      newDBLPClient(c, ttl),
		Sniff:     pdfid.Extract,
	}
	return session.Run(ctx, ids)
}
