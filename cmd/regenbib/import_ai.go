package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/prompt"
	"github.com/joachimneu/regenbib/internal/suggest"
)

var importAILaxBib bool

func init() {
	// Load .env file if present (for OPENAI_API_KEY)
	_ = godotenv.Load()

	importAICmd.Flags().BoolVar(&importAILaxBib, "lax-bib", false, "Skip unparsable .bib records instead of failing")
	rootCmd.AddCommand(importAICmd)
}

var importAICmd = &cobra.Command{
	Use:   "import-ai",
	Short: "Import cited keys with AI-proposed candidates",
	Long: `Walk the citation keys in the document's .aux file and, for every key
the reference store does not track yet, ask an OpenAI-compatible
model for ranked candidate references, then pick one from a menu.

The model sees the current .bib record when one exists; otherwise it
works from a title and optional author/year/venue hints typed at the
prompt. An accepted candidate is stored under the cited key and the
store file is saved immediately.

Requires OPENAI_API_KEY, read from the environment or a .env file.`,
	Args: cobra.NoArgs,
	RunE: runImportAI,
}

func runImportAI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig(cmd)

	client := suggest.NewClient(
		suggest.WithBaseURL(cfg.OpenAI.BaseURL),
		suggest.WithModel(cfg.OpenAI.Model),
	)
	if err := client.Ready(); err != nil {
		exitWithError(ExitConfigError, "initializing OpenAI client: %v", err)
	}
	fmt.Println("---> OpenAI client initialized successfully")

	ids := mustReadCitations()
	st := mustLoadStore()
	bib := mustParseBib(importAILaxBib)

	engine := &suggest.Engine{LLM: client}
	term := prompt.NewStdTerminal()

	for _, id := range ids {
		if st.Contains(id) {
			continue
		}
		fmt.Printf("\n=== Importing entry: %s ===\n", id)

		old, _ := bib.Lookup(id)
		if old != nil {
			fmt.Printf("---> Found existing entry:\n%s", bibtex.Format(old))
		}

		var hints suggest.Hints
		if old == nil {
			h, ok, err := promptHints(term)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("---> No suggestions received from AI")
				continue
			}
			hints = h
		}

		suggestions, err := engine.Suggest(ctx, id, old, hints)
		if err != nil {
			fmt.Printf("---> Error processing %s: %v\n", id, err)
			continue
		}
		if len(suggestions) == 0 {
			fmt.Println("---> No suggestions received from AI")
			continue
		}

		fmt.Printf("\n---> AI found %d suggestions:\n", len(suggestions))
		for i, sg := range suggestions {
			printSuggestion(i+1, sg)
		}

		choice, err := term.Number("---> Select suggestion (0=skip)", 0, len(suggestions))
		if err != nil {
			return err
		}
		if choice == 0 {
			fmt.Println("---> Skipping entry")
			continue
		}

		selected := suggestions[choice-1]
		e, err := selected.ToEntry(id)
		if err != nil {
			fmt.Printf("---> Failed to create entry from suggestion: %v\n", err)
			continue
		}

		st.Append(e)
		if err := st.Dump(yamlPath); err != nil {
			return fmt.Errorf("saving store: %w", err)
		}
		fmt.Printf("---> Added %s entry for %s\n", strings.ToUpper(selected.Kind), id)
	}

	fmt.Println("\n=== Import completed ===")
	return nil
}

// promptHints collects the seed the model works from when the .bib
// file has no record for the key. An empty title aborts the key.
func promptHints(p prompt.Prompter) (suggest.Hints, bool, error) {
	title, err := p.Text("---> Title [<empty>=abort]")
	if err != nil {
		return suggest.Hints{}, false, err
	}
	if title == "" {
		return suggest.Hints{}, false, nil
	}
	authors, err := p.Text("---> Authors (optional)")
	if err != nil {
		return suggest.Hints{}, false, err
	}
	year, err := p.Text("---> Year (optional)")
	if err != nil {
		return suggest.Hints{}, false, err
	}
	venue, err := p.Text("---> Venue/Conference/Journal (optional)")
	if err != nil {
		return suggest.Hints{}, false, err
	}
	return suggest.Hints{Title: title, Authors: authors, Year: year, Venue: venue}, true, nil
}

func printSuggestion(n int, sg suggest.Suggestion) {
	fmt.Printf("(%d) %s\n", n, sg)
	fmt.Printf("    Authors: %s\n", sg.Authors)
	if sg.Year != "" {
		fmt.Printf("    Year: %s\n", sg.Year)
	}
	if sg.Venue != "" {
		fmt.Printf("    Venue: %s\n", sg.Venue)
	}
	fmt.Printf("    Priority: %d\n", sg.Priority)
	fmt.Printf("    Reasoning: %s\n", sg.Reasoning)
	fmt.Println()
}
