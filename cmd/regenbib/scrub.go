package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joachimneu/regenbib/internal/entry"
	"github.com/joachimneu/regenbib/internal/store"
)

var scrubSortBy string

func init() {
	scrubSortCmd.Flags().StringVar(&scrubSortBy, "by", "", "Sort order (non-empty combination of: S = source, B = bibtex-id, C = content-id)")
	scrubSortCmd.MarkFlagRequired("by")

	scrubCmd.AddCommand(scrubSortCmd)
	scrubCmd.AddCommand(scrubDedupCmd)
	rootCmd.AddCommand(scrubCmd)
}

var scrubCmd = &cobra.Command{
	Use:   "scrub",
	Short: "Perform maintenance on the reference store",
	Long: `Perform maintenance on the .yaml reference store.

Without a subcommand, scrub rewrites the store in canonical form.
'scrub sort' orders the entries, 'scrub dedup' collapses duplicated
citation keys.`,
	Args: cobra.NoArgs,
	RunE: runScrub,
}

var scrubSortCmd = &cobra.Command{
	Use:   "sort --by ORDER",
	Short: "Sort the reference store",
	Long: `Sort the entries of the .yaml reference store.

The --by order is a combination of single-letter keys, compared in
the given order: S sorts by entry source kind, B by citation key, C
by content identity. The sort is stable, so entries equal under the
requested keys keep their current order.`,
	Args: cobra.NoArgs,
	RunE: runScrubSort,
}

var scrubDedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Collapse duplicated citation keys in the store",
	Long: `Collapse groups of store entries sharing a citation key.

A group of two or three entries whose content is identical keeps its
first entry and drops the rest. Groups with differing content, and
groups of more than three copies, are left untouched and reported
for manual review.`,
	Args: cobra.NoArgs,
	RunE: runScrubDedup,
}

func runScrub(cmd *cobra.Command, args []string) error {
	mustLoadConfig(cmd)
	st := mustLoadStore()
	return dumpStore(st)
}

func runScrubSort(cmd *cobra.Command, args []string) error {
	mustLoadConfig(cmd)

	codes, err := entry.ParseKeyCodes(scrubSortBy)
	if err != nil {
		exitWithError(ExitError, "parsing --by: %v", err)
	}

	st := mustLoadStore()
	st.Sort(codes)
	return dumpStore(st)
}

func runScrubDedup(cmd *cobra.Command, args []string) error {
	mustLoadConfig(cmd)

	st := mustLoadStore()
	res := st.Dedup()
	printDedupResult(res)
	return dumpStore(st)
}

func dumpStore(st *store.Store) error {
	if err := st.Dump(yamlPath); err != nil {
		return fmt.Errorf("saving store: %w", err)
	}
	return nil
}

func printDedupResult(res store.DedupResult) {
	for _, g := range res.Collapsed {
		fmt.Printf("Collapsed %s: dropped %d duplicate(s)\n", g.Key, g.Dropped)
	}
	for _, g := range res.Manual {
		fmt.Printf("Manual review needed for %s (%d copies, %s):\n", g.Key, g.Size, g.Reason)
		for _, id := range g.ContentIDs {
			fmt.Printf("  - %s\n", id)
		}
	}
	if res.Removed == 0 && len(res.Manual) == 0 {
		fmt.Println("No duplicated citation keys.")
		return
	}
	fmt.Printf("Removed %d entr%s.\n", res.Removed, pluralY(res.Removed))
}

// pluralY picks the y/ies suffix for "entry".
func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
