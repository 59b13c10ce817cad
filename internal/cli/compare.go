package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <baseline-run-id> <current-run-id>",
	Short: "Compare the findings of two audit runs",
	Long: `Compare diffs two completed runs over the same question set: per-type
finding counts, findings resolved since the baseline, and findings new
in the current run. Only useful with a persistent store.

Example:
  bilaudit compare 1a2b3c 4d5e6f --store sqlite --db audits.db`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("store", "", "store driver: memory or sqlite")
	compareCmd.Flags().String("db", "", "sqlite database path")
}

func runCompare(cmd *cobra.Command, args []string) error {
	bindStoreFlags(cmd)
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	log := newLogger()

	st, closeStore, err := openStore(settings, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	cmp, err := st.Comparison(args[0], args[1])
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	fmt.Printf("Baseline %s (%s) vs current %s (%s)\n\n",
		cmp.BaselineRunID, cmp.BaselineDate, cmp.CurrentRunID, cmp.CurrentDate)

	fmt.Println("Per-type change:")
	for _, d := range cmp.Improvements {
		fmt.Printf("  %-10s %3d -> %3d (%+d)\n",
			d.Type, cmp.BaselineCounts[d.Type], cmp.CurrentCounts[d.Type], d.Change)
	}

	fmt.Printf("\nResolved: %d\n", len(cmp.ResolvedFindings))
	for _, f := range cmp.ResolvedFindings {
		fmt.Printf("  - %s %s question=%s\n", f.Type, f.Lang, f.QuestionID)
	}
	fmt.Printf("New: %d\n", len(cmp.NewFindings))
	for _, f := range cmp.NewFindings {
		fmt.Printf("  + [%d] %s %s question=%s\n", f.Severity, f.Type, f.Lang, f.QuestionID)
	}
	return nil
}
