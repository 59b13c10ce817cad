package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tdewaele/bilaudit/internal/audit"
	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/seed"
)

var (
	auditSetID    string
	auditProvider string
	auditBaseline string
	auditTimeout  time.Duration
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run one audit synchronously and print the findings",
	Long: `Audit executes a full audit run in the foreground: every question in
the set is answered by the chosen provider, scored, and checked for
cross-language drift. Findings are printed sorted by severity.

Example:
  bilaudit audit
  bilaudit audit --provider mock-after --store sqlite --db audits.db
  bilaudit audit --provider openai`,
	RunE: runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditSetID, "set", "", "question set id (default: first available set)")
	auditCmd.Flags().StringVar(&auditProvider, "provider", "mock-baseline", "answer provider (mock-baseline, mock-after, openai)")
	auditCmd.Flags().StringVar(&auditBaseline, "baseline", "", "baseline run id to record for later comparison")
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", 5*time.Minute, "overall audit timeout")

	auditCmd.Flags().String("store", "", "store driver: memory or sqlite")
	auditCmd.Flags().String("db", "", "sqlite database path")
	auditCmd.Flags().String("data", "", "data directory with seeds and scoring rules")
	auditCmd.Flags().String("rules", "", "scoring rules file (default <data>/scoring_rules.yaml)")
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	bindStoreFlags(cmd)
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	log := newLogger()

	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	st, closeStore, err := openStore(settings, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	if err := seed.IfEmpty(st, settings.Data.Dir, log); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	setID := auditSetID
	if setID == "" {
		sets, err := st.QuestionSets()
		if err != nil || len(sets) == 0 {
			return fmt.Errorf("no question set available, pass --set")
		}
		setID = sets[0].ID
	}

	run, err := st.CreateAuditRun(model.AuditRun{
		QuestionSetID: setID,
		Provider:      model.ProviderID(auditProvider),
		BaselineRunID: auditBaseline,
	})
	if err != nil {
		return fmt.Errorf("create audit run: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Run: %s\n", run.ID)
		fmt.Fprintf(os.Stderr, "Question set: %s\n", setID)
		fmt.Fprintf(os.Stderr, "Provider: %s\n\n", auditProvider)
	}

	cfg := loadRules(settings)
	runner := audit.NewRunner(st, cfg, buildProviderConfig(settings, log), log)
	if err := runner.Run(ctx, run.ID); err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	findings, err := st.FindingsByRun(run.ID)
	if err != nil {
		return fmt.Errorf("load findings: %w", err)
	}

	fmt.Printf("✓ Run %s completed: %d findings\n\n", run.ID, len(findings))
	for _, f := range findings {
		fmt.Printf("  [%2d] %-10s %-2s question=%s\n", f.Severity, f.Type, f.Lang, f.QuestionID)
		if f.SuggestedFix != "" {
			fmt.Printf("       fix: %s\n", f.SuggestedFix)
		}
	}
	return nil
}
