package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tdewaele/bilaudit/internal/seed"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the seed dataset into the store",
	Long: `Seed populates an empty store with the bilingual fact base and the
question set. Seed files in the data directory win over the built-in
dataset; a store that already holds data is left untouched.

Example:
  bilaudit seed --store sqlite --db audits.db
  bilaudit seed --data ./data`,
	RunE: runSeedCmd,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("store", "", "store driver: memory or sqlite")
	seedCmd.Flags().String("db", "", "sqlite database path")
	seedCmd.Flags().String("data", "", "data directory with seed files")
}

func runSeedCmd(cmd *cobra.Command, args []string) error {
	bindStoreFlags(cmd)
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	log := newLogger()

	if settings.Store.Driver != "sqlite" {
		log.Warn("seeding an in-memory store only lasts for this process; use --store sqlite to persist")
	}

	st, closeStore, err := openStore(settings, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	if err := seed.IfEmpty(st, settings.Data.Dir, log); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	facts, err := st.Facts()
	if err != nil {
		return err
	}
	sets, err := st.QuestionSets()
	if err != nil {
		return err
	}
	questions, err := st.Questions()
	if err != nil {
		return err
	}

	fmt.Printf("✓ Store ready: %d facts, %d question sets, %d questions\n", len(facts), len(sets), len(questions))
	return nil
}
