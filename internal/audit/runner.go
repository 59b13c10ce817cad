// Package audit orchestrates audit runs: it drives the provider, the
// per-answer scorer and the drift detector over one question set and
// persists everything they produce.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tdewaele/bilaudit/internal/drift"
	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/provider"
	"github.com/tdewaele/bilaudit/internal/rules"
	"github.com/tdewaele/bilaudit/internal/score"
	"github.com/tdewaele/bilaudit/internal/store"
)

// Runner executes a single audit run from pending to completed or failed.
type Runner struct {
	store       store.Store
	scorer      *score.Scorer
	detector    *drift.Detector
	providerCfg provider.Config
	newProvider func(model.ProviderID, provider.Config) (provider.Provider, error)
	log         *slog.Logger
}

// NewRunner wires a runner against a store and rule configuration
func NewRunner(st store.Store, cfg *rules.Config, providerCfg provider.Config, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		store:       st,
		scorer:      score.NewScorer(cfg),
		detector:    drift.NewDetector(cfg),
		providerCfg: providerCfg,
		newProvider: provider.New,
		log:         log,
	}
}

// Run executes the run with the given id. The status moves
// running -> completed, or -> failed on the first error; failed is
// terminal and a failed run must be restarted as a new run. Answers and
// findings persisted before a failure are kept, not rolled back.
func (r *Runner) Run(ctx context.Context, runID string) error {
	run, err := r.store.AuditRun(runID)
	if err != nil {
		// No run to mutate; report straight back to the caller.
		return fmt.Errorf("audit run %s: %w", runID, err)
	}

	if _, err := r.store.UpdateAuditRunStatus(runID, model.StatusRunning); err != nil {
		return fmt.Errorf("mark run %s running: %w", runID, err)
	}

	if err := r.execute(ctx, run); err != nil {
		r.log.Error("audit run failed", "run", runID, "provider", run.Provider, "error", err)
		if _, stErr := r.store.UpdateAuditRunStatus(runID, model.StatusFailed); stErr != nil {
			r.log.Error("mark run failed", "run", runID, "error", stErr)
		}
		return err
	}

	if _, err := r.store.UpdateAuditRunStatus(runID, model.StatusCompleted); err != nil {
		return fmt.Errorf("mark run %s completed: %w", runID, err)
	}
	r.log.Info("audit run completed", "run", runID, "provider", run.Provider)
	return nil
}

func (r *Runner) execute(ctx context.Context, run model.AuditRun) error {
	questions, err := r.store.QuestionsBySet(run.QuestionSetID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	facts, err := r.store.Facts()
	if err != nil {
		return fmt.Errorf("load facts: %w", err)
	}

	prov, err := r.newProvider(run.Provider, r.providerCfg)
	if err != nil {
		return err
	}

	// Questions are processed strictly in set order, one at a time: the
	// drift detector needs the complete answer set before it can pair
	// languages, so there is nothing to gain from parallelism here.
	answers := make([]model.Answer, 0, len(questions))
	for _, q := range questions {
		resp, err := prov.GetAnswer(ctx, q)
		if err != nil {
			return fmt.Errorf("provider %s, question %s: %w", prov.Name(), q.ID, err)
		}

		answer, err := r.store.CreateAnswer(model.Answer{
			AuditRunID: run.ID,
			QuestionID: q.ID,
			Lang:       q.Lang,
			AnswerText: resp.AnswerText,
			Citations:  resp.Citations,
		})
		if err != nil {
			return fmt.Errorf("persist answer for question %s: %w", q.ID, err)
		}
		answers = append(answers, answer)

		for _, f := range r.scorer.Score(q, answer, facts, run.ID) {
			if _, err := r.store.CreateFinding(f); err != nil {
				return fmt.Errorf("persist finding: %w", err)
			}
		}
	}

	for _, f := range r.detector.Detect(run.ID, answers, questions) {
		if _, err := r.store.CreateFinding(f); err != nil {
			return fmt.Errorf("persist drift finding: %w", err)
		}
	}

	return nil
}
