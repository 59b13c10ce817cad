package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/provider"
	"github.com/tdewaele/bilaudit/internal/rules"
	"github.com/tdewaele/bilaudit/internal/seed"
	"github.com/tdewaele/bilaudit/internal/store"
)

func seededStore(t *testing.T) (*store.Memory, model.QuestionSet) {
	t.Helper()
	st := store.NewMemory()
	if err := seed.IfEmpty(st, t.TempDir(), nil); err != nil {
		t.Fatal(err)
	}
	sets, _ := st.QuestionSets()
	if len(sets) != 1 {
		t.Fatalf("Expected 1 question set, got %d", len(sets))
	}
	return st, sets[0]
}

func TestRunner_Run_BaselineProducesFindings(t *testing.T) {
	st, set := seededStore(t)
	runner := NewRunner(st, rules.Default(), provider.Config{}, nil)

	run, _ := st.CreateAuditRun(model.AuditRun{
		QuestionSetID: set.ID,
		Provider:      model.ProviderMockBaseline,
	})

	if err := runner.Run(context.Background(), run.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := st.AuditRun(run.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("Expected completed, got %s", got.Status)
	}

	answers, _ := st.AnswersByRun(run.ID)
	if len(answers) != 14 {
		t.Errorf("Expected 14 answers, got %d", len(answers))
	}

	findings, _ := st.FindingsByRun(run.ID)
	if len(findings) == 0 {
		t.Fatal("Baseline provider must produce findings")
	}

	byType := make(map[model.FindingType]int)
	for _, f := range findings {
		byType[f.Type]++
		if f.Severity < 0 || f.Severity > 10 {
			t.Errorf("Severity %d out of range for %s", f.Severity, f.Type)
		}
		if f.AuditRunID != run.ID {
			t.Errorf("Finding not attributed to run: %+v", f)
		}
	}

	// The baseline dataset bakes in all four issue classes
	for _, typ := range model.FindingTypes {
		if byType[typ] == 0 {
			t.Errorf("Expected at least one %s finding, got none (have %+v)", typ, byType)
		}
	}
}

func TestRunner_Run_AfterProviderImproves(t *testing.T) {
	st, set := seededStore(t)
	runner := NewRunner(st, rules.Default(), provider.Config{}, nil)

	baseline, _ := st.CreateAuditRun(model.AuditRun{QuestionSetID: set.ID, Provider: model.ProviderMockBaseline})
	if err := runner.Run(context.Background(), baseline.ID); err != nil {
		t.Fatal(err)
	}
	after, _ := st.CreateAuditRun(model.AuditRun{QuestionSetID: set.ID, Provider: model.ProviderMockAfter, BaselineRunID: baseline.ID})
	if err := runner.Run(context.Background(), after.ID); err != nil {
		t.Fatal(err)
	}

	baseFindings, _ := st.FindingsByRun(baseline.ID)
	afterFindings, _ := st.FindingsByRun(after.ID)
	if len(afterFindings) >= len(baseFindings) {
		t.Errorf("Corrected provider should yield fewer findings: baseline=%d after=%d",
			len(baseFindings), len(afterFindings))
	}

	cmp, err := st.Comparison(baseline.ID, after.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmp.ResolvedFindings) == 0 {
		t.Error("Expected resolved findings between baseline and after")
	}
}

// flakyProvider fails on the n-th call
type flakyProvider struct {
	calls   int
	failAt  int
	wrapped provider.Provider
}

func (p *flakyProvider) Name() string { return "flaky" }

func (p *flakyProvider) GetAnswer(ctx context.Context, q model.Question) (provider.Response, error) {
	p.calls++
	if p.calls >= p.failAt {
		return provider.Response{}, errors.New("upstream unavailable")
	}
	return p.wrapped.GetAnswer(ctx, q)
}

func TestRunner_Run_MidRunFailure(t *testing.T) {
	st, set := seededStore(t)
	runner := NewRunner(st, rules.Default(), provider.Config{}, nil)

	inner, _ := provider.New(model.ProviderMockBaseline, provider.Config{})
	runner.newProvider = func(model.ProviderID, provider.Config) (provider.Provider, error) {
		return &flakyProvider{failAt: 3, wrapped: inner}, nil
	}

	run, _ := st.CreateAuditRun(model.AuditRun{QuestionSetID: set.ID, Provider: model.ProviderMockBaseline})
	err := runner.Run(context.Background(), run.ID)
	if err == nil {
		t.Fatal("Expected run to fail")
	}

	got, _ := st.AuditRun(run.ID)
	if got.Status != model.StatusFailed {
		t.Errorf("Expected failed status, got %s", got.Status)
	}

	// The two answers before the failure stay persisted; no rollback
	answers, _ := st.AnswersByRun(run.ID)
	if len(answers) != 2 {
		t.Errorf("Expected 2 answers persisted before failure, got %d", len(answers))
	}

	// Drift runs after the loop, so a failed loop yields no drift findings
	findings, _ := st.FindingsByRun(run.ID)
	for _, f := range findings {
		if f.Type == model.FindingDrift {
			t.Errorf("No drift findings expected on failed run, got %+v", f)
		}
	}
}

func TestRunner_Run_UnknownRun(t *testing.T) {
	st, _ := seededStore(t)
	runner := NewRunner(st, rules.Default(), provider.Config{}, nil)

	err := runner.Run(context.Background(), "does-not-exist")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// Nothing was created for the unknown run
	if answers, _ := st.AnswersByRun("does-not-exist"); len(answers) != 0 {
		t.Errorf("Unexpected answers for unknown run: %d", len(answers))
	}
}

func TestLauncher_BackgroundRun(t *testing.T) {
	st, set := seededStore(t)
	runner := NewRunner(st, rules.Default(), provider.Config{}, nil)

	launcher := NewLauncher(runner, 2, nil)
	launcher.Start()
	defer launcher.Shutdown()

	run, _ := st.CreateAuditRun(model.AuditRun{QuestionSetID: set.ID, Provider: model.ProviderMockBaseline})
	launcher.Launch(run.ID)

	deadline := time.After(5 * time.Second)
	for {
		got, _ := st.AuditRun(run.ID)
		if got.Status == model.StatusCompleted {
			break
		}
		if got.Status == model.StatusFailed {
			t.Fatal("Background run failed")
		}
		select {
		case <-deadline:
			t.Fatalf("Run did not complete in time, status=%s", got.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestLauncher_LaunchDuringShutdown(t *testing.T) {
	st, set := seededStore(t)
	runner := NewRunner(st, rules.Default(), provider.Config{}, nil)

	launcher := NewLauncher(runner, 1, nil)
	launcher.Start()

	run, _ := st.CreateAuditRun(model.AuditRun{QuestionSetID: set.ID, Provider: model.ProviderMockBaseline})

	// Launches racing the shutdown must not panic; they either queue or
	// fall through on the cancelled context.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			launcher.Launch(run.ID)
		}()
	}
	launcher.Shutdown()
	wg.Wait()

	// After shutdown a launch is a no-op
	launcher.Launch(run.ID)

	got, _ := st.AuditRun(run.ID)
	if got.Status == model.StatusRunning {
		t.Errorf("No worker may still be running after shutdown, status=%s", got.Status)
	}
}
