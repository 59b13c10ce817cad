package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tdewaele/bilaudit/internal/model"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_FactRoundTrip(t *testing.T) {
	db := openTestDB(t)

	created, err := db.CreateFact(model.Fact{
		Key:          "city_hall_phone",
		Lang:         model.LangFR,
		Value:        "+32 2 123 45 67",
		SourceRef:    "/data/sources/city_hall.md",
		LastVerified: "2025-01-15",
		Topic:        "contact",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.Fact(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Value != created.Value || got.Lang != model.LangFR || got.Topic != "contact" {
		t.Errorf("Round trip mismatch: %+v", got)
	}

	if _, err := db.Fact("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_RunAnswersFindings(t *testing.T) {
	db := openTestDB(t)

	run, err := db.CreateAuditRun(model.AuditRun{QuestionSetID: "qs-1", Provider: model.ProviderMockBaseline})
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != model.StatusPending {
		t.Fatalf("New run must be pending, got %s", run.Status)
	}

	if _, err := db.UpdateAuditRunStatus(run.ID, model.StatusRunning); err != nil {
		t.Fatal(err)
	}

	ans, err := db.CreateAnswer(model.Answer{
		AuditRunID: run.ID,
		QuestionID: "q1",
		Lang:       model.LangFR,
		AnswerText: "Le numero est +32 2 123 45 67.",
		Citations:  []string{"/data/sources/city_hall.md"},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = db.CreateFinding(model.Finding{
		AuditRunID: run.ID,
		QuestionID: "q1",
		Lang:       model.LangFR,
		Type:       model.FindingUngrounded,
		Severity:   6,
		Evidence:   map[string]any{"topic": "contact"},
	})
	if err != nil {
		t.Fatal(err)
	}

	answers, err := db.AnswersByRun(run.ID)
	if err != nil || len(answers) != 1 {
		t.Fatalf("AnswersByRun: %v, %d answers", err, len(answers))
	}
	if len(answers[0].Citations) != 1 || answers[0].Citations[0] != ans.Citations[0] {
		t.Errorf("Citations did not survive the round trip: %+v", answers[0].Citations)
	}

	findings, err := db.FindingsByRun(run.ID)
	if err != nil || len(findings) != 1 {
		t.Fatalf("FindingsByRun: %v, %d findings", err, len(findings))
	}
	if findings[0].Evidence["topic"] != "contact" {
		t.Errorf("Evidence did not survive the round trip: %+v", findings[0].Evidence)
	}

	got, _ := db.AuditRun(run.ID)
	if got.Status != model.StatusRunning {
		t.Errorf("Expected running status persisted, got %s", got.Status)
	}
}

func TestSQLite_StatusForwardOnly(t *testing.T) {
	db := openTestDB(t)
	run, _ := db.CreateAuditRun(model.AuditRun{QuestionSetID: "qs-1"})

	_, _ = db.UpdateAuditRunStatus(run.ID, model.StatusRunning)
	_, _ = db.UpdateAuditRunStatus(run.ID, model.StatusCompleted)
	after, _ := db.UpdateAuditRunStatus(run.ID, model.StatusFailed)

	if after.Status != model.StatusCompleted {
		t.Errorf("Terminal status must not change, got %s", after.Status)
	}
}
