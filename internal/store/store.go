// Package store persists the knowledge base (facts, question sets,
// questions) and the per-run audit output (answers, findings, runs).
// Two backends exist: an in-memory store and a SQLite store. Answers and
// findings are append-only and both backends support concurrent appends
// from multiple in-flight runs.
package store

import (
	"errors"

	"github.com/tdewaele/bilaudit/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Store is the persistence contract shared by all backends
type Store interface {
	// Facts: reference data, read-only during a run
	Facts() ([]model.Fact, error)
	Fact(id string) (model.Fact, error)
	FactByKey(key string, lang model.Language) (model.Fact, error)
	SearchFacts(query string) ([]model.Fact, error)
	CreateFact(f model.Fact) (model.Fact, error)
	UpdateFact(f model.Fact) (model.Fact, error)
	DeleteFact(id string) error

	// Question sets and questions: immutable once created
	QuestionSets() ([]model.QuestionSet, error)
	QuestionSet(id string) (model.QuestionSet, error)
	CreateQuestionSet(qs model.QuestionSet) (model.QuestionSet, error)
	Questions() ([]model.Question, error)
	QuestionsBySet(setID string) ([]model.Question, error)
	Question(id string) (model.Question, error)
	CreateQuestion(q model.Question) (model.Question, error)

	// Audit runs: status only ever moves forward
	AuditRuns() ([]model.AuditRun, error)
	AuditRun(id string) (model.AuditRun, error)
	CreateAuditRun(run model.AuditRun) (model.AuditRun, error)
	UpdateAuditRunStatus(id string, status model.AuditStatus) (model.AuditRun, error)

	// Answers and findings: append-only, owned by their run
	AnswersByRun(runID string) ([]model.Answer, error)
	CreateAnswer(a model.Answer) (model.Answer, error)
	Findings() ([]model.Finding, error)
	FindingsByRun(runID string) ([]model.Finding, error)
	CreateFinding(f model.Finding) (model.Finding, error)

	// Aggregates
	DashboardMetrics() (model.DashboardMetrics, error)
	Comparison(baselineID, currentID string) (model.Comparison, error)
}

var statusRank = map[model.AuditStatus]int{
	model.StatusPending:   0,
	model.StatusRunning:   1,
	model.StatusCompleted: 2,
	model.StatusFailed:    2,
}

// statusMovesForward reports whether a transition respects the strictly
// forward-moving run state machine. completed and failed are terminal.
func statusMovesForward(from, to model.AuditStatus) bool {
	if from == model.StatusCompleted || from == model.StatusFailed {
		return false
	}
	return statusRank[to] > statusRank[from]
}
