package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite"

	"github.com/tdewaele/bilaudit/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	id             TEXT PRIMARY KEY,
	key            TEXT NOT NULL,
	lang           TEXT NOT NULL,
	value          TEXT NOT NULL,
	source_ref     TEXT NOT NULL DEFAULT '',
	last_verified  TEXT NOT NULL DEFAULT '',
	linked_fact_id TEXT NOT NULL DEFAULT '',
	topic          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_facts_key_lang ON facts(key, lang);

CREATE TABLE IF NOT EXISTS question_sets (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	languages TEXT NOT NULL,
	topics    TEXT NOT NULL,
	version   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS questions (
	id                 TEXT PRIMARY KEY,
	question_set_id    TEXT NOT NULL,
	lang               TEXT NOT NULL,
	topic              TEXT NOT NULL,
	risk_tag           TEXT NOT NULL,
	text               TEXT NOT NULL,
	expected_fact_keys TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_set ON questions(question_set_id);

CREATE TABLE IF NOT EXISTS audit_runs (
	id              TEXT PRIMARY KEY,
	question_set_id TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	provider        TEXT NOT NULL,
	status          TEXT NOT NULL,
	baseline_run_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS answers (
	id           TEXT PRIMARY KEY,
	audit_run_id TEXT NOT NULL,
	question_id  TEXT NOT NULL,
	lang         TEXT NOT NULL,
	answer_text  TEXT NOT NULL,
	citations    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_run ON answers(audit_run_id);

CREATE TABLE IF NOT EXISTS findings (
	id            TEXT PRIMARY KEY,
	audit_run_id  TEXT NOT NULL,
	question_id   TEXT NOT NULL,
	lang          TEXT NOT NULL,
	type          TEXT NOT NULL,
	severity      INTEGER NOT NULL,
	evidence_json TEXT NOT NULL,
	suggested_fix TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(audit_run_id);
`

const metricsCacheKey = "dashboard_metrics"

// SQLite is the durable backend, using the pure-Go modernc driver.
// Dashboard metrics scan every finding, so they are cached briefly.
type SQLite struct {
	db      *sql.DB
	metrics *gocache.Cache
}

// OpenSQLite opens (and if needed creates) a SQLite store at path.
// WAL mode and a busy timeout keep concurrent run appends from tripping
// over each other.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{
		db:      db,
		metrics: gocache.New(15*time.Second, time.Minute),
	}, nil
}

// Close closes the underlying database
func (s *SQLite) Close() error { return s.db.Close() }

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalStrings(s string) []string {
	var out []string
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func scanFact(row interface{ Scan(...any) error }) (model.Fact, error) {
	var f model.Fact
	err := row.Scan(&f.ID, &f.Key, &f.Lang, &f.Value, &f.SourceRef, &f.LastVerified, &f.LinkedFactID, &f.Topic)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	return f, err
}

const factCols = "id, key, lang, value, source_ref, last_verified, linked_fact_id, topic"

func (s *SQLite) Facts() ([]model.Fact, error) {
	rows, err := s.db.Query("SELECT " + factCols + " FROM facts ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLite) Fact(id string) (model.Fact, error) {
	return scanFact(s.db.QueryRow("SELECT "+factCols+" FROM facts WHERE id = ?", id))
}

func (s *SQLite) FactByKey(key string, lang model.Language) (model.Fact, error) {
	return scanFact(s.db.QueryRow(
		"SELECT "+factCols+" FROM facts WHERE key = ? AND lang = ? ORDER BY rowid LIMIT 1", key, lang))
}

func (s *SQLite) SearchFacts(query string) ([]model.Fact, error) {
	like := "%" + query + "%"
	rows, err := s.db.Query("SELECT "+factCols+
		" FROM facts WHERE key LIKE ? OR value LIKE ? OR topic LIKE ? ORDER BY rowid",
		like, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateFact(f model.Fact) (model.Fact, error) {
	f.ID = uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO facts ("+factCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		f.ID, f.Key, f.Lang, f.Value, f.SourceRef, f.LastVerified, f.LinkedFactID, f.Topic)
	return f, err
}

func (s *SQLite) UpdateFact(f model.Fact) (model.Fact, error) {
	res, err := s.db.Exec(
		"UPDATE facts SET key=?, lang=?, value=?, source_ref=?, last_verified=?, linked_fact_id=?, topic=? WHERE id=?",
		f.Key, f.Lang, f.Value, f.SourceRef, f.LastVerified, f.LinkedFactID, f.Topic, f.ID)
	if err != nil {
		return model.Fact{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Fact{}, ErrNotFound
	}
	return f, nil
}

func (s *SQLite) DeleteFact(id string) error {
	res, err := s.db.Exec("DELETE FROM facts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) QuestionSets() ([]model.QuestionSet, error) {
	rows, err := s.db.Query("SELECT id, title, languages, topics, version FROM question_sets ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QuestionSet
	for rows.Next() {
		var qs model.QuestionSet
		var langs, topics string
		if err := rows.Scan(&qs.ID, &qs.Title, &langs, &topics, &qs.Version); err != nil {
			return nil, err
		}
		for _, l := range unmarshalStrings(langs) {
			qs.Languages = append(qs.Languages, model.Language(l))
		}
		qs.Topics = unmarshalStrings(topics)
		out = append(out, qs)
	}
	return out, rows.Err()
}

func (s *SQLite) QuestionSet(id string) (model.QuestionSet, error) {
	var qs model.QuestionSet
	var langs, topics string
	err := s.db.QueryRow("SELECT id, title, languages, topics, version FROM question_sets WHERE id = ?", id).
		Scan(&qs.ID, &qs.Title, &langs, &topics, &qs.Version)
	if err == sql.ErrNoRows {
		return qs, ErrNotFound
	}
	if err != nil {
		return qs, err
	}
	for _, l := range unmarshalStrings(langs) {
		qs.Languages = append(qs.Languages, model.Language(l))
	}
	qs.Topics = unmarshalStrings(topics)
	return qs, nil
}

func (s *SQLite) CreateQuestionSet(qs model.QuestionSet) (model.QuestionSet, error) {
	if qs.ID == "" {
		qs.ID = uuid.NewString()
	}
	langs := make([]string, 0, len(qs.Languages))
	for _, l := range qs.Languages {
		langs = append(langs, string(l))
	}
	_, err := s.db.Exec(
		"INSERT INTO question_sets (id, title, languages, topics, version) VALUES (?, ?, ?, ?, ?)",
		qs.ID, qs.Title, marshalJSON(langs), marshalJSON(qs.Topics), qs.Version)
	return qs, err
}

const questionCols = "id, question_set_id, lang, topic, risk_tag, text, expected_fact_keys"

func (s *SQLite) queryQuestions(where string, args ...any) ([]model.Question, error) {
	rows, err := s.db.Query("SELECT "+questionCols+" FROM questions "+where+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var q model.Question
		var keys string
		if err := rows.Scan(&q.ID, &q.QuestionSetID, &q.Lang, &q.Topic, &q.RiskTag, &q.Text, &keys); err != nil {
			return nil, err
		}
		q.ExpectedFactKeys = unmarshalStrings(keys)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLite) Questions() ([]model.Question, error) {
	return s.queryQuestions("")
}

func (s *SQLite) QuestionsBySet(setID string) ([]model.Question, error) {
	return s.queryQuestions("WHERE question_set_id = ?", setID)
}

func (s *SQLite) Question(id string) (model.Question, error) {
	var q model.Question
	var keys string
	err := s.db.QueryRow("SELECT "+questionCols+" FROM questions WHERE id = ?", id).
		Scan(&q.ID, &q.QuestionSetID, &q.Lang, &q.Topic, &q.RiskTag, &q.Text, &keys)
	if err == sql.ErrNoRows {
		return q, ErrNotFound
	}
	if err != nil {
		return q, err
	}
	q.ExpectedFactKeys = unmarshalStrings(keys)
	return q, nil
}

func (s *SQLite) CreateQuestion(q model.Question) (model.Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		"INSERT INTO questions ("+questionCols+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		q.ID, q.QuestionSetID, q.Lang, q.Topic, q.RiskTag, q.Text, marshalJSON(q.ExpectedFactKeys))
	return q, err
}

const runCols = "id, question_set_id, created_at, provider, status, baseline_run_id"

func scanRun(row interface{ Scan(...any) error }) (model.AuditRun, error) {
	var r model.AuditRun
	var created string
	err := row.Scan(&r.ID, &r.QuestionSetID, &created, &r.Provider, &r.Status, &r.BaselineRunID)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return r, nil
}

func (s *SQLite) AuditRuns() ([]model.AuditRun, error) {
	rows, err := s.db.Query("SELECT " + runCols + " FROM audit_runs ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) AuditRun(id string) (model.AuditRun, error) {
	return scanRun(s.db.QueryRow("SELECT "+runCols+" FROM audit_runs WHERE id = ?", id))
}

func (s *SQLite) CreateAuditRun(run model.AuditRun) (model.AuditRun, error) {
	run.ID = uuid.NewString()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.StatusPending
	}
	_, err := s.db.Exec(
		"INSERT INTO audit_runs ("+runCols+") VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.QuestionSetID, run.CreatedAt.Format(time.RFC3339Nano), run.Provider, run.Status, run.BaselineRunID)
	return run, err
}

func (s *SQLite) UpdateAuditRunStatus(id string, status model.AuditStatus) (model.AuditRun, error) {
	run, err := s.AuditRun(id)
	if err != nil {
		return model.AuditRun{}, err
	}
	if !statusMovesForward(run.Status, status) {
		return run, nil
	}
	if _, err := s.db.Exec("UPDATE audit_runs SET status = ? WHERE id = ?", status, id); err != nil {
		return model.AuditRun{}, err
	}
	run.Status = status
	return run, nil
}

func (s *SQLite) AnswersByRun(runID string) ([]model.Answer, error) {
	rows, err := s.db.Query(
		"SELECT id, audit_run_id, question_id, lang, answer_text, citations FROM answers WHERE audit_run_id = ? ORDER BY rowid",
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Answer
	for rows.Next() {
		var a model.Answer
		var citations string
		if err := rows.Scan(&a.ID, &a.AuditRunID, &a.QuestionID, &a.Lang, &a.AnswerText, &citations); err != nil {
			return nil, err
		}
		a.Citations = unmarshalStrings(citations)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateAnswer(a model.Answer) (model.Answer, error) {
	a.ID = uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO answers (id, audit_run_id, question_id, lang, answer_text, citations) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.AuditRunID, a.QuestionID, a.Lang, a.AnswerText, marshalJSON(a.Citations))
	return a, err
}

const findingCols = "id, audit_run_id, question_id, lang, type, severity, evidence_json, suggested_fix"

func (s *SQLite) queryFindings(where string, args ...any) ([]model.Finding, error) {
	rows, err := s.db.Query("SELECT "+findingCols+" FROM findings "+where+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Finding
	for rows.Next() {
		var f model.Finding
		var evidence string
		if err := rows.Scan(&f.ID, &f.AuditRunID, &f.QuestionID, &f.Lang, &f.Type, &f.Severity, &evidence, &f.SuggestedFix); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(evidence), &f.Evidence)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLite) Findings() ([]model.Finding, error) {
	return s.queryFindings("")
}

func (s *SQLite) FindingsByRun(runID string) ([]model.Finding, error) {
	return s.queryFindings("WHERE audit_run_id = ?", runID)
}

func (s *SQLite) CreateFinding(f model.Finding) (model.Finding, error) {
	f.ID = uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO findings ("+findingCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		f.ID, f.AuditRunID, f.QuestionID, f.Lang, f.Type, f.Severity, marshalJSON(f.Evidence), f.SuggestedFix)
	return f, err
}

func (s *SQLite) DashboardMetrics() (model.DashboardMetrics, error) {
	if cached, ok := s.metrics.Get(metricsCacheKey); ok {
		return cached.(model.DashboardMetrics), nil
	}

	findings, err := s.Findings()
	if err != nil {
		return model.DashboardMetrics{}, err
	}
	runs, err := s.AuditRuns()
	if err != nil {
		return model.DashboardMetrics{}, err
	}

	m := buildMetrics(findings, runs)
	s.metrics.SetDefault(metricsCacheKey, m)
	return m, nil
}

func (s *SQLite) Comparison(baselineID, currentID string) (model.Comparison, error) {
	baseline, err := s.AuditRun(baselineID)
	if err != nil {
		return model.Comparison{}, err
	}
	current, err := s.AuditRun(currentID)
	if err != nil {
		return model.Comparison{}, err
	}
	baseFindings, err := s.FindingsByRun(baselineID)
	if err != nil {
		return model.Comparison{}, err
	}
	curFindings, err := s.FindingsByRun(currentID)
	if err != nil {
		return model.Comparison{}, err
	}
	return buildComparison(baseline, current, baseFindings, curFindings), nil
}
