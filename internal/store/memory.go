package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tdewaele/bilaudit/internal/model"
)

// Memory is an in-process store. A single RWMutex guards all maps, which
// is plenty for the append-heavy write pattern of concurrent audit runs.
type Memory struct {
	mu           sync.RWMutex
	facts        map[string]model.Fact
	questionSets map[string]model.QuestionSet
	questions    map[string]model.Question
	auditRuns    map[string]model.AuditRun
	answers      map[string]model.Answer
	findings     map[string]model.Finding

	// Insertion order, so listings are stable
	factOrder     []string
	questionOrder []string
	answerOrder   []string
	findingOrder  []string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		facts:        make(map[string]model.Fact),
		questionSets: make(map[string]model.QuestionSet),
		questions:    make(map[string]model.Question),
		auditRuns:    make(map[string]model.AuditRun),
		answers:      make(map[string]model.Answer),
		findings:     make(map[string]model.Finding),
	}
}

func (s *Memory) Facts() ([]model.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Fact, 0, len(s.factOrder))
	for _, id := range s.factOrder {
		if f, ok := s.facts[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Memory) Fact(id string) (model.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facts[id]
	if !ok {
		return model.Fact{}, ErrNotFound
	}
	return f, nil
}

func (s *Memory) FactByKey(key string, lang model.Language) (model.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.factOrder {
		f := s.facts[id]
		if f.Key == key && f.Lang == lang {
			return f, nil
		}
	}
	return model.Fact{}, ErrNotFound
}

func (s *Memory) SearchFacts(query string) ([]model.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []model.Fact
	for _, id := range s.factOrder {
		f := s.facts[id]
		if strings.Contains(strings.ToLower(f.Key), q) ||
			strings.Contains(strings.ToLower(f.Value), q) ||
			strings.Contains(strings.ToLower(f.Topic), q) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Memory) CreateFact(f model.Fact) (model.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = uuid.NewString()
	s.facts[f.ID] = f
	s.factOrder = append(s.factOrder, f.ID)
	return f, nil
}

func (s *Memory) UpdateFact(f model.Fact) (model.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facts[f.ID]; !ok {
		return model.Fact{}, ErrNotFound
	}
	s.facts[f.ID] = f
	return f, nil
}

func (s *Memory) DeleteFact(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facts[id]; !ok {
		return ErrNotFound
	}
	delete(s.facts, id)
	for i, fid := range s.factOrder {
		if fid == id {
			s.factOrder = append(s.factOrder[:i], s.factOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Memory) QuestionSets() ([]model.QuestionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.QuestionSet, 0, len(s.questionSets))
	for _, qs := range s.questionSets {
		out = append(out, qs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) QuestionSet(id string) (model.QuestionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs, ok := s.questionSets[id]
	if !ok {
		return model.QuestionSet{}, ErrNotFound
	}
	return qs, nil
}

func (s *Memory) CreateQuestionSet(qs model.QuestionSet) (model.QuestionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qs.ID == "" {
		qs.ID = uuid.NewString()
	}
	s.questionSets[qs.ID] = qs
	return qs, nil
}

func (s *Memory) Questions() ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Question, 0, len(s.questionOrder))
	for _, id := range s.questionOrder {
		if q, ok := s.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Memory) QuestionsBySet(setID string) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Question
	for _, id := range s.questionOrder {
		if q := s.questions[id]; q.QuestionSetID == setID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Memory) Question(id string) (model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return model.Question{}, ErrNotFound
	}
	return q, nil
}

func (s *Memory) CreateQuestion(q model.Question) (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	s.questions[q.ID] = q
	s.questionOrder = append(s.questionOrder, q.ID)
	return q, nil
}

func (s *Memory) AuditRuns() ([]model.AuditRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AuditRun, 0, len(s.auditRuns))
	for _, r := range s.auditRuns {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) AuditRun(id string) (model.AuditRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.auditRuns[id]
	if !ok {
		return model.AuditRun{}, ErrNotFound
	}
	return r, nil
}

func (s *Memory) CreateAuditRun(run model.AuditRun) (model.AuditRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = uuid.NewString()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.StatusPending
	}
	s.auditRuns[run.ID] = run
	return run, nil
}

func (s *Memory) UpdateAuditRunStatus(id string, status model.AuditStatus) (model.AuditRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.auditRuns[id]
	if !ok {
		return model.AuditRun{}, ErrNotFound
	}
	if !statusMovesForward(r.Status, status) {
		return r, nil // terminal or backward transition, keep current state
	}
	r.Status = status
	s.auditRuns[id] = r
	return r, nil
}

func (s *Memory) AnswersByRun(runID string) ([]model.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Answer
	for _, id := range s.answerOrder {
		if a := s.answers[id]; a.AuditRunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Memory) CreateAnswer(a model.Answer) (model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	s.answers[a.ID] = a
	s.answerOrder = append(s.answerOrder, a.ID)
	return a, nil
}

func (s *Memory) Findings() ([]model.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Finding, 0, len(s.findingOrder))
	for _, id := range s.findingOrder {
		if f, ok := s.findings[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Memory) FindingsByRun(runID string) ([]model.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Finding
	for _, id := range s.findingOrder {
		if f := s.findings[id]; f.AuditRunID == runID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Memory) CreateFinding(f model.Finding) (model.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = uuid.NewString()
	s.findings[f.ID] = f
	s.findingOrder = append(s.findingOrder, f.ID)
	return f, nil
}

func (s *Memory) DashboardMetrics() (model.DashboardMetrics, error) {
	findings, _ := s.Findings()
	runs, _ := s.AuditRuns()
	return buildMetrics(findings, runs), nil
}

func (s *Memory) Comparison(baselineID, currentID string) (model.Comparison, error) {
	baseline, err := s.AuditRun(baselineID)
	if err != nil {
		return model.Comparison{}, err
	}
	current, err := s.AuditRun(currentID)
	if err != nil {
		return model.Comparison{}, err
	}
	baseFindings, _ := s.FindingsByRun(baselineID)
	curFindings, _ := s.FindingsByRun(currentID)
	return buildComparison(baseline, current, baseFindings, curFindings), nil
}
