package seed

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/provider"
)

// Seed file formats use snake_case keys, unlike the API's camelCase.

type factSeed struct {
	Key          string         `json:"key"`
	Lang         model.Language `json:"lang"`
	Value        string         `json:"value"`
	SourceRef    string         `json:"source_ref"`
	LastVerified string         `json:"last_verified"`
	Topic        string         `json:"topic"`
}

type questionSeed struct {
	Lang             model.Language `json:"lang"`
	Topic            string         `json:"topic"`
	RiskTag          model.RiskTag  `json:"risk_tag"`
	Text             string         `json:"text"`
	ExpectedFactKeys []string       `json:"expected_fact_keys"`
}

type questionSetSeed struct {
	Title     string           `json:"title"`
	Languages []model.Language `json:"languages"`
	Topics    []string         `json:"topics"`
	Version   string           `json:"version"`
	Questions []questionSeed   `json:"questions"`
}

type mockAnswerSeed struct {
	AnswerText string   `json:"answer_text"`
	Citations  []string `json:"citations"`
}

// LoadFacts reads data/facts/facts_seed_v2.json. A missing or broken
// file is not an error; callers fall back to the built-in dataset.
func LoadFacts(dataDir string, log *slog.Logger) ([]model.Fact, bool) {
	path := filepath.Join(dataDir, "facts", "facts_seed_v2.json")
	var seeds []factSeed
	if !readJSON(path, &seeds, log) {
		return nil, false
	}
	out := make([]model.Fact, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, model.Fact{
			Key:          s.Key,
			Lang:         s.Lang,
			Value:        s.Value,
			SourceRef:    s.SourceRef,
			LastVerified: s.LastVerified,
			Topic:        s.Topic,
		})
	}
	return out, true
}

// LoadQuestionSet reads data/question_sets/question_set_demoville_fr_nl_v2.json
func LoadQuestionSet(dataDir string, log *slog.Logger) (model.QuestionSet, []model.Question, bool) {
	path := filepath.Join(dataDir, "question_sets", "question_set_demoville_fr_nl_v2.json")
	var s questionSetSeed
	if !readJSON(path, &s, log) {
		return model.QuestionSet{}, nil, false
	}
	set := model.QuestionSet{
		Title:     s.Title,
		Languages: s.Languages,
		Topics:    s.Topics,
		Version:   s.Version,
	}
	questions := make([]model.Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, model.Question{
			Lang:             q.Lang,
			Topic:            q.Topic,
			RiskTag:          q.RiskTag,
			Text:             q.Text,
			ExpectedFactKeys: q.ExpectedFactKeys,
		})
	}
	return set, questions, true
}

// LoadMockAnswers reads the per-provider mock answer file from
// data/mock/. Keys are "fact_key|lang". Missing file means the mock
// provider serves its built-in answers only.
func LoadMockAnswers(dataDir string, id model.ProviderID, log *slog.Logger) map[string]provider.Response {
	name := "mock_llm_answers_baseline.json"
	if id == model.ProviderMockAfter {
		name = "mock_llm_answers_after.json"
	}
	path := filepath.Join(dataDir, "mock", name)
	var seeds map[string]mockAnswerSeed
	if !readJSON(path, &seeds, log) {
		return nil
	}
	out := make(map[string]provider.Response, len(seeds))
	for key, s := range seeds {
		out[key] = provider.Response{AnswerText: s.AnswerText, Citations: s.Citations}
	}
	return out
}

func readJSON(path string, v any, log *slog.Logger) bool {
	if log == nil {
		log = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("seed file unreadable", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn("seed file invalid, ignoring", "path", path, "error", err)
		return false
	}
	return true
}
