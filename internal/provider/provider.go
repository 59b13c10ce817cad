// Package provider supplies answers to audit questions. The two mock
// providers return deterministic canned answers keyed by the question's
// first expected fact key; the openai provider is the live-LLM variant
// behind the same interface.
package provider

import (
	"context"
	"fmt"

	"github.com/tdewaele/bilaudit/internal/model"
)

// Response is one provider answer to one question
type Response struct {
	AnswerText string   `json:"answer_text"`
	Citations  []string `json:"citations"`
}

// Provider answers audit questions. Implementations must be deterministic
// per (provider identity, question id) unless they call a live model.
// GetAnswer takes a context so a timeout can be enforced at this boundary.
type Provider interface {
	Name() string
	GetAnswer(ctx context.Context, q model.Question) (Response, error)
}

// Config holds provider construction options
type Config struct {
	// MockOverrides overrides the built-in canned answers per mock
	// provider, keyed by MockAnswerKey. Nil keeps the defaults.
	MockOverrides map[model.ProviderID]map[string]Response

	// OpenAI settings, used only by the openai provider
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerSecond float64
}

// New creates a provider for the given identifier
func New(id model.ProviderID, cfg Config) (Provider, error) {
	switch id {
	case model.ProviderMockBaseline:
		return newMock(id, baselineAnswers, cfg.MockOverrides[id]), nil

	case model.ProviderMockAfter:
		return newMock(id, afterAnswers, cfg.MockOverrides[id]), nil

	case model.ProviderOpenAI:
		return newOpenAI(cfg)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: mock-baseline, mock-after, openai)", id)
	}
}

// MockAnswerKey is the canned-answer lookup key for a fact key and language
func MockAnswerKey(factKey string, lang model.Language) string {
	return factKey + "|" + string(lang)
}
