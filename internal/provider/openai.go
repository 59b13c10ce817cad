package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/tdewaele/bilaudit/internal/model"
)

// openAI asks a live model. Unlike the mocks it is not deterministic, so
// it is only suitable for exploratory runs, never for regression baselines.
// Calls are rate limited; the caller's context bounds each request.
type openAI struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

func newOpenAI(cfg Config) (*openAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &openAI{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   m,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (p *openAI) Name() string { return string(model.ProviderOpenAI) }

func (p *openAI) GetAnswer(ctx context.Context, q model.Question) (Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You answer citizen questions for the municipality of Demoville in %s. "+
					"Cite your sources with a [Source: ...] marker.", languageName(q.Lang)),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: q.Text,
			},
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("openai completion: empty response")
	}

	// A live model cites inline; there is no structured citation channel yet.
	return Response{AnswerText: resp.Choices[0].Message.Content}, nil
}

func languageName(lang model.Language) string {
	if lang == model.LangNL {
		return "Dutch"
	}
	return "French"
}
