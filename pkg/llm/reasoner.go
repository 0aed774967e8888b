package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/jllopis/ember/pkg/errors"
)

// Reasoner adapts a Provider to identity.Reasoner. Each Generate call sends
// the system instruction and the payload as a two-message chat.
type Reasoner struct {
	provider    Provider
	name        string
	model       string
	temperature float64
	json        bool
	logger      *slog.Logger
}

// ReasonerOption configures a Reasoner.
type ReasonerOption func(*Reasoner)

// WithModel sets the model requested from the provider.
func WithModel(model string) ReasonerOption {
	return func(r *Reasoner) { r.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ReasonerOption {
	return func(r *Reasoner) { r.temperature = t }
}

// WithJSONOutput asks the provider to constrain output to JSON when it can.
func WithJSONOutput(enabled bool) ReasonerOption {
	return func(r *Reasoner) { r.json = enabled }
}

// WithProviderName sets the provider name used in logs and errors.
func WithProviderName(name string) ReasonerOption {
	return func(r *Reasoner) { r.name = name }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ReasonerOption {
	return func(r *Reasoner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReasoner creates a Reasoner over provider.
func NewReasoner(provider Provider, opts ...ReasonerOption) *Reasoner {
	r := &Reasoner{
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate implements identity.Reasoner.
func (r *Reasoner) Generate(ctx context.Context, systemInstruction, payload string) (string, error) {
	start := time.Now()
	resp, err := r.provider.Chat(ctx, ChatRequest{
		Model: r.model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemInstruction},
			{Role: RoleUser, Content: payload},
		},
		Temperature: r.temperature,
		JSON:        r.json,
	})
	if err != nil {
		return "", errors.New(errors.CodeLLMError, "chat request failed", err).
			WithContext("provider", r.name).
			WithContext("model", r.model)
	}
	if resp == nil {
		return "", nil
	}
	r.logger.DebugContext(ctx, "llm.chat.complete",
		slog.String("provider", r.name),
		slog.String("model", r.model),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
		slog.Duration("duration", time.Since(start)),
	)
	return resp.Content, nil
}
