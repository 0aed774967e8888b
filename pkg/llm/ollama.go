package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultOllamaURL is the address of a local Ollama daemon.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultOllamaModel is used when neither the request nor the provider names a model.
	DefaultOllamaModel = "llama3.1"
)

// OllamaProvider implements Provider over the Ollama /api/chat endpoint.
// Responses are requested unstreamed so one Chat call maps to one HTTP call.
type OllamaProvider struct {
	baseURL   string
	model     string
	keepAlive string
	client    *http.Client
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaModel sets the model used when a request leaves Model empty.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOllamaHTTPClient replaces the HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithOllamaKeepAlive sets how long the daemon keeps the model loaded after
// a call, in Ollama duration syntax ("5m", "0").
func WithOllamaKeepAlive(d string) OllamaOption {
	return func(p *OllamaProvider) { p.keepAlive = d }
}

// NewOllama creates an OllamaProvider for baseURL, or DefaultOllamaURL when empty.
func NewOllama(baseURL string, opts ...OllamaOption) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   DefaultOllamaModel,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type ollamaChatRequest struct {
	Model     string         `json:"model"`
	Messages  []Message      `json:"messages"`
	Stream    bool           `json:"stream"`
	Format    string         `json:"format,omitempty"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason,omitempty"`
	EvalCount       int     `json:"eval_count"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	Error           string  `json:"error,omitempty"`
}

// Chat sends req to Ollama. JSON requests set format "json" so the daemon
// constrains decoding to a JSON value.
func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request to %s: %w", p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama: %s", out.Error)
	}
	if !out.Done {
		return nil, fmt.Errorf("ollama returned an unfinished response for model %s", out.Model)
	}

	return &ChatResponse{
		Content: out.Message.Content,
		Usage: Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

func (p *OllamaProvider) buildRequest(req ChatRequest) ollamaChatRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}
	out := ollamaChatRequest{
		Model:     model,
		Messages:  req.Messages,
		KeepAlive: p.keepAlive,
	}
	if req.JSON {
		out.Format = "json"
	}
	if req.Temperature != 0 {
		t := req.Temperature
		out.Options = &ollamaOptions{Temperature: &t}
	}
	return out
}

// statusError reports a non-200 reply, preferring the daemon's own error text.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, msg)
}
