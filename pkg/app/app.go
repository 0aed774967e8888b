// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package app wires configuration into concrete ember components.
// This is the composition root: sources, reasoners, stores and the
// orchestrator are created and connected here.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/jllopis/ember/pkg/config"
	"github.com/jllopis/ember/pkg/errors"
	"github.com/jllopis/ember/pkg/identity"
	"github.com/jllopis/ember/pkg/llm"
	"github.com/jllopis/ember/pkg/llm/anthropic"
	"github.com/jllopis/ember/pkg/llm/gemini"
	"github.com/jllopis/ember/pkg/mcp"
	"github.com/jllopis/ember/pkg/source"
	"github.com/jllopis/ember/pkg/store"
	"github.com/jllopis/ember/pkg/telemetry"
)

// App holds the wired components for one configuration.
type App struct {
	cfg          *config.Config
	version      string
	logger       *slog.Logger
	source       identity.Source
	store        identity.Store
	orchestrator *identity.Orchestrator
	closers      []func(context.Context) error
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	version   string
	logOutput io.Writer
	logger    *slog.Logger
}

// WithVersion sets the version reported to telemetry and MCP clients.
func WithVersion(version string) Option {
	return func(o *appOptions) { o.version = version }
}

// WithLogOutput sets where logs are written. Defaults to os.Stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *appOptions) { o.logOutput = w }
}

// WithLogger replaces the configured logger entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) { o.logger = logger }
}

// New creates an App with all components wired from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := appOptions{version: "dev", logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = telemetry.ConfigureSlog(o.logOutput, cfg.Log.Level, cfg.Log.Format)
	}

	a := &App{cfg: cfg, version: o.version, logger: logger}

	var recorder identity.Recorder
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig(cfg.Telemetry.ServiceName, o.version, telemetry.Config{
			Exporter:           cfg.Telemetry.Exporter,
			OTLPEndpoint:       cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure:       cfg.Telemetry.OTLPInsecure,
			OTLPTimeoutSeconds: cfg.Telemetry.OTLPTimeoutSeconds,
			Writer:             o.logOutput,
		})
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		a.closers = append(a.closers, shutdown)

		metrics, err := telemetry.NewDiscoveryMetrics()
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("create discovery metrics: %w", err)
		}
		recorder = metrics
	}

	src, err := NewSource(cfg.Source)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.source = src

	reasoner, err := NewReasoner(ctx, cfg.LLM, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	st, err := NewStore(cfg.Store)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.store = st
	if closer, ok := st.(io.Closer); ok {
		a.closers = append(a.closers, func(context.Context) error { return closer.Close() })
	}

	orchOpts := []identity.Option{
		identity.WithLogger(logger),
		identity.WithTracer(otel.Tracer("ember/identity")),
		identity.WithSpanAttributes(telemetry.ComponentAttributes(
			src.Type(), cfg.Store.Type, cfg.LLM.Provider, cfg.LLM.Model)...),
	}
	if recorder != nil {
		orchOpts = append(orchOpts, identity.WithRecorder(recorder))
	}
	a.orchestrator = identity.NewOrchestrator(src, reasoner, st, orchOpts...)

	logger.Debug("app.wired",
		slog.String("source_type", cfg.Source.Type),
		slog.String("store_type", cfg.Store.Type),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.Bool("telemetry", cfg.Telemetry.Enabled),
	)
	return a, nil
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Orchestrator returns the wired orchestrator.
func (a *App) Orchestrator() *identity.Orchestrator { return a.orchestrator }

// Store returns the wired identity store.
func (a *App) Store() identity.Store { return a.store }

// Discover runs identity discovery.
func (a *App) Discover(ctx context.Context) (*identity.Outcome, error) {
	return a.orchestrator.Discover(ctx)
}

// Current returns the persisted identity without generating one. It fails
// with CodeNotFound when the store is empty.
func (a *App) Current(ctx context.Context) (*identity.Identity, error) {
	return LoadCurrent(ctx, a.store, a.cfg.Store)
}

// LoadCurrent loads the identity held by st, built from cfg. It fails with
// CodeNotFound when the store is empty.
func LoadCurrent(ctx context.Context, st identity.Store, cfg config.StoreConfig) (*identity.Identity, error) {
	id, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, errors.New(errors.CodeNotFound, "no identity has been created yet", nil).
			WithContext("store_type", cfg.Type).
			WithContext("store_path", cfg.Path)
	}
	return id, nil
}

// MCPServer builds an MCP server over the wired orchestrator and store.
func (a *App) MCPServer() *mcp.Server {
	return mcp.NewServer("ember", a.version, a.orchestrator, a.store, mcp.WithLogger(a.logger))
}

// Close releases the store and flushes telemetry, in reverse creation order.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// NewSource builds the seed source named by cfg.Type.
func NewSource(cfg config.SourceConfig) (identity.Source, error) {
	switch cfg.Type {
	case source.TypeFile:
		f, err := source.NewFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case source.TypeURL:
		location := cfg.URL
		if location == "" {
			location = cfg.Path
		}
		if location == "" {
			return nil, errors.New(errors.CodeInvalidInput, "url source needs source.url", nil)
		}
		return source.NewURL(location), nil
	case source.TypeStatic:
		return source.NewStatic(cfg.Text), nil
	default:
		return nil, errors.New(errors.CodeInvalidInput, "unknown source type", nil).
			WithContext("source_type", cfg.Type)
	}
}

// NewReasoner builds the reasoner named by cfg.Provider.
func NewReasoner(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (identity.Reasoner, error) {
	var provider llm.Provider
	switch cfg.Provider {
	case "canned", "mock":
		return llm.NewCanned(cfg.Response), nil
	case "ollama":
		provider = llm.NewOllama(cfg.BaseURL, llm.WithOllamaModel(cfg.Model))
	case "anthropic":
		provider = anthropic.New(
			anthropic.WithAPIKey(cfg.APIKey),
			anthropic.WithBaseURL(cfg.BaseURL),
			anthropic.WithModel(cfg.Model),
		)
	case "gemini":
		p, err := gemini.New(ctx, cfg.APIKey, cfg.BaseURL, gemini.WithModel(cfg.Model))
		if err != nil {
			return nil, errors.New(errors.CodeLLMError, "create gemini client", err)
		}
		provider = p
	default:
		return nil, errors.New(errors.CodeInvalidInput, "unknown llm provider", nil).
			WithContext("provider", cfg.Provider)
	}
	return llm.NewReasoner(provider,
		llm.WithProviderName(cfg.Provider),
		llm.WithModel(cfg.Model),
		llm.WithTemperature(cfg.Temperature),
		llm.WithJSONOutput(true),
		llm.WithLogger(logger),
	), nil
}

// NewStore builds the identity store named by cfg.Type.
func NewStore(cfg config.StoreConfig) (identity.Store, error) {
	switch cfg.Type {
	case "memory":
		return store.NewInMemory(), nil
	case "file":
		if cfg.Path == "" {
			return nil, errors.New(errors.CodeInvalidInput, "file store needs store.path", nil)
		}
		var opts []store.FileOption
		switch cfg.Format {
		case "":
		case string(store.FormatJSON), string(store.FormatYAML):
			opts = append(opts, store.WithFormat(store.Format(cfg.Format)))
		default:
			return nil, errors.New(errors.CodeInvalidInput, "unknown store format", nil).
				WithContext("format", cfg.Format)
		}
		return store.NewFileStore(cfg.Path, opts...), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, errors.New(errors.CodeInvalidInput, "sqlite store needs store.path", nil)
		}
		s, err := store.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New(errors.CodeInvalidInput, "unknown store type", nil).
			WithContext("store_type", cfg.Type)
	}
}
