// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/ember/pkg/errors"
	"github.com/jllopis/ember/pkg/telemetry"
)

// Recorder receives one observation per discovery run. Outcome is the
// terminal state name, or telemetry.OutcomeFailed with the failure code set.
type Recorder interface {
	RecordDiscovery(ctx context.Context, outcome string, code errors.ErrorCode, elapsed time.Duration)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for transitions and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the generator used for new identity ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithRecorder sets the discovery metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithTracer sets the tracer used for the discovery span.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithSpanAttributes adds attributes to every discovery span.
func WithSpanAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *Orchestrator) {
		o.spanAttrs = append(o.spanAttrs, attrs...)
	}
}

// Orchestrator runs the create-or-load state machine over a Source, a
// Reasoner and a Store.
//
// Calls to Discover on the same Orchestrator are serialized. Runs in other
// processes sharing the store are not coordinated here; stores reject a Save
// into an occupied slot, so the later writer fails with CodePersistError.
type Orchestrator struct {
	source   Source
	reasoner Reasoner
	store    Store

	logger    *slog.Logger
	tracer    trace.Tracer
	recorder  Recorder
	spanAttrs []attribute.KeyValue
	now       func() time.Time
	newID     func() string

	mu sync.Mutex
}

// NewOrchestrator creates an Orchestrator over the given capabilities.
func NewOrchestrator(source Source, reasoner Reasoner, store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:   source,
		reasoner: reasoner,
		store:    store,
		logger:   slog.Default(),
		tracer:   otel.Tracer("ember/identity"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Awaken returns the agent's identity, generating and persisting it if the
// store holds none. See Discover for the error contract.
func (o *Orchestrator) Awaken(ctx context.Context) (*Identity, error) {
	out, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return out.Identity, nil
}

// Discover loads the stored identity or creates a new one.
//
// Terminal failures (empty seed, empty response, unparsable response,
// inconsistent store, rejected save) are returned as *errors.EmberError with
// the matching code and a nil Outcome. Errors returned by the source,
// reasoner or store are passed through unchanged. Nothing is retried.
func (o *Orchestrator) Discover(ctx context.Context) (*Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	attrs := append([]attribute.KeyValue{
		attribute.String(telemetry.AttrSourceType, o.source.Type()),
	}, o.spanAttrs...)
	ctx, span := o.tracer.Start(ctx, "Identity.Discover", trace.WithAttributes(attrs...))
	defer span.End()

	out, err := o.discover(ctx, span)

	outcome, code := telemetry.OutcomeFailed, errors.ErrorCode("")
	switch {
	case err != nil:
		code = errors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		outcome = string(out.State)
		span.SetAttributes(attribute.String(telemetry.AttrIdentityID, out.Identity.ID))
	}
	span.SetAttributes(telemetry.DiscoveryAttributes(outcome, code)...)
	if o.recorder != nil {
		o.recorder.RecordDiscovery(ctx, outcome, code, time.Since(start))
	}
	return out, err
}

func (o *Orchestrator) discover(ctx context.Context, span trace.Span) (*Outcome, error) {
	log := o.logger

	log.InfoContext(ctx, "identity.check_existing")
	span.AddEvent("check_existing")
	exists, err := o.store.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		loaded, err := o.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			return nil, o.fail(ctx, errors.New(errors.CodeStoreInconsistency,
				"store reports an identity but returned none", nil))
		}
		log.InfoContext(ctx, "identity.loaded",
			slog.String("identity_id", loaded.ID),
			slog.String("name", loaded.Name),
		)
		return &Outcome{Identity: loaded, State: StateReturnExisting}, nil
	}

	log.InfoContext(ctx, "identity.generate.start", slog.String("source_type", o.source.Type()))
	span.AddEvent("generate")
	seed, err := o.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if seed == "" {
		return nil, o.fail(ctx, errors.New(errors.CodeEmptySource,
			"seed source returned no content", nil).
			WithContext("source_type", o.source.Type()))
	}
	log.InfoContext(ctx, "identity.seed.loaded", slog.Int("chars", len(seed)))

	raw, err := o.reasoner.Generate(ctx, SystemInstruction, seed)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, o.fail(ctx, errors.New(errors.CodeEmptyResponse,
			"reasoning backend returned an empty response", nil))
	}
	log.InfoContext(ctx, "identity.response.received", slog.Int("chars", len(raw)))

	span.AddEvent("validate")
	id, err := ParseResponse(raw)
	if err != nil {
		return nil, o.fail(ctx, errors.New(errors.CodeParseError,
			"reasoning response is not a JSON object", err).
			WithContext("raw_response", raw))
	}
	if missing := missingKeys(id); len(missing) > 0 {
		log.WarnContext(ctx, "identity.response.incomplete", slog.Any("missing_keys", missing))
	}

	id.ID = o.newID()
	id.CreatedAt = o.now()
	id.GenesisSourceType = o.source.Type()

	span.AddEvent("persist")
	log.InfoContext(ctx, "identity.persist",
		slog.String("identity_id", id.ID),
		slog.String("name", id.Name),
	)
	saved, err := o.store.Save(ctx, id)
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, o.fail(ctx, errors.New(errors.CodePersistError,
			"store rejected the new identity", nil).
			WithContext("identity_id", id.ID))
	}

	log.InfoContext(ctx, "identity.created", slog.String("identity_id", id.ID))
	return &Outcome{Identity: id, State: StateReturnNew}, nil
}

func (o *Orchestrator) fail(ctx context.Context, ee *errors.EmberError) error {
	attrs := []any{
		slog.String("reason", string(ee.Code)),
		slog.String("error", ee.Error()),
	}
	for key, value := range ee.Context {
		attrs = append(attrs, slog.Any(key, value))
	}
	o.logger.ErrorContext(ctx, "identity.discover.failed", attrs...)
	return ee
}
