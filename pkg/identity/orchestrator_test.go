// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jllopis/ember/pkg/errors"
	"github.com/jllopis/ember/pkg/telemetry"
)

const helloResponse = `{"name":"X","persona_summary":"s","core_values":["a"],"communication_style":"c","primary_purpose":"p","interests":["i"]}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(src Source, r Reasoner, st Store, opts ...Option) *Orchestrator {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return NewOrchestrator(src, r, st, opts...)
}

func TestDiscoverReturnsExistingIdentity(t *testing.T) {
	existing := &Identity{ID: "12345", Name: "ExistingAI"}
	src := &fakeSource{text: "seed"}
	reasoner := &fakeReasoner{response: helloResponse}
	store := &fakeStore{exists: true, loaded: existing}

	out, err := newTestOrchestrator(src, reasoner, store).Discover(context.Background())
	require.NoError(t, err)

	assert.Same(t, existing, out.Identity)
	assert.Equal(t, StateReturnExisting, out.State)
	assert.False(t, out.Created())
	assert.Equal(t, 1, store.loadCalls)
	assert.Zero(t, src.calls)
	assert.Zero(t, reasoner.calls)
	assert.Empty(t, store.saved)
}

func TestDiscoverStoreInconsistency(t *testing.T) {
	src := &fakeSource{text: "seed"}
	reasoner := &fakeReasoner{response: helloResponse}
	store := &fakeStore{exists: true}

	out, err := newTestOrchestrator(src, reasoner, store).Discover(context.Background())

	assert.Nil(t, out)
	assert.True(t, stderrors.Is(err, errors.Code(errors.CodeStoreInconsistency)))
	assert.Zero(t, src.calls)
	assert.Zero(t, reasoner.calls)
	assert.Empty(t, store.saved)
}

func TestDiscoverFailures(t *testing.T) {
	tests := []struct {
		name          string
		seed          string
		response      string
		saveResult    bool
		wantCode      errors.ErrorCode
		wantGenerate  int
		wantSaveCalls int
	}{
		{
			name:     "empty seed",
			seed:     "",
			response: helloResponse,
			wantCode: errors.CodeEmptySource,
		},
		{
			name:         "empty response",
			seed:         "Some genesis data.",
			response:     "",
			wantCode:     errors.CodeEmptyResponse,
			wantGenerate: 1,
		},
		{
			name:         "response is not json",
			seed:         "Some genesis data.",
			response:     "not json",
			wantCode:     errors.CodeParseError,
			wantGenerate: 1,
		},
		{
			name:         "response is a json array",
			seed:         "Some genesis data.",
			response:     `["name","X"]`,
			wantCode:     errors.CodeParseError,
			wantGenerate: 1,
		},
		{
			name:          "store rejects save",
			seed:          "Valid genesis content.",
			response:      `{"name":"SaveFailAI","primary_purpose":"To test save failures."}`,
			saveResult:    false,
			wantCode:      errors.CodePersistError,
			wantGenerate:  1,
			wantSaveCalls: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{text: tc.seed}
			reasoner := &fakeReasoner{response: tc.response}
			store := &fakeStore{saveResult: tc.saveResult}

			id, err := newTestOrchestrator(src, reasoner, store).Awaken(context.Background())

			assert.Nil(t, id)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, errors.CodeOf(err))
			assert.True(t, errors.IsFailure(err))
			assert.Equal(t, tc.wantGenerate, reasoner.calls)
			assert.Len(t, store.saved, tc.wantSaveCalls)
		})
	}
}

func TestDiscoverParseErrorKeepsRawResponse(t *testing.T) {
	store := &fakeStore{}
	_, err := newTestOrchestrator(&fakeSource{text: "seed"}, &fakeReasoner{response: "This is definitely not valid JSON."}, store).
		Discover(context.Background())

	ee := errors.AsEmberError(err)
	require.NotNil(t, ee)
	assert.Equal(t, errors.CodeParseError, ee.Code)
	assert.Equal(t, "This is definitely not valid JSON.", ee.Context["raw_response"])
	assert.NotNil(t, ee.Err, "decode error should be preserved as cause")
}

func TestDiscoverCreatesIdentity(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	src := &fakeSource{text: "Hello world"}
	reasoner := &fakeReasoner{response: helloResponse}
	store := &fakeStore{saveResult: true}

	o := newTestOrchestrator(src, reasoner, store,
		WithClock(func() time.Time { return created }),
		WithIDGenerator(func() string { return "id-1" }),
	)
	out, err := o.Discover(context.Background())
	require.NoError(t, err)

	want := &Identity{
		ID:                 "id-1",
		Name:               "X",
		PersonaSummary:     "s",
		CoreValues:         []string{"a"},
		CommunicationStyle: "c",
		PrimaryPurpose:     "p",
		Interests:          []string{"i"},
		CreatedAt:          created,
		GenesisSourceType:  "fake",
	}
	assert.Equal(t, want, out.Identity)
	assert.Equal(t, StateReturnNew, out.State)
	assert.True(t, out.Created())

	require.Len(t, store.saved, 1)
	assert.Equal(t, want, store.saved[0])

	assert.Equal(t, SystemInstruction, reasoner.system)
	assert.Equal(t, "Hello world", reasoner.payload)
	assert.Equal(t, 1, src.calls)
}

func TestDiscoverPersistsObjectsWithLooseFieldTypes(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Identity
	}{
		{
			name:     "string core_values",
			response: `{"name":"Kairo","core_values":"honesty, care"}`,
			want:     Identity{Name: "Kairo"},
		},
		{
			name:     "mixed array",
			response: `{"core_values":["a",1],"interests":["maps"]}`,
			want:     Identity{Interests: []string{"maps"}},
		},
		{
			name:     "numeric name",
			response: `{"name":7,"primary_purpose":"p"}`,
			want:     Identity{PrimaryPurpose: "p"},
		},
		{
			name:     "unknown keys",
			response: `{"name":"X","mood":"calm","traits":{"warmth":0.9}}`,
			want:     Identity{Name: "X"},
		},
		{
			name:     "empty object",
			response: `{}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{saveResult: true}
			o := newTestOrchestrator(&fakeSource{text: "seed"}, &fakeReasoner{response: tc.response}, store,
				WithIDGenerator(func() string { return "id-1" }),
			)

			out, err := o.Discover(context.Background())
			require.NoError(t, err)
			require.Len(t, store.saved, 1)

			got := out.Identity.Clone()
			got.ID, got.CreatedAt, got.GenesisSourceType = "", time.Time{}, ""
			assert.Equal(t, &tc.want, got)
			assert.Equal(t, "id-1", store.saved[0].ID)
			assert.Equal(t, "fake", store.saved[0].GenesisSourceType)
		})
	}
}

func TestDiscoverSpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	o := newTestOrchestrator(&fakeSource{text: "seed"}, &fakeReasoner{response: helloResponse}, &slotStore{},
		WithTracer(tp.Tracer("test")),
		WithIDGenerator(func() string { return "id-1" }),
		WithSpanAttributes(attribute.String(telemetry.AttrStoreType, "memory")),
	)
	_, err := o.Discover(context.Background())
	require.NoError(t, err)
	_, err = newTestOrchestrator(&fakeSource{}, &fakeReasoner{}, &fakeStore{},
		WithTracer(tp.Tracer("test")),
	).Discover(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	created := spanAttributes(spans[0])
	assert.Equal(t, "Identity.Discover", spans[0].Name())
	assert.Equal(t, "fake", created[telemetry.AttrSourceType])
	assert.Equal(t, "memory", created[telemetry.AttrStoreType])
	assert.Equal(t, string(StateReturnNew), created[telemetry.AttrDiscoveryOutcome])
	assert.Equal(t, "id-1", created[telemetry.AttrIdentityID])

	failed := spanAttributes(spans[1])
	assert.Equal(t, telemetry.OutcomeFailed, failed[telemetry.AttrDiscoveryOutcome])
	assert.Equal(t, string(errors.CodeEmptySource), failed[telemetry.AttrDiscoveryReason])
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[string]string {
	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

func TestDiscoverDefaultIDAndTimestamp(t *testing.T) {
	store := &fakeStore{saveResult: true}
	o := newTestOrchestrator(&fakeSource{text: "Hello world"}, &fakeReasoner{response: helloResponse}, store)

	first, err := o.Awaken(context.Background())
	require.NoError(t, err)
	second, err := o.Awaken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "X", first.Name)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID, "each creation mints a new id")

	stamp := first.CreatedAt.Format(time.RFC3339Nano)
	parsed, err := time.Parse(time.RFC3339Nano, stamp)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(first.CreatedAt))
}

func TestDiscoverOverridesOwnedFields(t *testing.T) {
	response := "```json\n" + `{"id":"from-model","created_at":"yesterday","genesis_source_type":"model","name":"Kairo"}` + "\n```"
	store := &fakeStore{saveResult: true}
	o := newTestOrchestrator(&fakeSource{text: "seed"}, &fakeReasoner{response: response}, store,
		WithIDGenerator(func() string { return "minted" }))

	id, err := o.Awaken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "minted", id.ID)
	assert.Equal(t, "fake", id.GenesisSourceType)
	assert.False(t, id.CreatedAt.IsZero())
	assert.Equal(t, "Kairo", id.Name)
	assert.Empty(t, id.CoreValues, "missing keys stay absent")
}

func TestDiscoverIsIdempotentWithPersistentStore(t *testing.T) {
	src := &fakeSource{text: "Hello world"}
	reasoner := &fakeReasoner{response: helloResponse}
	store := &slotStore{}

	var minted int
	o := newTestOrchestrator(src, reasoner, store, WithIDGenerator(func() string {
		minted++
		return "id-" + string(rune('0'+minted))
	}))

	first, err := o.Discover(context.Background())
	require.NoError(t, err)
	second, err := o.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateReturnNew, first.State)
	assert.Equal(t, StateReturnExisting, second.State)
	assert.Equal(t, first.Identity, second.Identity)
	assert.Equal(t, 1, minted)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, reasoner.calls)
	assert.Equal(t, 1, store.saves)
}

func TestDiscoverPropagatesAdapterFaults(t *testing.T) {
	fault := stderrors.New("disk unplugged")

	tests := []struct {
		name     string
		src      *fakeSource
		reasoner *fakeReasoner
		store    *fakeStore
	}{
		{"exists", &fakeSource{text: "s"}, &fakeReasoner{response: helloResponse}, &fakeStore{existsErr: fault}},
		{"load", &fakeSource{text: "s"}, &fakeReasoner{response: helloResponse}, &fakeStore{exists: true, loadErr: fault}},
		{"fetch", &fakeSource{err: fault}, &fakeReasoner{response: helloResponse}, &fakeStore{}},
		{"generate", &fakeSource{text: "s"}, &fakeReasoner{err: fault}, &fakeStore{}},
		{"save", &fakeSource{text: "s"}, &fakeReasoner{response: helloResponse}, &fakeStore{saveErr: fault}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := newTestOrchestrator(tc.src, tc.reasoner, tc.store).Discover(context.Background())
			assert.Nil(t, out)
			assert.Same(t, fault, err)
			assert.False(t, errors.IsFailure(err))
		})
	}
}

func TestDiscoverSerializesConcurrentCalls(t *testing.T) {
	store := &slotStore{}
	o := newTestOrchestrator(&fakeSource{text: "seed"}, &fakeReasoner{response: helloResponse}, store)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*Identity, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := o.Awaken(context.Background())
			assert.NoError(t, err)
			results[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.saves)
	for _, id := range results {
		require.NotNil(t, id)
		assert.Equal(t, results[0].ID, id.ID)
	}
}

type recordedRun struct {
	outcome string
	code    errors.ErrorCode
}

type captureRecorder struct {
	runs []recordedRun
}

func (r *captureRecorder) RecordDiscovery(_ context.Context, outcome string, code errors.ErrorCode, _ time.Duration) {
	r.runs = append(r.runs, recordedRun{outcome: outcome, code: code})
}

func TestDiscoverRecordsOutcome(t *testing.T) {
	rec := &captureRecorder{}
	store := &slotStore{}
	o := newTestOrchestrator(&fakeSource{text: "seed"}, &fakeReasoner{response: helloResponse}, store, WithRecorder(rec))
	_, _ = o.Discover(context.Background())
	_, _ = o.Discover(context.Background())

	failing := newTestOrchestrator(&fakeSource{}, &fakeReasoner{}, &fakeStore{}, WithRecorder(rec))
	_, _ = failing.Discover(context.Background())

	assert.Equal(t, []recordedRun{
		{outcome: "return_new"},
		{outcome: "return_existing"},
		{outcome: "failed", code: errors.CodeEmptySource},
	}, rec.runs)
}

func TestDiscoverLogsFailureReason(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	o := NewOrchestrator(&fakeSource{text: "seed"}, &fakeReasoner{response: "nope"}, &fakeStore{}, WithLogger(logger))

	_, err := o.Discover(context.Background())
	require.Error(t, err)

	assert.Contains(t, buf.String(), "identity.discover.failed")
	assert.Contains(t, buf.String(), "reason=PARSE_ERROR")
	assert.Contains(t, buf.String(), "raw_response=nope")
}
