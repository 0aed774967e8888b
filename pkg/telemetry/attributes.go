// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans and metrics.
const (
	AttrSourceType       = "ember.source.type"
	AttrDiscoveryOutcome = "ember.discovery.outcome"
	AttrDiscoveryReason  = "ember.discovery.reason"
	AttrIdentityID       = "ember.identity.id"
	AttrStoreType        = "ember.store.type"

	// LLM attributes (extending standard gen_ai conventions)
	AttrLLMModel    = "gen_ai.request.model"
	AttrLLMProvider = "gen_ai.system"
)

// OutcomeFailed is the outcome recorded for runs that returned an error.
const OutcomeFailed = "failed"

// ComponentAttributes describes the adapters an orchestrator was built from.
func ComponentAttributes(sourceType, storeType, provider, model string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrSourceType, sourceType),
		attribute.String(AttrStoreType, storeType),
		attribute.String(AttrLLMProvider, provider),
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	return attrs
}
