// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fence markers removed from the edges of a reasoning response. Only one
// leading and one trailing marker is stripped; anything inside is kept.
var (
	leadingFences = []string{"```json", "```JSON", "```"}
	trailingFence = "```"
)

// StripFences removes one enclosing code-fence marker from each end of raw.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	for _, fence := range leadingFences {
		if strings.HasPrefix(s, fence) {
			s = strings.TrimPrefix(s, fence)
			break
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, trailingFence)
	return strings.TrimSpace(s)
}

// ParseResponse strips fences from raw and decodes it as a JSON object.
// Being an object is the only requirement. Missing keys and keys whose value
// has the wrong type are left at their zero value; unknown keys are ignored.
func ParseResponse(raw string) (*Identity, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripFences(raw)), &fields); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode response: not a JSON object")
	}

	id := &Identity{}
	decodeField(fields, "name", &id.Name)
	decodeField(fields, "persona_summary", &id.PersonaSummary)
	decodeField(fields, "core_values", &id.CoreValues)
	decodeField(fields, "communication_style", &id.CommunicationStyle)
	decodeField(fields, "primary_purpose", &id.PrimaryPurpose)
	decodeField(fields, "interests", &id.Interests)
	return id, nil
}

// decodeField sets dst from fields[key]. A value of the wrong type leaves dst
// untouched so the key reads as missing.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

// missingKeys returns the requested keys absent from a decoded identity.
func missingKeys(id *Identity) []string {
	present := map[string]bool{
		"name":                id.Name != "",
		"persona_summary":     id.PersonaSummary != "",
		"core_values":         len(id.CoreValues) > 0,
		"communication_style": id.CommunicationStyle != "",
		"primary_purpose":     id.PrimaryPurpose != "",
		"interests":           len(id.Interests) > 0,
	}
	var missing []string
	for _, key := range identityKeys {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	return missing
}
