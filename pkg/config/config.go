// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads ember settings from defaults, a YAML file, an optional
// profile overlay, the environment and command line overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides (EMBER_STORE_PATH -> store.path).
const EnvPrefix = "EMBER_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Source    SourceConfig    `koanf:"source"`
	Store     StoreConfig     `koanf:"store"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // canned, ollama, anthropic, gemini
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Temperature float64 `koanf:"temperature"`
	// Response is returned verbatim by the canned provider. Empty selects
	// the built-in sample identity.
	Response string `koanf:"response"`
}

type SourceConfig struct {
	Type string `koanf:"type"` // file, url, static
	Path string `koanf:"path"`
	URL  string `koanf:"url"`
	Text string `koanf:"text"`
}

type StoreConfig struct {
	Type   string `koanf:"type"` // memory, file, sqlite
	Path   string `koanf:"path"`
	Format string `koanf:"format"` // json, yaml; empty picks by extension
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
	// OTLPTimeoutSeconds bounds each OTLP export. Zero keeps the exporter default.
	OTLPTimeoutSeconds int    `koanf:"otlp_timeout_seconds"`
	ServiceName        string `koanf:"service_name"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log.level":                      "info",
		"log.format":                     "text",
		"llm.provider":                   "canned",
		"llm.model":                      "",
		"llm.base_url":                   "",
		"llm.temperature":                0.7,
		"source.type":                    "file",
		"source.path":                    "genesis.txt",
		"store.type":                     "file",
		"store.path":                     "identity.json",
		"telemetry.enabled":              false,
		"telemetry.exporter":             "stdout",
		"telemetry.otlp_endpoint":        "localhost:4317",
		"telemetry.otlp_insecure":        true,
		"telemetry.otlp_timeout_seconds": 10,
		"telemetry.service_name":         "ember",
	}
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	return load(path, "", nil)
}

// LoadWithProfile loads path and then overlays the profile file next to it
// (config.yaml + "dev" -> config.dev.yaml) when that file exists.
func LoadWithProfile(path, profile string) (*Config, error) {
	return load(path, profile, nil)
}

// LoadWithOverrides is LoadWithProfile plus key=value overrides, as given to
// repeated --set flags. Overrides win over every other layer.
func LoadWithOverrides(path, profile string, overrides []string) (*Config, error) {
	values, err := parseSetValues(overrides)
	if err != nil {
		return nil, err
	}
	return load(path, profile, values)
}

func load(path, profile string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if profilePath := profileConfigPath(path, profile); profilePath != "" {
			if err := k.Load(file.Provider(profilePath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load profile %s: %w", profilePath, err)
			}
		}
	}

	// EMBER_STORE_PATH -> store.path. Only the first underscore after the
	// section separates levels so keys like base_url survive.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("apply override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// profileConfigPath returns the overlay file for profile, or "" when there is
// none on disk.
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	ext := filepath.Ext(base)
	path := strings.TrimSuffix(base, ext) + "." + profile + ext
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// parseSetValues splits key=value pairs. Values stay strings, like
// environment values; Unmarshal converts them to the field types.
func parseSetValues(sets []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(sets))
	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", set)
		}
		values[key] = value
	}
	return values, nil
}
