// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "canned", cfg.LLM.Provider)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, "file", cfg.Source.Type)
	assert.Equal(t, "genesis.txt", cfg.Source.Path)
	assert.Equal(t, "file", cfg.Store.Type)
	assert.Equal(t, "identity.json", cfg.Store.Path)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 10, cfg.Telemetry.OTLPTimeoutSeconds)
	assert.Equal(t, "ember", cfg.Telemetry.ServiceName)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.yaml")
	writeFile(t, path, `
llm:
  provider: ollama
  model: llama3.1
  base_url: http://ollama:11434
source:
  type: url
  url: s3://bucket/genesis.txt
store:
  type: sqlite
  path: /var/lib/ember/identity.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "url", cfg.Source.Type)
	assert.Equal(t, "s3://bucket/genesis.txt", cfg.Source.URL)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "info", cfg.Log.Level, "defaults survive partial files")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("EMBER_LLM_PROVIDER", "anthropic")
	t.Setenv("EMBER_LLM_BASE_URL", "http://proxy")
	t.Setenv("EMBER_STORE_PATH", "/tmp/id.yaml")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "http://proxy", cfg.LLM.BaseURL)
	assert.Equal(t, "/tmp/id.yaml", cfg.Store.Path)
}

func TestLoadWithProfile(t *testing.T) {
	tmpDir := t.TempDir()
	basePath := filepath.Join(tmpDir, "config.yaml")
	writeFile(t, basePath, `
llm:
  provider: "ollama"
  model: "llama3.1"
log:
  level: "info"
`)
	writeFile(t, filepath.Join(tmpDir, "config.dev.yaml"), `
llm:
  provider: "canned"
log:
  level: "debug"
`)
	writeFile(t, filepath.Join(tmpDir, "config.prod.yaml"), `
llm:
  provider: "anthropic"
log:
  level: "warn"
`)

	tests := []struct {
		name         string
		profile      string
		wantProvider string
		wantLogLevel string
	}{
		{"no profile - base only", "", "ollama", "info"},
		{"dev profile", "dev", "canned", "debug"},
		{"prod profile", "prod", "anthropic", "warn"},
		{"nonexistent profile - falls back to base", "staging", "ollama", "info"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadWithProfile(basePath, tc.profile)
			require.NoError(t, err)
			assert.Equal(t, tc.wantProvider, cfg.LLM.Provider)
			assert.Equal(t, tc.wantLogLevel, cfg.Log.Level)
			assert.Equal(t, "llama3.1", cfg.LLM.Model, "model is inherited from base")
		})
	}
}

func TestLoadWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, `
llm:
  provider: ollama
  model: model-a
telemetry:
  exporter: stdout
`)
	t.Setenv("EMBER_LLM_PROVIDER", "gemini")

	cfg, err := LoadWithOverrides(path, "", []string{
		"llm.provider=anthropic",
		"llm.temperature=0.1",
		"telemetry.enabled=true",
		"telemetry.otlp_timeout_seconds=3",
		"store.type=memory",
		"source.text=Hello world",
	})
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider, "--set wins over env")
	assert.Equal(t, "model-a", cfg.LLM.Model)
	assert.Equal(t, 0.1, cfg.LLM.Temperature)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 3, cfg.Telemetry.OTLPTimeoutSeconds)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "Hello world", cfg.Source.Text)
}

func TestLoadWithOverridesProfile(t *testing.T) {
	tmpDir := t.TempDir()
	basePath := filepath.Join(tmpDir, "config.yaml")
	writeFile(t, basePath, "llm:\n  provider: \"ollama\"\n")
	writeFile(t, filepath.Join(tmpDir, "config.dev.yaml"), "llm:\n  provider: \"canned\"\n")

	cfg, err := LoadWithOverrides(basePath, "dev", []string{"store.type=sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "canned", cfg.LLM.Provider)
	assert.Equal(t, "sqlite", cfg.Store.Type)
}

func TestLoadWithOverridesKeepsStrings(t *testing.T) {
	cfg, err := LoadWithOverrides("", "", []string{
		"llm.api_key=0123",
		`llm.response={"name":"X","core_values":["a"]}`,
		"source.text=key: value",
		"llm.model=",
	})
	require.NoError(t, err)

	assert.Equal(t, "0123", cfg.LLM.APIKey)
	assert.Equal(t, `{"name":"X","core_values":["a"]}`, cfg.LLM.Response)
	assert.Equal(t, "key: value", cfg.Source.Text)
	assert.Empty(t, cfg.LLM.Model)
}

func TestLoadWithOverridesInvalid(t *testing.T) {
	for _, sets := range [][]string{
		{"no-equals"},
		{"=value"},
		{" =value"},
	} {
		_, err := LoadWithOverrides("", "", sets)
		assert.Error(t, err, "sets %v", sets)
	}
}

func TestParseSetValues(t *testing.T) {
	values, err := parseSetValues([]string{"a=12", "b=true", "c=x=y", "d=", "e=http://localhost:8080"})
	require.NoError(t, err)

	assert.Equal(t, "12", values["a"])
	assert.Equal(t, "true", values["b"])
	assert.Equal(t, "x=y", values["c"])
	assert.Equal(t, "", values["d"])
	assert.Equal(t, "http://localhost:8080", values["e"])
}

func TestProfileConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	devPath := filepath.Join(tmpDir, "config.dev.yaml")
	writeFile(t, devPath, "test")
	basePath := filepath.Join(tmpDir, "config.yaml")

	tests := []struct {
		name     string
		base     string
		profile  string
		wantPath string
	}{
		{"existing profile", basePath, "dev", devPath},
		{"nonexistent profile", basePath, "prod", ""},
		{"empty profile", basePath, "", ""},
		{"empty base", "", "dev", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantPath, profileConfigPath(tc.base, tc.profile))
		})
	}
}
