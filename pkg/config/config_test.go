package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "llm:\n  api_key: sk-test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 15, cfg.L3.MaxIterations)
	assert.Equal(t, 180, cfg.L3.TimeoutSeconds)
	assert.Equal(t, 30, cfg.L3.MaxLLMCalls)
	assert.Equal(t, []string{"./skills"}, cfg.Skills.Dirs)
	assert.Equal(t, []string{"./agents"}, cfg.Agents.Dirs)
}

func TestLoadMissingFileStillValidates(t *testing.T) {
	// A missing file is tolerated at load time, but the bare defaults
	// still fail validation: there is no API key to run with.
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-secret")
	t.Setenv("TEST_LLM_PORT", "9999")
	path := writeConfig(t, `
server:
  port: ${TEST_LLM_PORT}
llm:
  api_key: ${TEST_LLM_KEY}
  model: ${TEST_LLM_MODEL:-gpt-4o-mini}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model, "unset var must take the inline default")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing api key", "llm:\n  model: gpt-4o\n", "api_key"},
		{"port out of range", "server:\n  port: 99999\nllm:\n  api_key: sk\n", "port"},
		{"temperature out of range", "llm:\n  api_key: sk\n  temperature: 3.5\n", "temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandEnvVarsInData(t *testing.T) {
	t.Setenv("TEST_NESTED", "true")

	input := map[string]interface{}{
		"flag": "${TEST_NESTED}",
		"list": []interface{}{"$TEST_NESTED", "plain"},
		"keep": 42,
	}
	out := ExpandEnvVarsInData(input).(map[string]interface{})

	assert.Equal(t, true, out["flag"], "substituted strings are re-typed")
	assert.Equal(t, []interface{}{true, "plain"}, out["list"])
	assert.Equal(t, 42, out["keep"])
}

func TestL3ConfigTimeout(t *testing.T) {
	cfg := L3Config{TimeoutSeconds: 90}
	assert.Equal(t, "1m30s", cfg.Timeout().String())
}
