package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.json"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Gateway.Port)
	assert.Equal(t, "llama3-8b-8192", cfg.Reply.Model)
	assert.Equal(t, 2000, cfg.Relay.PollIntervalMS)
	assert.Contains(t, cfg.Commands.Authorized, "pwd")
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{
		"gateway": {"port": 8080},
		"relay": {"chat_id": "-100555", "topic_id": "12"},
		"channels": {"telegram": {"enabled": true, "token": "t", "allow_from": ["alice", 12345]}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, "-100555", cfg.Relay.ChatID)
	assert.Equal(t, "12", cfg.Relay.TopicID)
	// Untouched sections keep defaults.
	assert.Equal(t, 0.7, cfg.Reply.Temperature)
	// Numeric allow_from entries become strings.
	assert.Equal(t, FlexibleStringSlice{"alice", "12345"}, cfg.Channels.Telegram.AllowFrom)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gateway":{"port":8080}}`), 0o600))

	t.Setenv("PIBOT_GATEWAY_PORT", "9090")
	t.Setenv("PIBOT_PROVIDERS_GROQ_API_KEY", "gk-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Gateway.Port)
	assert.Equal(t, "gk-env", cfg.Providers.Groq.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Relay.ChatID = "-1001"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "-1001", loaded.Relay.ChatID)
}

func TestMergePartialDocument(t *testing.T) {
	cfg := DefaultConfig()

	merged, err := cfg.Merge([]byte(`{"relay":{"chat_id":"-42"},"reply":{"temperature":0.2}}`))
	require.NoError(t, err)

	assert.Equal(t, "-42", merged.Relay.ChatID)
	assert.Equal(t, 0.2, merged.Reply.Temperature)
	assert.Equal(t, 2048, merged.Reply.MaxTokens)
	// Receiver is untouched.
	assert.Empty(t, cfg.Relay.ChatID)

	_, err = cfg.Merge([]byte(`{`))
	assert.Error(t, err)
}

func TestConfigMarshalOmitsEmptySecrets(t *testing.T) {
	data, err := json.Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "api_key")
}
