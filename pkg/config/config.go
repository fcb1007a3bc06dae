package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Providers ProvidersConfig `json:"providers"`
	Reply     ReplyConfig     `json:"reply"`
	Channels  ChannelsConfig  `json:"channels"`
	Relay     RelayConfig     `json:"relay"`
	Commands  CommandsConfig  `json:"commands"`
	LogFile   string          `env:"PIBOT_LOG_FILE" json:"log_file"`
}

type GatewayConfig struct {
	Host string `env:"PIBOT_GATEWAY_HOST" json:"host"`
	Port int    `env:"PIBOT_GATEWAY_PORT" json:"port"`
	// APIKey enables bearer token auth on the API when non-empty.
	APIKey string `env:"PIBOT_GATEWAY_API_KEY" json:"api_key,omitempty"`
}

type ProvidersConfig struct {
	Groq      ProviderConfig `envPrefix:"PIBOT_PROVIDERS_GROQ_"      json:"groq"`
	Anthropic ProviderConfig `envPrefix:"PIBOT_PROVIDERS_ANTHROPIC_" json:"anthropic"`
}

type ProviderConfig struct {
	APIKey  string `env:"API_KEY"  json:"api_key,omitempty"`
	APIBase string `env:"API_BASE" json:"api_base,omitempty"`
}

// ReplyConfig controls the model used for generated replies, both for the
// /api/generate endpoint and for platform auto-replies.
type ReplyConfig struct {
	Model       string  `env:"PIBOT_REPLY_MODEL"       json:"model"`
	Temperature float64 `env:"PIBOT_REPLY_TEMPERATURE" json:"temperature"`
	MaxTokens   int     `env:"PIBOT_REPLY_MAX_TOKENS"  json:"max_tokens"`
	Persona     string  `env:"PIBOT_REPLY_PERSONA"     json:"persona,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Enabled   bool                `env:"PIBOT_CHANNELS_TELEGRAM_ENABLED"    json:"enabled"`
	Token     string              `env:"PIBOT_CHANNELS_TELEGRAM_TOKEN"      json:"token"`
	AllowFrom FlexibleStringSlice `env:"PIBOT_CHANNELS_TELEGRAM_ALLOW_FROM" json:"allow_from"`
}

type DiscordConfig struct {
	Enabled   bool                `env:"PIBOT_CHANNELS_DISCORD_ENABLED"    json:"enabled"`
	Token     string              `env:"PIBOT_CHANNELS_DISCORD_TOKEN"      json:"token"`
	AllowFrom FlexibleStringSlice `env:"PIBOT_CHANNELS_DISCORD_ALLOW_FROM" json:"allow_from"`
}

// RelayConfig is the configuration record the relay client loads at session
// start: the default conversation address and the drain polling interval.
type RelayConfig struct {
	ChatID         string `env:"PIBOT_RELAY_CHAT_ID"          json:"chat_id"`
	TopicID        string `env:"PIBOT_RELAY_TOPIC_ID"         json:"topic_id,omitempty"`
	PollIntervalMS int    `env:"PIBOT_RELAY_POLL_INTERVAL_MS" json:"poll_interval_ms"`
}

type CommandsConfig struct {
	Authorized []string `env:"PIBOT_COMMANDS_AUTHORIZED" json:"authorized"`
}

func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Reply: ReplyConfig{
			Model:       "llama3-8b-8192",
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Relay: RelayConfig{
			PollIntervalMS: 2000,
		},
		Commands: CommandsConfig{
			Authorized: []string{"ls -la", "pwd", "git status"},
		},
		LogFile: "logs.jsonl",
	}
}

// LoadConfig reads the JSON config record at path, falling back to defaults
// when the file does not exist, then applies PIBOT_* env overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Merge applies a partial JSON document on top of the receiver and returns
// the merged copy. Fields absent from the document keep their current value.
func (c *Config) Merge(partial []byte) (*Config, error) {
	merged := *c
	if err := json.Unmarshal(partial, &merged); err != nil {
		return nil, fmt.Errorf("invalid config document: %w", err)
	}
	return &merged, nil
}
