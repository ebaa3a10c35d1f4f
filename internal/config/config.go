package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chat-fe/internal/llm"

	"github.com/spf13/viper"
)

// DefaultSystemPrompt is the preamble every transcript starts with.
const DefaultSystemPrompt = "You are a helpful AI assistant that answers questions."

// ErrMissingChatConfig reports that the endpoint or the model identifier is
// not set. No chat turn can succeed until it is corrected.
var ErrMissingChatConfig = errors.New("chat endpoint and model are required")

type Config struct {
	Chat ChatConfig `mapstructure:"chat"`
	Log  LogConfig  `mapstructure:"log"`
	UI   UIConfig   `mapstructure:"ui"`
}

type ChatConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Model        string        `mapstructure:"model"`
	Token        string        `mapstructure:"token"`
	Type         string        `mapstructure:"type"`
	APIVersion   string        `mapstructure:"api_version"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Timeout      time.Duration `mapstructure:"timeout"`
	History      HistoryConfig `mapstructure:"history"`
}

// HistoryConfig bounds how much of the transcript is sent per turn.
// Zero values leave that dimension unbounded.
type HistoryConfig struct {
	MaxMessages int `mapstructure:"max_messages"`
	TokenBudget int `mapstructure:"token_budget"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type UIConfig struct {
	Style string `mapstructure:"style"`
}

// SetDefaults registers default values and the environment names the chat
// settings can be read from.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("chat.type", llm.TypeAzure)
	v.SetDefault("chat.api_version", llm.DefaultAzureAPIVersion)
	v.SetDefault("chat.system_prompt", DefaultSystemPrompt)
	v.SetDefault("chat.timeout", time.Duration(0))
	v.SetDefault("chat.history.max_messages", 0)
	v.SetDefault("chat.history.token_budget", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ui.style", "dark")

	_ = v.BindEnv("chat.endpoint", "CHAT_FE_CHAT_ENDPOINT", "PROJECT_ENDPOINT")
	_ = v.BindEnv("chat.model", "CHAT_FE_CHAT_MODEL", "MODEL_DEPLOYMENT")
}

func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings that make the program unusable as a whole.
// Missing chat settings are reported separately by Chat.Require so the UI can
// still start and show a notice.
func (c Config) Validate() error {
	switch c.Chat.Type {
	case "", llm.TypeOpenAI, llm.TypeAzure, llm.TypeAnthropic, llm.TypeGemini:
	default:
		return fmt.Errorf("invalid chat.type: %s", c.Chat.Type)
	}
	if c.Chat.Timeout < 0 {
		return fmt.Errorf("invalid chat.timeout: %s", c.Chat.Timeout)
	}
	if c.Chat.History.MaxMessages < 0 || c.Chat.History.TokenBudget < 0 {
		return errors.New("chat.history limits must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log.format: %s", c.Log.Format)
	}
	return nil
}

// Require reports ErrMissingChatConfig when the endpoint or model is unset.
func (c ChatConfig) Require() error {
	if strings.TrimSpace(c.Endpoint) == "" || strings.TrimSpace(c.Model) == "" {
		return ErrMissingChatConfig
	}
	return nil
}

// LLM converts the chat settings into a provider client configuration.
func (c ChatConfig) LLM() llm.Config {
	return llm.Config{
		Type:       c.Type,
		URL:        c.Endpoint,
		Model:      c.Model,
		Token:      c.Token,
		APIVersion: c.APIVersion,
	}
}
