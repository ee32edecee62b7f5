// Package config provides configuration for the legalchat client and server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration. Values are read from an optional YAML
// file and LEGALCHAT_-prefixed environment variables, with local-development
// defaults matching the reference backend.
type Config struct {
	Client  ClientConfig  `mapstructure:"client"`
	Server  ServerConfig  `mapstructure:"server"`
	Backoff BackoffConfig `mapstructure:"backoff"`
	LLM     LLMConfig     `mapstructure:"llm"`
}

// ClientConfig holds the two endpoints the chat client talks to.
type ClientConfig struct {
	WSURL    string `mapstructure:"ws_url"`
	APIURL   string `mapstructure:"api_url"`
	ExpertID string `mapstructure:"expert_id"`
}

// ServerConfig holds the reference backend settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	DBPath         string        `mapstructure:"db_path"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// BackoffConfig holds the client reconnect policy.
type BackoffConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// LLMConfig holds the optional OpenAI-compatible completion endpoint used
// by the reference backend. When BaseURL is empty the backend falls back to
// scripted replies.
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from the given file (optional) and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("legalchat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LEGALCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, defaults and env only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.ws_url", "ws://localhost:8000/ws/chat")
	v.SetDefault("client.api_url", "http://localhost:8000")
	v.SetDefault("client.expert_id", "constitutional")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.db_path", "./data/legalchat.db")
	v.SetDefault("server.ping_interval", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.max_message_size", 65536)

	v.SetDefault("backoff.base_delay", time.Second)
	v.SetDefault("backoff.max_delay", 30*time.Second)
	v.SetDefault("backoff.max_attempts", 5)

	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.timeout", 60*time.Second)
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
