package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envLineChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	envLineChannelSecret      = "LINE_CHANNEL_SECRET"
	envLineUserID             = "LINE_USER_ID"
	envMQTTURL                = "MQTT_URL"
	envExpenseWebhookURL      = "EXPENSE_WEBHOOK_URL"
	envAPIKey                 = "AUTOMATRON_API_KEY"
)

const defaultHomeTopic = "home"

// Config is the root runtime configuration loaded from config.json.
//
// Secret values (tokens, keys, broker and webhook URLs) are normally
// injected through environment variables on top of the file config and
// must never be logged.
type Config struct {
	Line    LineConfig    `json:"line"`
	Home    HomeConfig    `json:"home"`
	Expense ExpenseConfig `json:"expense"`
	API     APIConfig     `json:"api"`
	Gateway GatewayConfig `json:"gateway"`
	Logging LoggingConfig `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format string `json:"format,omitempty"`
	Level  string `json:"level,omitempty"`
}

// LineConfig configures the LINE messaging transport.
type LineConfig struct {
	ChannelAccessToken string `json:"channel_access_token"`
	ChannelSecret      string `json:"channel_secret"`
	// UserID is the single sender authorized to issue commands and the
	// target of all push messages.
	UserID string `json:"user_id"`
}

// HomeConfig configures the home-automation bus connection.
type HomeConfig struct {
	BrokerURL string `json:"broker_url"`
	Topic     string `json:"topic,omitempty"`
}

// ExpenseConfig configures the external expense-ledger webhook.
type ExpenseConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// APIConfig holds the shared key guarding the secondary HTTP endpoints.
type APIConfig struct {
	Key string `json:"key"`
}

// GatewayConfig configures HTTP bind settings for the relay server.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoadConfig resolves config.json, unmarshals it, applies environment
// overrides, and validates required fields.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Line.ChannelAccessToken) == "":
		return errors.New("line.channel_access_token is required")
	case strings.TrimSpace(c.Line.ChannelSecret) == "":
		return errors.New("line.channel_secret is required")
	case strings.TrimSpace(c.Line.UserID) == "":
		return errors.New("line.user_id is required")
	case strings.TrimSpace(c.Home.BrokerURL) == "":
		return errors.New("home.broker_url is required")
	case strings.TrimSpace(c.Expense.WebhookURL) == "":
		return errors.New("expense.webhook_url is required")
	case strings.TrimSpace(c.API.Key) == "":
		return errors.New("api.key is required")
	}

	return nil
}

// applyEnvOverrides injects secret settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if value := strings.TrimSpace(os.Getenv(envLineChannelAccessToken)); value != "" {
		cfg.Line.ChannelAccessToken = value
	}
	if value := strings.TrimSpace(os.Getenv(envLineChannelSecret)); value != "" {
		cfg.Line.ChannelSecret = value
	}
	if value := strings.TrimSpace(os.Getenv(envLineUserID)); value != "" {
		cfg.Line.UserID = value
	}
	if value := strings.TrimSpace(os.Getenv(envMQTTURL)); value != "" {
		cfg.Home.BrokerURL = value
	}
	if value := strings.TrimSpace(os.Getenv(envExpenseWebhookURL)); value != "" {
		cfg.Expense.WebhookURL = value
	}
	if value := strings.TrimSpace(os.Getenv(envAPIKey)); value != "" {
		cfg.API.Key = value
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Home.Topic) == "" {
		cfg.Home.Topic = defaultHomeTopic
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is AUTOMATRON_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("AUTOMATRON_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("AUTOMATRON_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
