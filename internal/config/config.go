// Package config provides configuration loading and validation for the
// agent. Values come from an optional JSON file with environment variables
// taking precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the agent needs to run. All fields are optional
// except DatabaseURL; zero values fall back to defaults.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty" validate:"required"`
	RedisURL    string `json:"redis_url,omitempty"`

	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	GeminiModel  string `json:"gemini_model,omitempty"`

	GmailQuery     string   `json:"gmail_query,omitempty"`
	AllowedSenders []string `json:"allowed_senders,omitempty"`
	GateKeywords   []string `json:"gate_keywords,omitempty"`

	SyncSpec        string `json:"sync_spec,omitempty"`
	BackfillLimit   int64  `json:"backfill_limit,omitempty" validate:"gte=0"`
	Concurrency     int    `json:"concurrency,omitempty" validate:"gte=0,lte=64"`
	EnhancerTimeout int    `json:"enhancer_timeout_seconds,omitempty" validate:"gte=0"`

	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" validate:"gte=0,lte=1"`
	ConfidenceFloor     float64 `json:"confidence_floor,omitempty" validate:"gte=0,lte=1"`

	ServerAddr string `json:"server_addr,omitempty"`
	JWTSecret  string `json:"jwt_secret,omitempty"`
	LogLevel   string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// Load builds the configuration: .env file if present, then the optional
// JSON config file, then environment variables on top.
func Load(path string) (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.GeminiAPIKey, "GOOGLE_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.GmailQuery, "GMAIL_QUERY")
	setList(&c.AllowedSenders, "ALLOWED_SENDERS")
	setList(&c.GateKeywords, "GATE_KEYWORDS")
	setString(&c.SyncSpec, "SYNC_INTERVAL")
	setInt64(&c.BackfillLimit, "BACKFILL_LIMIT")
	setInt(&c.Concurrency, "PIPELINE_CONCURRENCY")
	setInt(&c.EnhancerTimeout, "ENHANCER_TIMEOUT_SECONDS")
	setFloat(&c.SimilarityThreshold, "SIMILARITY_THRESHOLD")
	setFloat(&c.ConfidenceFloor, "CONFIDENCE_FLOOR")
	setString(&c.ServerAddr, "SERVER_ADDR")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.SyncSpec == "" {
		c.SyncSpec = "@every 5m"
	}
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
