// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the analyzer configuration from a YAML file, a .env
// file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/nlpodyssey/financial-document-analyzer/types/optional"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the analyzer. API keys are not part of
// it: they are read from the environment when a call is made.
type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Search SearchConfig `yaml:"search"`
	Memory MemoryConfig `yaml:"memory"`
	Events EventsConfig `yaml:"events"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	UploadDir      string        `yaml:"upload_dir" validate:"required"`
	OutputDir      string        `yaml:"output_dir" validate:"required"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" validate:"gt=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`

	// How long a finished run stays queryable before its state, events and
	// stage records are dropped.
	RunRetention time.Duration `yaml:"run_retention" validate:"gt=0"`
}

type LLMConfig struct {
	Provider string `yaml:"provider" validate:"oneof=openai anthropic gemini"`

	// Optional endpoint override for the provider.
	BaseURL optional.Optional[string] `yaml:"base_url"`

	// Model used by the analysis and risk tools.
	ToolModel string `yaml:"tool_model" validate:"required"`

	// Model used by the stage agents. Empty means ToolModel.
	AgentModel       string  `yaml:"agent_model"`
	AgentTemperature float64 `yaml:"agent_temperature" validate:"gte=0,lte=2"`
}

// EffectiveAgentModel returns AgentModel, or ToolModel when unset.
func (c LLMConfig) EffectiveAgentModel() string {
	if c.AgentModel != "" {
		return c.AgentModel
	}
	return c.ToolModel
}

type SearchConfig struct {
	Provider          string `yaml:"provider" validate:"oneof=serper none"`
	Endpoint          string `yaml:"endpoint" validate:"omitempty,url"`
	Results           int    `yaml:"results" validate:"gte=1,lte=20"`
	RequestsPerSecond int    `yaml:"requests_per_second" validate:"gte=1"`
}

type MemoryConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=none sqlite postgres"`
	SQLiteDSN   string `yaml:"sqlite_dsn"`
	PostgresURL string `yaml:"postgres_url" validate:"required_if=Driver postgres"`
}

type EventsConfig struct {
	// Optional endpoint receiving every run event as JSON.
	WebhookURL string `yaml:"webhook_url" validate:"omitempty,url"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			UploadDir:      "data",
			OutputDir:      "outputs",
			MaxUploadBytes: 32 << 20,
			RequestTimeout: 10 * time.Minute,
			RunRetention:   time.Hour,
		},
		LLM: LLMConfig{
			Provider:         "openai",
			ToolModel:        "gpt-4o-mini",
			AgentTemperature: 0.2,
		},
		Search: SearchConfig{
			Provider:          "serper",
			Endpoint:          "https://google.serper.dev",
			Results:           5,
			RequestsPerSecond: 5,
		},
		Memory: MemoryConfig{
			Driver: "none",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path is an optional YAML file; when empty
// only defaults, .env and the environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if u, ok := c.LLM.BaseURL.Get(); ok {
		if err := validate.Var(u, "required,url"); err != nil {
			return fmt.Errorf("llm.base_url: %w", err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.LLM.ToolModel, "OPENAI_MODEL")

	setString(&cfg.Server.Addr, "FINANALYZER_ADDR")
	setString(&cfg.Server.UploadDir, "FINANALYZER_UPLOAD_DIR")
	setString(&cfg.Server.OutputDir, "FINANALYZER_OUTPUT_DIR")
	if v := os.Getenv("FINANALYZER_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Server.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("FINANALYZER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("FINANALYZER_RUN_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Server.RunRetention = d
		}
	}

	setString(&cfg.LLM.Provider, "FINANALYZER_LLM_PROVIDER")
	if v := os.Getenv("FINANALYZER_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = optional.Value(v)
	}
	setString(&cfg.LLM.ToolModel, "FINANALYZER_TOOL_MODEL")
	setString(&cfg.LLM.AgentModel, "FINANALYZER_AGENT_MODEL")

	setString(&cfg.Search.Provider, "FINANALYZER_SEARCH_PROVIDER")
	setString(&cfg.Search.Endpoint, "FINANALYZER_SEARCH_ENDPOINT")

	setString(&cfg.Memory.Driver, "FINANALYZER_MEMORY_DRIVER")
	setString(&cfg.Memory.SQLiteDSN, "FINANALYZER_SQLITE_DSN")
	setString(&cfg.Memory.PostgresURL, "FINANALYZER_POSTGRES_URL")

	setString(&cfg.Events.WebhookURL, "FINANALYZER_WEBHOOK_URL")

	setString(&cfg.Log.Level, "FINANALYZER_LOG_LEVEL")
	setString(&cfg.Log.Format, "FINANALYZER_LOG_FORMAT")
}
