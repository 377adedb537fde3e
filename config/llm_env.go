package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

// LLMEnv is the LLM connection configuration, loaded from the environment.
// Models are addressed in provider/deployment form (e.g. "azure/gpt-4o").
// The task model runs the examples, the reflection model doubles as the RAG
// judge and as the optimizer's mutation model.
type LLMEnv struct {
	TaskModel       string         `env:"LLM_MODEL_TASK" envDefault:"azure/gpt-4.1-mini"`
	ReflectionModel string         `env:"LLM_MODEL_REFLECTION" envDefault:"azure/gpt-4o"`
	APIKey          string         `env:"LLM_API_KEY"`
	APIBase         string         `env:"LLM_API_BASE"`
	APIVersion      string         `env:"LLM_API_VERSION" envDefault:"2024-02-15-preview"`
	Temperature     float64        `env:"LLM_TEMPERATURE" envDefault:"0.0"`
	RateLimitRPS    float64        `env:"LLM_RATE_LIMIT" envDefault:"0"`
	LogLevel        utils.LogLevel `env:"LLM_LOG_LEVEL" envDefault:"WARN"`
}

// LoadLLMEnv parses the LLM connection settings from the environment.
func LoadLLMEnv() (*LLMEnv, error) {
	cfg := &LLMEnv{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("loading LLM environment: %w", err)
	}
	return cfg, nil
}

// Limiter builds the request rate limiter from LLM_RATE_LIMIT (requests
// per second), or nil when unlimited.
func (c *LLMEnv) Limiter() *rate.Limiter {
	if c.RateLimitRPS <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.RateLimitRPS), 1)
}

// CallerOptions translates the connection settings into llm.Caller options.
func (c *LLMEnv) CallerOptions() []llm.CallerOption {
	opts := []llm.CallerOption{
		llm.WithLogger(utils.NewLogger(c.LogLevel)),
	}
	if limiter := c.Limiter(); limiter != nil {
		opts = append(opts, llm.WithRateLimiter(limiter))
	}
	return opts
}

// Provider returns the provider prefix of the task model ("azure" for
// "azure/gpt-4o"), or "unknown" when the model carries no prefix.
func (c *LLMEnv) Provider() string {
	if name, _, found := strings.Cut(c.TaskModel, "/"); found {
		return name
	}
	return "unknown"
}

// Missing lists the environment variables that must be set before any call
// can succeed. Azure deployments additionally require the endpoint.
func (c *LLMEnv) Missing() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if c.TaskModel == "" {
		missing = append(missing, "LLM_MODEL_TASK")
	}
	if strings.HasPrefix(c.TaskModel, "azure/") && c.APIBase == "" {
		missing = append(missing, "LLM_API_BASE (required for Azure)")
	}
	return missing
}
