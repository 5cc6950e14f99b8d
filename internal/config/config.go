package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderMock   Provider = "mock"
)

type Config struct {
	LLMProvider Provider `env:"LLM_PROVIDER" envDefault:"gemini"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Zero means the inference calls run without a deadline.
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"0s"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"smooze_turns.db"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
}

var AppConfig Config

// LoadConfig reads .env (when present) and the environment into AppConfig.
func LoadConfig() {
	LoadDotEnv()

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	AppConfig = cfg
}

// LoadDotEnv loads .env from the working directory into the environment.
// Variables already set win. It reports whether a file was loaded.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
		return false
	}
	return true
}

// Parse builds a Config from the current environment without validating it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required for provider %q", c.LLMProvider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required for provider %q", c.LLMProvider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want gemini, openai or mock)", c.LLMProvider)
	}
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must not be negative")
	}
	return nil
}

func (c Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}
