// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/spigell/cold-mailer/internal/ai"
	"github.com/spigell/cold-mailer/internal/secrets"
)

const (
	EnvPrefix = "COLD_MAILER"

	EmbedderHash   = "hash"
	EmbedderGemini = "gemini"
)

// ConfigurationError reports a missing or invalid setting. It is fatal at
// startup.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm" json:"llm"`
	Portfolio PortfolioConfig `mapstructure:"portfolio" json:"portfolio"`
	Fetch     FetchConfig     `mapstructure:"fetch" json:"fetch"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts" json:"timeouts"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" json:"pipeline"`
	Persona   PersonaConfig   `mapstructure:"persona" json:"persona"`
	Output    OutputConfig    `mapstructure:"output" json:"output"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider" json:"provider" validate:"oneof=groq gemini"`
	Model    string `mapstructure:"model" json:"model"`
	BaseURL  string `mapstructure:"base-url" json:"base_url" validate:"omitempty,url"`
	// APIKey is never serialized so the config can be dumped in debug logs.
	APIKey         string `mapstructure:"api-key" json:"-"`
	APIKeyFile     string `mapstructure:"api-key-file" json:"api_key_file"`
	KeyringAccount string `mapstructure:"keyring-account" json:"keyring_account"`
	MaxLogLength   int    `mapstructure:"max-log-length" json:"max_log_length" validate:"gte=0"`
}

type PortfolioConfig struct {
	Dir            string `mapstructure:"dir" json:"dir" validate:"required"`
	Collection     string `mapstructure:"collection" json:"collection" validate:"required"`
	Embedder       string `mapstructure:"embedder" json:"embedder" validate:"oneof=hash gemini"`
	EmbeddingModel string `mapstructure:"embedding-model" json:"embedding_model"`
}

type FetchConfig struct {
	UserAgent string `mapstructure:"user-agent" json:"user_agent"`
	Browser   bool   `mapstructure:"browser" json:"browser"`
}

type TimeoutsConfig struct {
	Fetch   time.Duration `mapstructure:"fetch" json:"fetch" validate:"gt=0"`
	Browser time.Duration `mapstructure:"browser" json:"browser" validate:"gt=0"`
	LLM     time.Duration `mapstructure:"llm" json:"llm" validate:"gt=0"`
}

type PipelineConfig struct {
	IsolateJobFailures bool `mapstructure:"isolate-job-failures" json:"isolate_job_failures"`
}

type PersonaConfig struct {
	Name    string `mapstructure:"name" json:"name" validate:"required"`
	Title   string `mapstructure:"title" json:"title" validate:"required"`
	Email   string `mapstructure:"email" json:"email" validate:"omitempty,email"`
	Company string `mapstructure:"company" json:"company" validate:"required"`
	Pitch   string `mapstructure:"pitch" json:"pitch" validate:"required"`
}

type OutputConfig struct {
	Plain bool `mapstructure:"plain" json:"plain"`
}

// SetDefaults registers every key so that environment variables can
// override keys that are absent from the config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", ai.ProviderGroq)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base-url", "")
	v.SetDefault("llm.api-key", "")
	v.SetDefault("llm.api-key-file", "")
	v.SetDefault("llm.keyring-account", "")
	v.SetDefault("llm.max-log-length", 200)

	v.SetDefault("portfolio.dir", "vectorstore")
	v.SetDefault("portfolio.collection", "portfolio")
	v.SetDefault("portfolio.embedder", EmbedderHash)
	v.SetDefault("portfolio.embedding-model", "")

	v.SetDefault("fetch.user-agent", "")
	v.SetDefault("fetch.browser", false)

	v.SetDefault("timeouts.fetch", 30*time.Second)
	v.SetDefault("timeouts.browser", time.Minute)
	v.SetDefault("timeouts.llm", 2*time.Minute)

	v.SetDefault("pipeline.isolate-job-failures", false)

	v.SetDefault("persona.name", "Jordan Lee")
	v.SetDefault("persona.title", "Business Development Executive")
	v.SetDefault("persona.email", "")
	v.SetDefault("persona.company", "Northwind Software")
	v.SetDefault("persona.pitch", "a software consulting company that helps enterprises integrate their business processes through automated tools, "+
		"delivering scalability, process optimization, cost reduction and higher efficiency with tailored solutions")

	v.SetDefault("output.plain", false)
}

// BindEnv maps COLD_MAILER_* variables onto config keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Portfolio.Embedder = strings.ToLower(strings.TrimSpace(cfg.Portfolio.Embedder))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &ConfigurationError{
			Key: first.Namespace(),
			Err: fmt.Errorf("failed %q validation (value %v)", first.Tag(), first.Value()),
		}
	}

	return &ConfigurationError{Err: err}
}

// APIKeyEnv returns the conventional environment variable of the provider.
func (c *Config) APIKeyEnv() string {
	if c.LLM.Provider == ai.ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "GROQ_API_KEY"
}

// ResolveAPIKey loads the provider key from the configured sources.
func (c *Config) ResolveAPIKey() (string, error) {
	key, err := secrets.Load(secrets.Source{
		Name:           c.LLM.Provider + " api key",
		Value:          c.LLM.APIKey,
		File:           c.LLM.APIKeyFile,
		Env:            c.APIKeyEnv(),
		KeyringAccount: c.LLM.KeyringAccount,
	})
	if err != nil {
		return "", &ConfigurationError{
			Key: "llm.api-key",
			Err: fmt.Errorf("%w (set %s, llm.api-key-file or llm.keyring-account)", err, c.APIKeyEnv()),
		}
	}

	return key, nil
}
