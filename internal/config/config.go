// Package config loads service configuration from an optional yaml file,
// a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/studentai/internal/llm"
)

// Config holds application configuration.
type Config struct {
	Env     string `mapstructure:"env"`      // local, dev, prod
	DataDir string `mapstructure:"data_dir"` // root of all flat files
	DBPath  string `mapstructure:"db_path"`  // sqlite event log; empty picks the default
	Server  Server `mapstructure:"server"`
	Log     Log    `mapstructure:"log"`
	LLM     LLM    `mapstructure:"llm"`
	Drive   Drive  `mapstructure:"drive"`
	Cache   Cache  `mapstructure:"cache"`
	Quiz    Quiz   `mapstructure:"quiz"`
	Speech  Speech `mapstructure:"speech"`
	IDs     IDs    `mapstructure:"ids"`
}

type Server struct {
	Addr        string `mapstructure:"addr"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

type Log struct {
	Mode string `mapstructure:"mode"` // dev or prod
}

// LLM mirrors llm.Config in file form. API keys are never read from here.
type LLM struct {
	Provider        string        `mapstructure:"provider"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	OpenAIModel     string        `mapstructure:"openai_model"`
	OpenAIBaseURL   string        `mapstructure:"openai_base_url"`
	AnthropicModel  string        `mapstructure:"anthropic_model"`
	OpenRouterModel string        `mapstructure:"openrouter_model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryWait       time.Duration `mapstructure:"retry_wait"`
}

type Drive struct {
	Bucket              string `mapstructure:"bucket"`                // GCS bucket; empty disables cloud uploads
	PublicBaseURL       string `mapstructure:"public_base_url"`       // overrides storage.googleapis.com
	PredefinedLinksPath string `mapstructure:"predefined_links_path"` // yaml override of the built-in catalog
	Model               string `mapstructure:"model"`                 // model used for study plans and analysis
}

type Cache struct {
	RedisURL string        `mapstructure:"redis_url"` // empty uses the in-process cache
	TTL      time.Duration `mapstructure:"ttl"`       // zero disables response caching
}

type Quiz struct {
	ShortAnswerThreshold float64 `mapstructure:"short_answer_threshold"`
}

type Speech struct {
	Enabled      bool   `mapstructure:"enabled"` // use Cloud Speech instead of the LLM for voice notes
	LanguageCode string `mapstructure:"language_code"`
}

// IDs selects how flat-file records get their ids: "sequence" (default,
// never reuses an id) or "max".
type IDs struct {
	Scheme string `mapstructure:"scheme"`
}

// Options override where configuration is read from.
type Options struct {
	ConfigFile string // explicit yaml path; empty searches ./config
	EnvFile    string // dotenv path; empty tries ./.env
}

// Load reads configuration from config files and environment variables.
// Environment variables use the STUDENTAI_ prefix with dots mapped to
// underscores, e.g. STUDENTAI_SERVER_ADDR.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("studentai")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix("studentai")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "STUDENTAI_ENV", "APP_ENV")
	_ = v.BindEnv("server.addr", "STUDENTAI_SERVER_ADDR", "ADDR")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()

	v.SetDefault("env", "local")
	v.SetDefault("data_dir", "data")
	v.SetDefault("db_path", "")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("log.mode", "dev")
	v.SetDefault("llm.provider", d.Provider)
	v.SetDefault("llm.gemini_model", d.Gemini.Model)
	v.SetDefault("llm.openai_model", d.OpenAI.Model)
	v.SetDefault("llm.openai_base_url", "")
	v.SetDefault("llm.anthropic_model", d.Anthropic.Model)
	v.SetDefault("llm.openrouter_model", d.OpenRouter.Model)
	v.SetDefault("llm.timeout", d.Timeout)
	v.SetDefault("llm.retry_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.retry_wait", d.Retry.InitialWait)
	v.SetDefault("drive.bucket", "")
	v.SetDefault("drive.public_base_url", "")
	v.SetDefault("drive.predefined_links_path", "")
	v.SetDefault("drive.model", "gemini-2.0-flash-exp")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("quiz.short_answer_threshold", 0.7)
	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.language_code", "en-US")
	v.SetDefault("ids.scheme", "sequence")
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if t := c.Quiz.ShortAnswerThreshold; t <= 0 || t >= 1 {
		return fmt.Errorf("quiz.short_answer_threshold must be in (0, 1), got %v", t)
	}
	switch c.IDs.Scheme {
	case "max", "sequence":
	default:
		return fmt.Errorf("ids.scheme must be \"max\" or \"sequence\", got %q", c.IDs.Scheme)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// LLMConfig translates the file form into llm.Config and fills API keys
// from the environment.
func (c *Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = c.LLM.Provider
	out.Gemini.Model = c.LLM.GeminiModel
	out.OpenAI.Model = c.LLM.OpenAIModel
	out.OpenAI.BaseURL = c.LLM.OpenAIBaseURL
	out.Anthropic.Model = c.LLM.AnthropicModel
	out.OpenRouter.Model = c.LLM.OpenRouterModel
	out.Timeout = c.LLM.Timeout
	if c.LLM.RetryAttempts > 0 {
		out.Retry.MaxAttempts = c.LLM.RetryAttempts
	}
	if c.LLM.RetryWait > 0 {
		out.Retry.InitialWait = c.LLM.RetryWait
	}
	out.CacheTTL = c.Cache.TTL
	out.ApplyEnvKeys()
	return out
}

// Path joins name onto the data directory.
func (c *Config) Path(name ...string) string {
	return filepath.Join(append([]string{c.DataDir}, name...)...)
}

// MaxUploadBytes is the multipart body limit.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// IsProd reports whether the service runs in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}
