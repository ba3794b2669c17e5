package quizbank

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// PlaceholderAPIKey is written into fresh config files and never valid
const PlaceholderAPIKey = "YOUR_GEMINI_API_KEY_HERE"

// Config holds everything the question bank needs. It is loaded once and
// passed to constructors explicitly.
type Config struct {
	Provider       string `mapstructure:"provider"`
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"` // API endpoint override, e.g. a proxy
	UseAI          bool   `mapstructure:"use_ai"`
	CacheQuestions bool   `mapstructure:"cache_questions"`
	DBPath         string `mapstructure:"db_path"`
	LogDir         string `mapstructure:"log_dir"`
	SessionSecret  string `mapstructure:"session_secret"`
	SecureCookies  bool   `mapstructure:"secure_cookies"` // set when served over HTTPS
	Verbose        bool   `mapstructure:"verbose"`

	MaxAttempts      int           `mapstructure:"max_attempts"`
	ShortfallBackoff time.Duration `mapstructure:"shortfall_backoff"`
	FailureBackoff   time.Duration `mapstructure:"failure_backoff"`
	FallbackLimit    int           `mapstructure:"fallback_limit"`
	ShuffleOptions   bool          `mapstructure:"shuffle_options"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("use_ai", true)
	v.SetDefault("cache_questions", true)
	v.SetDefault("db_path", "./quiz.db")
	v.SetDefault("log_dir", "log")
	v.SetDefault("session_secret", "")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("verbose", false)

	policy := DefaultAcquireConfig()
	v.SetDefault("max_attempts", policy.MaxAttempts)
	v.SetDefault("shortfall_backoff", policy.ShortfallBackoff)
	v.SetDefault("failure_backoff", policy.FailureBackoff)
	v.SetDefault("fallback_limit", policy.FallbackLimit)
	v.SetDefault("shuffle_options", false)
	v.SetDefault("connect_timeout", 60*time.Second)
	v.SetDefault("read_timeout", 60*time.Second)
}

// LoadConfig reads path (or quizbank.{yaml,json,toml} from the working
// directory when path is empty) and overlays QUIZBANK_* environment
// variables. GEMINI_API_KEY and OPENAI_API_KEY are honoured as well. A
// missing default config file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUIZBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini_api_key", "QUIZBANK_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("openai_api_key", "QUIZBANK_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quizbank")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		VerboseLog("No config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	return &cfg, nil
}

// APIKey returns the key for the configured provider
func (c *Config) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// APIKeyConfigured reports whether the provider has a real key
func (c *Config) APIKeyConfigured() bool {
	key := strings.TrimSpace(c.APIKey())
	return key != "" && key != PlaceholderAPIKey
}

// AcquireConfig extracts the retry policy
func (c *Config) AcquireConfig() AcquireConfig {
	return AcquireConfig{
		MaxAttempts:      c.MaxAttempts,
		ShortfallBackoff: c.ShortfallBackoff,
		FailureBackoff:   c.FailureBackoff,
		FallbackLimit:    c.FallbackLimit,
		ShuffleOptions:   c.ShuffleOptions,
	}
}
