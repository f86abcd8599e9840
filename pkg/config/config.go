package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
}

// ClassifierConfig tunes the local extractor and the batch runner. Empty
// lists keep the built-in vocabulary.
type ClassifierConfig struct {
	Remote             bool             `mapstructure:"remote"`
	Workers            int              `mapstructure:"workers"`
	CacheSize          int              `mapstructure:"cache_size"`
	ContextWindow      int              `mapstructure:"context_window"`
	ObligationKeywords []string         `mapstructure:"obligation_keywords"`
	UrgencyKeywords    []string         `mapstructure:"urgency_keywords"`
	ElevatedTypes      []string         `mapstructure:"elevated_types"`
	Precedence         []PrecedenceRule `mapstructure:"precedence"`
	ClassifyUnmatched  bool             `mapstructure:"classify_unmatched"`
}

type PrecedenceRule struct {
	Type     string   `mapstructure:"type"`
	Keywords []string `mapstructure:"keywords"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads path when it is not empty, then applies environment
// overrides such as CLASSIFIER_WORKERS or OPENAI_API_KEY.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("log_level", "info")
	v.SetDefault("classifier.remote", false)
	v.SetDefault("classifier.workers", 4)
	v.SetDefault("classifier.cache_size", 256)
	v.SetDefault("classifier.context_window", 100)
	v.SetDefault("classifier.classify_unmatched", false)
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.timeout", 30*time.Second)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Classifier.Workers < 0 {
		return fmt.Errorf("classifier.workers must not be negative")
	}
	if c.Classifier.ContextWindow < 1 || c.Classifier.ContextWindow > 1000 {
		return fmt.Errorf("classifier.context_window must be between 1 and 1000")
	}
	for i, rule := range c.Classifier.Precedence {
		if strings.TrimSpace(rule.Type) == "" {
			return fmt.Errorf("classifier.precedence[%d]: type is required", i)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("classifier.precedence[%d]: keywords are required", i)
		}
	}
	if c.OpenAI.Timeout < 0 {
		return fmt.Errorf("openai.timeout must not be negative")
	}
	return nil
}
