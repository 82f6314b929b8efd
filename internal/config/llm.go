package config

import (
	"os"
	"time"

	"github.com/brieflyhq/briefly/internal/common"
	"github.com/brieflyhq/briefly/internal/llm"
	"github.com/spf13/viper"
)

// LoadLLMConfig loads LLM configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or BRIEFLY_ env vars)
// 2. Direct environment variables (GEMINI_API_KEY / OPENAI_API_KEY)
// 3. Default values
func LoadLLMConfig() (llm.Config, error) {
	cfg := llm.Config{
		Provider:   viper.GetString("llm.provider"),
		APIKey:     viper.GetString("llm.api_key"),
		Model:      viper.GetString("llm.model"),
		MaxRetries: viper.GetInt("llm.max_retries"),
		RateLimit:  viper.GetInt("llm.rate_limit"),
		MaxTokens:  viper.GetInt("llm.max_tokens"),
	}

	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if viper.IsSet("llm.temperature") {
		cfg.Temperature = viper.GetFloat64("llm.temperature")
	}
	if v := viper.GetDuration("llm.retry_delay"); v > 0 {
		cfg.RetryDelay = v
	} else {
		cfg.RetryDelay = time.Second
	}

	// Override with direct environment variables if not set
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	if cfg.APIKey == "" {
		return cfg, common.NewUserError(
			"LLM API key not found. Set llm.api_key in config or the GEMINI_API_KEY / OPENAI_API_KEY environment variable",
			common.ErrMissingConfig)
	}

	return cfg, nil
}
