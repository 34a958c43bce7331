package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/carebot/internal/config"
	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/pkg/log"
)

// NewGenerator creates the configured generation backend.
func NewGenerator(ctx context.Context, cfg *config.GenerationConfig) (core.Generator, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting generation provider")

	switch cfg.Provider {
	case "openai":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:     "https://api.openai.com",
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.Model,
			AuthHeader:  "Authorization",
			AuthPrefix:  "Bearer ",
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout(),
		}), nil
	case "openrouter":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:     "https://openrouter.ai/api",
			APIKey:      cfg.OpenRouterAPIKey,
			Model:       cfg.Model,
			AuthHeader:  "Authorization",
			AuthPrefix:  "Bearer ",
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout(),
		}), nil
	case "custom":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:     cfg.CustomBaseURL,
			APIKey:      cfg.CustomAPIKey,
			Model:       cfg.Model,
			AuthHeader:  "Authorization",
			AuthPrefix:  "Bearer ",
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
