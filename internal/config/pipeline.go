package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/carebot/pkg/log"
)

// PipelineConfig holds the knobs of the context-aggregation and escalation
// pipeline. The trigger set is configuration, not code.
type PipelineConfig struct {
	CacheTTLSeconds       int `env:"CACHE_TTL_SECONDS" envDefault:"300"`
	CacheCapacity         int `env:"CACHE_CAPACITY" envDefault:"100"`
	AdapterTimeoutSeconds int `env:"ADAPTER_TIMEOUT_SECONDS" envDefault:"10"`

	EscalationTriggers []string `env:"ESCALATION_TRIGGERS" envSeparator:"," envDefault:"severe pain,urgent,medication change,dosage"`

	// Turns of prior conversation handed to the generation step.
	ContextWindowSize int `env:"CONTEXT_WINDOW_SIZE" envDefault:"20"`
}

func NewPipelineConfig(ctx context.Context) *PipelineConfig {
	c := &PipelineConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Pipeline config")
	}
	return c
}

func (c PipelineConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c PipelineConfig) AdapterTimeout() time.Duration {
	return time.Duration(c.AdapterTimeoutSeconds) * time.Second
}
