package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/carebot/pkg/log"
)

type SourcesConfig struct {
	ProfileBaseURL string `env:"PROFILE_BASE_URL,required,notEmpty"`
	ProfileAPIKey  string `env:"PROFILE_API_KEY"`
	LedgerBaseURL  string `env:"LEDGER_BASE_URL,required,notEmpty"`
	LedgerAPIKey   string `env:"LEDGER_API_KEY"`
}

func NewSourcesConfig(ctx context.Context) *SourcesConfig {
	c := &SourcesConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Sources config")
	}
	return c
}
