package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/carebot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"CAREBOT_RUNTIME_PATH" envDefault:".carebot"`
	HTTPAddr    string `env:"CAREBOT_HTTP_ADDR" envDefault:":8080"`

	// Provider escalation notifications
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "carebot.db")
}
