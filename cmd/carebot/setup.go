package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/carebot/internal/config"
	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/internal/providers/llm"
	"github.com/sandevgo/carebot/internal/providers/source"
	"github.com/sandevgo/carebot/internal/service/aggregate"
	"github.com/sandevgo/carebot/internal/service/contextcache"
	"github.com/sandevgo/carebot/internal/service/escalate"
	"github.com/sandevgo/carebot/internal/service/intent"
	"github.com/sandevgo/carebot/internal/service/workflow"
	"github.com/sandevgo/carebot/internal/storage/sqlite"
	"github.com/sandevgo/carebot/internal/transport/httpapi"
	"github.com/sandevgo/carebot/internal/transport/telegram"
	"github.com/sandevgo/carebot/pkg/log"
	"github.com/sandevgo/carebot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	pipeCfg := config.NewPipelineConfig(ctx)
	srcCfg := config.NewSourcesConfig(ctx)
	genCfg := config.NewGenerationConfig(ctx)

	// 2. Storage
	db, transcripts, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	// 3. Source adapters and the context pipeline
	profile := source.NewProfileClient(srcCfg.ProfileBaseURL, srcCfg.ProfileAPIKey, pipeCfg.AdapterTimeout())
	ledger := source.NewLedgerClient(srcCfg.LedgerBaseURL, srcCfg.LedgerAPIKey, pipeCfg.AdapterTimeout())

	cache := contextcache.New(pipeCfg.CacheTTL(), pipeCfg.CacheCapacity)
	aggregator := aggregate.New(cache, profile, ledger)

	classifier := intent.NewClassifier()
	evaluator := escalate.NewEvaluator(pipeCfg.EscalationTriggers)

	// 4. Generation backend
	generator, err := llm.NewGenerator(ctx, genCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize generation provider")
	}

	// 5. Provider notifications
	notifier, err := initNotifier(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telegram notifier")
	}

	// 6. Workflow controller
	controller := workflow.NewController(classifier, aggregator, evaluator, generator, workflow.Options{
		Notifier:      notifier,
		Transcripts:   transcripts,
		GenTimeout:    genCfg.Timeout(),
		ContextWindow: pipeCfg.ContextWindowSize,
	})

	// 7. HTTP API
	handler := httpapi.NewHandler(controller, aggregator, transcripts)
	services = append(services, httpapi.NewServer(ctx, appCfg.HTTPAddr, handler))

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, core.TranscriptRepository, error) {
	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, nil, err
	}
	return db, sqlite.NewTranscripts(db), nil
}

func initNotifier(ctx context.Context, cfg *config.AppConfig) (core.ProviderNotifier, error) {
	if !cfg.EnableTelegram {
		return nil, nil
	}

	tgCfg := config.NewTelegramConfig(ctx)
	return telegram.NewNotifier(tgCfg)
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
