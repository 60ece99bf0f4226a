package main

import (
	"fmt"

	"github.com/kisanmitra/advisory/internal/advisor"
	"github.com/kisanmitra/advisory/internal/catalog"
	"github.com/kisanmitra/advisory/internal/classifier"
	"github.com/kisanmitra/advisory/internal/logging"
	"github.com/kisanmitra/advisory/internal/service"
	"github.com/kisanmitra/advisory/internal/storage"
	"github.com/kisanmitra/advisory/pkg/config"
	"go.uber.org/zap"
)

// app holds everything a command needs, built once from the config file.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    storage.QueryLog
	advisor  *advisor.Advisor
	advisory *service.Advisory
	flushLog func()
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}

	logger, flushLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load()
	if err != nil {
		flushLog()
		return nil, fmt.Errorf("failed to load advisory catalog: %w", err)
	}

	store, err := openQueryLog(cfg.Database, logger)
	if err != nil {
		flushLog()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	adv := advisor.New(newRemote(cfg, cat, logger), advisor.NewCanned(cat), logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		advisor:  adv,
		advisory: service.NewAdvisory(classifier.NewKeywordClassifier(cat.Groups()), adv, store, logger),
		flushLog: flushLog,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close storage", zap.Error(err))
	}
	a.flushLog()
}

// newRemote returns nil when no key is configured or the client cannot be
// built; the process then answers from the canned table for its lifetime.
func newRemote(cfg *config.Config, cat *catalog.Catalog, logger *zap.Logger) advisor.RemoteSource {
	if !cfg.APIKeyConfigured() {
		logger.Warn("OPENAI_API_KEY not set, running in demo mode")
		return nil
	}

	r, err := advisor.NewRemote(advisor.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		TopP:        cfg.OpenAI.TopP,
		Timeout:     cfg.OpenAI.Timeout,
	}, cat, logger)
	if err != nil {
		logger.Error("OpenAI initialization failed, running in demo mode", zap.Error(err))
		return nil
	}

	logger.Info("OpenAI client initialized",
		zap.String("api_key", advisor.MaskKey(cfg.OpenAI.APIKey)),
		zap.String("model", cfg.OpenAI.Model))
	return r
}

func openQueryLog(cfg config.DatabaseConfig, logger *zap.Logger) (storage.QueryLog, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryLog(), nil
	case config.DriverPostgres:
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresLog(storage.DatabaseConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		}, logger)
	default:
		logger.Info("Using SQLite storage")
		return storage.NewSQLiteLog(cfg.Path, logger)
	}
}
