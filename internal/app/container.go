package app

import (
	"context"
	"fmt"

	"github.com/kapu/student-insights-go/internal/config"
	"github.com/kapu/student-insights-go/internal/service/ai"
	"github.com/kapu/student-insights-go/internal/service/cache"
	"github.com/kapu/student-insights-go/internal/service/database"
	"github.com/kapu/student-insights-go/internal/service/insight"
	"github.com/kapu/student-insights-go/internal/service/table"
	"go.uber.org/zap"
)

// Container bundles assembled services for the CLI commands and the HTTP server.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Loader   *table.Loader
	Models   *ai.ModelManager
	Analyzer *insight.Analyzer

	closers []func()
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

type buildOptions struct {
	skipModels bool
}

type Option func(*buildOptions)

// WithoutModels builds a table-only container; Analyze is unavailable.
func WithoutModels() Option {
	return func(o *buildOptions) { o.skipModels = true }
}

// Build assembles all infrastructure services. Redis and PostgreSQL are only
// connected when the configuration asks for them.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var options buildOptions
	for _, opt := range opts {
		opt(&options)
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	loaderCfg := table.LoaderConfig{
		Source:    cfg.SourceConfig(),
		SharedTTL: cfg.Redis.TTL,
	}

	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, shared table cache disabled", zap.Error(cacheErr))
		} else {
			loaderCfg.Shared = cacheSvc
			closers = append(closers, func() {
				_ = cacheSvc.Close()
			})
		}
	}

	if loaderCfg.Source.Kind == table.SourcePostgres {
		postgresSvc, pgErr := database.NewPostgresService(database.PostgresConfig{
			DSN: cfg.Postgres.DSN,
		}, logger)
		if pgErr != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", pgErr)
		}
		loaderCfg.Postgres = postgresSvc
		closers = append(closers, func() {
			_ = postgresSvc.Close()
		})
	}

	loader, err := table.NewLoader(ctx, loaderCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create table loader: %w", err)
	}

	if options.skipModels {
		return &Container{
			Config:   cfg,
			Logger:   logger,
			Loader:   loader,
			Analyzer: insight.NewAnalyzer(loader, nil, logger),
			closers:  closers,
		}, nil
	}

	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}

	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		Primary:        cfg.LLM.Primary,
		Fallback:       cfg.LLM.Fallback,
		CircuitBreaker: cfg.LLM.CircuitBreaker,
		Groq: ai.OpenAIProviderConfig{
			Name:    "Groq",
			APIKey:  cfg.LLM.GroqAPIKey,
			BaseURL: cfg.LLM.GroqBaseURL,
			Model:   cfg.LLM.GroqModel,
		},
		OpenAI: ai.OpenAIProviderConfig{
			Name:   "OpenAI",
			APIKey: cfg.LLM.OpenAIAPIKey,
			Model:  cfg.LLM.OpenAIModel,
		},
		GeminiKey:   cfg.LLM.GeminiAPIKey,
		GeminiModel: cfg.LLM.GeminiModel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	narratives := ai.NewNarrativeService(modelManager, cfg.LLM.Temperature, logger)
	analyzer := insight.NewAnalyzer(loader, narratives, logger)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Loader:   loader,
		Models:   modelManager,
		Analyzer: analyzer,
		closers:  closers,
	}, nil
}
