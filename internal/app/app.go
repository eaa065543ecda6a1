// Package app assembles the chat engine from configuration.
// The local server and the chat Lambda share this wiring.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/handlers"
	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/composer"
	"mortgage-qualification-engine/internal/services/conversation"
	"mortgage-qualification-engine/internal/services/database"
	"mortgage-qualification-engine/internal/services/extractor"
	"mortgage-qualification-engine/internal/services/handover"
	"mortgage-qualification-engine/internal/services/llm"
	"mortgage-qualification-engine/internal/services/matcher"
	"mortgage-qualification-engine/internal/services/session"
)

var errNoDatabase = errors.New("database not connected")

// App holds the wired services. DB, Packages and Redis are nil when unavailable.
type App struct {
	Config       *config.Config
	DB           *database.DB
	Packages     *database.PackageRepository
	Redis        *session.RedisStore
	Sessions     session.Store
	Conversation *conversation.Service

	logger *zap.Logger
}

// New connects to the backing services and builds the conversation service.
// Postgres and Redis outages degrade the app instead of failing startup.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{Config: cfg, logger: logger}

	var catalog matcher.Catalog = unavailableCatalog{}
	db, err := database.New(ctx, cfg)
	if err != nil {
		logger.Warn("Database unavailable, package search will report the catalog as down", zap.Error(err))
	} else {
		a.DB = db
		a.Packages = database.NewPackageRepository(db)
		catalog = a.Packages
		if count, err := a.Packages.Count(ctx); err != nil {
			logger.Warn("Could not count catalog packages", zap.Error(err))
		} else {
			logger.Info("Catalog loaded", zap.Int("packages", count))
		}
	}

	redisStore := session.NewRedisStore(session.NewRedisClient(cfg), cfg.SessionTTL)
	if err := redisStore.Ping(ctx); err != nil {
		logger.Warn("Redis unavailable, keeping sessions in memory", zap.Error(err))
		_ = redisStore.Close()
		a.Sessions = session.NewMemoryStore()
	} else {
		a.Redis = redisStore
		a.Sessions = redisStore
	}

	generator, err := llm.NewClient(ctx, cfg, logger.Named("llm"))
	if err != nil {
		a.Close()
		return nil, err
	}

	notifier := handover.NewMulti(logger.Named("handover"), a.notifiers(ctx)...)

	orchestrator := conversation.NewOrchestrator(
		extractor.New(generator, logger.Named("extractor")),
		composer.New(generator, logger.Named("composer")),
		matcher.NewService(catalog, logger.Named("matcher")),
		notifier,
		cfg.WhatsAppURL,
		logger.Named("conversation"),
	)
	a.Conversation = conversation.NewService(a.Sessions, orchestrator, logger.Named("conversation"))

	logger.Info("Engine ready",
		zap.Bool("database", a.DB != nil),
		zap.Bool("redis", a.Redis != nil),
		zap.Int("handover_channels", notifier.Len()),
		zap.Strings("models", cfg.ModelChain),
	)

	return a, nil
}

func (a *App) notifiers(ctx context.Context) []handover.Notifier {
	var out []handover.Notifier

	if a.Config.SESSenderEmail != "" && len(a.Config.AdviserEmails) > 0 {
		n, err := handover.NewSESNotifier(ctx, a.Config, a.logger.Named("handover"))
		if err != nil {
			a.logger.Warn("Email handover disabled", zap.Error(err))
		} else {
			out = append(out, n)
		}
	}

	if a.Config.HandoverWebhookURL != "" {
		out = append(out, handover.NewWebhookNotifier(a.Config.HandoverWebhookURL, a.logger.Named("handover")))
	}

	return out
}

// HealthChecks returns the dependency probes for the health handler.
func (a *App) HealthChecks() map[string]handlers.CheckFunc {
	checks := map[string]handlers.CheckFunc{
		"database": nil,
		"redis":    nil,
	}
	if a.DB != nil {
		checks["database"] = a.DB.HealthCheck
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis.Ping
	}
	return checks
}

// PackageLister returns the catalog listing, or nil without a database.
func (a *App) PackageLister() handlers.PackageLister {
	if a.Packages == nil {
		return nil
	}
	return a.Packages
}

// Close releases connections.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}

// unavailableCatalog stands in for the repository when Postgres is down at startup.
type unavailableCatalog struct{}

func (unavailableCatalog) FindEligible(context.Context, matcher.CatalogQuery) ([]*models.MortgagePackage, error) {
	return nil, errNoDatabase
}
