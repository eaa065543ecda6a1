// Health Check Lambda entry point
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/handlers"
	"mortgage-qualification-engine/internal/services/database"
	"mortgage-qualification-engine/internal/services/session"
	"mortgage-qualification-engine/internal/utils"
)

func main() {
	_ = utils.InitLogger("info")
	defer utils.Sync()

	checks := map[string]handlers.CheckFunc{
		"database": nil,
		"redis":    nil,
	}

	// Report dependencies as not configured rather than failing the probe
	cfg, err := config.Load()
	if err == nil {
		db, err := database.New(context.Background(), cfg)
		if err != nil {
			utils.Logger.Warn("Database unavailable for health checks", zap.Error(err))
		} else {
			defer db.Close()
			checks["database"] = db.HealthCheck
		}

		store := session.NewRedisStore(session.NewRedisClient(cfg), cfg.SessionTTL)
		defer store.Close()
		checks["redis"] = store.Ping
	}

	stage := "unknown"
	if cfg != nil {
		stage = cfg.Stage
	}

	handler := handlers.NewHealthHandler(stage, os.Getenv("SERVICE_VERSION"), checks)

	lambda.Start(handler.Handle)
}
