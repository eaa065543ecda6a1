// Catalog import Lambda entry point, triggered by S3 uploads
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/handlers"
	"mortgage-qualification-engine/internal/services/database"
	s3service "mortgage-qualification-engine/internal/services/s3"
	"mortgage-qualification-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()
	logger := utils.Named("catalog-import")

	ctx := context.Background()

	db, err := database.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	files, err := s3service.NewService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create S3 service", zap.Error(err))
	}

	handler := handlers.NewCatalogImportHandler(files, database.NewPackageRepository(db), logger)

	lambda.Start(handler.Handle)
}
