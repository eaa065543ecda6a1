// Catalog upload URL Lambda entry point
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/handlers"
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
	logger := utils.Named("catalog-upload-url")

	signer, err := s3service.NewService(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create S3 service", zap.Error(err))
	}

	logger.Info("Issuing catalog upload URLs", zap.String("bucket", signer.Bucket()))
	handler := handlers.NewPresignedURLHandler(signer, logger)

	lambda.Start(handler.Handle)
}
