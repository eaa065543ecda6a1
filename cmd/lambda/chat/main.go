// Chat API Lambda entry point
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/app"
	"mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/handlers"
	"mortgage-qualification-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	engine, err := app.New(context.Background(), cfg, utils.GetLogger())
	if err != nil {
		utils.Logger.Fatal("Failed to start engine", zap.Error(err))
	}
	defer engine.Close()

	handler := handlers.NewChatHandler(engine.Conversation, engine.PackageLister(), utils.Named("chat"))

	lambda.Start(handler.Handle)
}
