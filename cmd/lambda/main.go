// Command lambda serves the classifier as an AWS Lambda function URL.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/example/snake-check/internal/config"
	"github.com/example/snake-check/internal/handlers"
	"github.com/example/snake-check/internal/logging"
	"github.com/example/snake-check/internal/usecase"
	"github.com/example/snake-check/internal/vision"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	client, err := vision.New(context.Background(), cfg.Vision)
	if err != nil {
		logger.Fatal("failed to create vision client", zap.Error(err))
	}
	uc := usecase.NewClassificationUseCase(client, usecase.Options{
		MaxTokens:     cfg.Vision.MaxTokens,
		MaxDimension:  cfg.Image.MaxDimension,
		Timeout:       cfg.Vision.Timeout,
		RetryAttempts: cfg.Vision.RetryAttempts,
	}, logger)

	lambda.Start(handlers.NewLambdaHandler(uc, logger))
}
