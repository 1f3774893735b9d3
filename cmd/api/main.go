package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/respondent-registry-api/internal/bootstrap"
	"github.com/noah-isme/respondent-registry-api/internal/config"
	"github.com/noah-isme/respondent-registry-api/internal/handler"
	"github.com/noah-isme/respondent-registry-api/internal/middleware"
	"github.com/noah-isme/respondent-registry-api/internal/router"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resources, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open backends")
	}

	respondents, feed, err := bootstrap.Services(resources, cfg, logger)
	if err != nil {
		_ = resources.Close(context.Background())
		logger.Fatal().Err(err).Msg("failed to assemble services")
	}
	feed.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		RespondentHandler:       handler.NewRespondentHandler(respondents, logger),
		RespondentEventsHandler: handler.NewRespondentEventsHandler(feed, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Error().Err(err).Msg("server stopped listening")
			stop()
		}
	}()

	<-ctx.Done()
	shutdown(app, resources, logger)
}

func shutdown(app *fiber.App, resources *bootstrap.Resources, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := resources.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to close backends")
	}

	logger.Info().Msg("server stopped")
}
