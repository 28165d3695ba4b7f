package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"traderiser-backend/internal/config"
	"traderiser-backend/internal/interfaces/router"
	"traderiser-backend/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := router.CreateApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}
	defer app.Close()

	if err := app.Rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	log.Info().Msg("Redis connected")

	go app.Monitor.Run(ctx)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		if err := app.Fiber.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("HTTP shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("market_provider", app.Gateway.ProviderName()).
		Str("health", "http://localhost:"+cfg.Port+"/health/json").
		Msg("Server running")
	if err := app.Fiber.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("listen")
	}
}
