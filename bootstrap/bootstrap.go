package bootstrap

import (
	"context"

	"traderiser-backend/internal/config"
	"traderiser-backend/internal/interfaces/router"
	"traderiser-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deployments (the api handler imports
// this package, not internal). Background workers are not started; alerts are
// checked on POST /api/v1/alerts/check.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, true)
	app, err := router.CreateApp(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return app.Fiber, nil
}
