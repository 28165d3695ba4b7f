package live

import (
	"errors"

	livesvc "traderiser-backend/internal/application/live"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"
	"traderiser-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type Handlers struct {
	Manager *livesvc.Manager
}

func ticker(c *fiber.Ctx) (string, bool) {
	t := domain.NormalizeTicker(utils.CopyString(c.Params("ticker")))
	return t, validation.IsValidTicker(t)
}

// Start POST /api/v1/live/:ticker/start
func (h *Handlers) Start(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	t, ok := ticker(c)
	if !ok {
		return response.BadRequest(c, domain.ErrInvalidTicker.Error(), nil)
	}
	candles, err := h.Manager.Start(c.UserContext(), id, t)
	if err != nil {
		if errors.Is(err, livesvc.ErrNoSeedPrice) {
			return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
		}
		return err
	}
	return response.Success(c, "Live trading started for "+t, candles, fiber.Map{"interval_ms": h.Manager.Interval.Milliseconds()})
}

// Stop POST /api/v1/live/:ticker/stop
func (h *Handlers) Stop(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	t, _ := ticker(c)
	if err := h.Manager.Stop(id, t); err != nil {
		if errors.Is(err, livesvc.ErrSessionNotFound) {
			return response.NotFound(c, err.Error())
		}
		return err
	}
	return response.Success(c, "Live trading stopped for "+t, nil, nil)
}

// Candles GET /api/v1/live/:ticker/candles
func (h *Handlers) Candles(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	t, _ := ticker(c)
	candles, err := h.Manager.Candles(id, t)
	if err != nil {
		if errors.Is(err, livesvc.ErrSessionNotFound) {
			return response.NotFound(c, err.Error())
		}
		return err
	}
	return response.Success(c, "Live candles", candles, fiber.Map{"count": len(candles)})
}
