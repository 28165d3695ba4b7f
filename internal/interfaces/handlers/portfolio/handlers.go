package portfolio

import (
	"errors"

	"traderiser-backend/internal/application/valuation"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Valuation *valuation.Service
}

// Snapshot GET /api/v1/portfolio marks the account to market and records one history sample.
func (h *Handlers) Snapshot(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	snap, err := h.Valuation.Valuate(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return response.NotFound(c, err.Error())
		}
		return err
	}
	degraded := false
	for _, hv := range snap.Breakdown {
		if hv.PriceSource != valuation.SourceMarket {
			degraded = true
			break
		}
	}
	return response.Success(c, "Portfolio valued", snap, fiber.Map{"degraded": degraded})
}

// History GET /api/v1/portfolio/history returns value samples oldest-first.
func (h *Handlers) History(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	samples, err := h.Valuation.History(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Portfolio history", samples, fiber.Map{"count": len(samples)})
}
