package alerts

import (
	"errors"

	alertsvc "traderiser-backend/internal/application/alerts"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"
	"traderiser-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *alertsvc.Service
}

type CreateRequest struct {
	Ticker      string          `json:"ticker" validate:"required,ticker"`
	TargetPrice decimal.Decimal `json:"target_price"`
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrAlertNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTicker), errors.Is(err, alertsvc.ErrInvalidTarget):
		return response.BadRequest(c, err.Error(), nil)
	}
	return err
}

// List GET /api/v1/alerts
func (h *Handlers) List(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.List(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Alerts retrieved", list, fiber.Map{"count": len(list)})
}

// Create POST /api/v1/alerts {ticker, target_price}
func (h *Handlers) Create(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if details := validation.Struct(req); details != nil {
		return response.BadRequest(c, "Ticker and target_price are required", details)
	}
	a, err := h.Service.Create(c.UserContext(), id, req.Ticker, req.TargetPrice)
	if err != nil {
		return writeError(c, err)
	}
	return response.SuccessCreated(c, "Alert set for "+a.Ticker+" at "+a.TargetPrice.StringFixed(2), a, nil)
}

// Delete DELETE /api/v1/alerts/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	alertID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid alert id", nil)
	}
	if err := h.Service.Delete(c.UserContext(), id, alertID); err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Alert removed", nil, nil)
}

// Check POST /api/v1/alerts/check evaluates the caller's alerts now.
func (h *Handlers) Check(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	res, err := h.Service.Check(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Alerts checked", res, fiber.Map{"warnings": res.Warnings})
}
