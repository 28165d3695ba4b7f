package analysis

import (
	"context"
	"errors"

	analysissvc "traderiser-backend/internal/application/analysis"
	marketsvc "traderiser-backend/internal/application/market"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/interfaces/handlers/market"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"
	"traderiser-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Benchmark is the index beta is measured against.
const Benchmark = "SPY"

const (
	historyPeriod   = "1y"
	historyInterval = "1d"
	defaultDays     = 30
)

type HistorySource interface {
	History(ctx context.Context, ticker, period, interval string) ([]marketsvc.Bar, error)
}

// AccountReader supplies the cash balance for position sizing.
type AccountReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type Handlers struct {
	Market   HistorySource
	Accounts AccountReader
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, analysissvc.ErrInvalidDays), errors.Is(err, analysissvc.ErrUnsupportedModel),
		errors.Is(err, analysissvc.ErrInvalidPosition):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, analysissvc.ErrInsufficientData), errors.Is(err, analysissvc.ErrSingularFit):
		return response.Error(c, err.Error(), fiber.StatusUnprocessableEntity, nil)
	case errors.Is(err, domain.ErrAccountNotFound):
		return response.NotFound(c, err.Error())
	}
	if status := market.StatusFor(err); status != fiber.StatusInternalServerError {
		return response.Error(c, err.Error(), status, map[string]string{"kind": string(marketsvc.KindOf(err))})
	}
	return err
}

func closes(bars []marketsvc.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Forecast GET /api/v1/analysis/:ticker/forecast?days=&model=
func (h *Handlers) Forecast(c *fiber.Ctx) error {
	t := domain.NormalizeTicker(utils.CopyString(c.Params("ticker")))
	if !validation.IsValidTicker(t) {
		return response.BadRequest(c, domain.ErrInvalidTicker.Error(), nil)
	}
	days := c.QueryInt("days", defaultDays)
	model := analysissvc.ParseModel(c.Query("model"))
	if days < 1 || days > analysissvc.MaxForecastDays {
		return writeError(c, analysissvc.ErrInvalidDays)
	}
	if model != analysissvc.ModelLinear && model != analysissvc.ModelPolynomial {
		return writeError(c, analysissvc.ErrUnsupportedModel)
	}

	bars, err := h.Market.History(c.UserContext(), t, historyPeriod, historyInterval)
	if err != nil {
		return writeError(c, err)
	}
	f, err := analysissvc.Predict(bars, days, model)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Forecast for "+t, f, fiber.Map{"days": days, "history_points": len(bars)})
}

// Risk GET /api/v1/analysis/:ticker/risk
// Beta is omitted when the benchmark history is unavailable.
func (h *Handlers) Risk(c *fiber.Ctx) error {
	t := domain.NormalizeTicker(utils.CopyString(c.Params("ticker")))
	if !validation.IsValidTicker(t) {
		return response.BadRequest(c, domain.ErrInvalidTicker.Error(), nil)
	}
	ctx := c.UserContext()
	bars, err := h.Market.History(ctx, t, historyPeriod, historyInterval)
	if err != nil {
		return writeError(c, err)
	}
	stock := closes(bars)

	var beta *float64
	if t != Benchmark {
		bench, err := h.Market.History(ctx, Benchmark, historyPeriod, historyInterval)
		if err != nil {
			log.Warn().Err(err).Str("ticker", t).Msg("Benchmark history unavailable, beta omitted")
		} else if b, ok := analysissvc.Beta(stock, closes(bench)); ok {
			beta = &b
		}
	} else {
		one := 1.0
		beta = &one
	}
	return response.Success(c, "Risk assessment for "+t, analysissvc.Assess(stock, beta), fiber.Map{"benchmark": Benchmark})
}

// PositionRisk POST /api/v1/analysis/position-risk {entry_price, stop_loss, position_size}
func (h *Handlers) PositionRisk(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in analysissvc.PositionRiskInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	acct, err := h.Accounts.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	res, err := analysissvc.PositionRisk(in, acct.CashBalance)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Position risk calculated", res, fiber.Map{"balance": acct.CashBalance})
}
