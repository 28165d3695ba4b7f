package trading

import (
	"context"
	"errors"

	"traderiser-backend/internal/application/ledger"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"
	"traderiser-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LivePrices is the running live-session price for an account, if any.
type LivePrices interface {
	LastPrice(accountID uuid.UUID, ticker string) (decimal.Decimal, bool)
}

// MarketPrices is the gateway's current price.
type MarketPrices interface {
	LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

type Handlers struct {
	Ledger *ledger.Service
	Live   LivePrices
	Market MarketPrices
}

type OrderRequest struct {
	Ticker   string `json:"ticker" validate:"required,ticker"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
}

// Buy POST /api/v1/trading/buy
func (h *Handlers) Buy(c *fiber.Ctx) error {
	return h.order(c, domain.SideBuy)
}

// Sell POST /api/v1/trading/sell
func (h *Handlers) Sell(c *fiber.Ctx) error {
	return h.order(c, domain.SideSell)
}

func (h *Handlers) order(c *fiber.Ctx, side string) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if details := validation.Struct(req); details != nil {
		return response.BadRequest(c, "Ticker and a positive quantity are required", details)
	}
	ticker := domain.NormalizeTicker(req.Ticker)

	price, source, err := h.resolvePrice(c.UserContext(), id, ticker)
	if err != nil {
		middleware.Logger(c).Warn().Err(err).Str("ticker", ticker).Str("side", side).Msg("Order rejected, no price")
		return response.Error(c, "Cannot "+side+": current price unavailable", fiber.StatusServiceUnavailable, fiber.Map{"ticker": ticker})
	}

	var res *ledger.OrderResult
	if side == domain.SideBuy {
		res, err = h.Ledger.Buy(c.UserContext(), id, ticker, req.Quantity, price)
	} else {
		res, err = h.Ledger.Sell(c.UserContext(), id, ticker, req.Quantity, price)
	}
	if err != nil {
		return writeError(c, err)
	}
	msg := "Bought " + decimal.NewFromInt(req.Quantity).String() + " shares of " + ticker
	if side == domain.SideSell {
		msg = "Sold " + decimal.NewFromInt(req.Quantity).String() + " shares of " + ticker
	}
	return response.Success(c, msg, res, fiber.Map{"price_source": source})
}

// resolvePrice prefers the caller's live-session price, then the gateway.
func (h *Handlers) resolvePrice(ctx context.Context, id uuid.UUID, ticker string) (decimal.Decimal, string, error) {
	if h.Live != nil {
		if p, ok := h.Live.LastPrice(id, ticker); ok {
			return p, "live", nil
		}
	}
	if h.Market == nil {
		return decimal.Zero, "", errors.New("no market data source")
	}
	p, err := h.Market.LatestPrice(ctx, ticker)
	if err != nil {
		return decimal.Zero, "", err
	}
	if !p.IsPositive() {
		return decimal.Zero, "", domain.ErrInvalidPrice
	}
	return p, "market", nil
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrHoldingNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrInvalidTicker), errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	}
	return err
}
