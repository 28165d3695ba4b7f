package market

import (
	"context"
	"errors"
	"time"

	marketsvc "traderiser-backend/internal/application/market"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/pkg/response"
	"traderiser-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"
)

const (
	defaultPeriod   = "1mo"
	defaultInterval = "1d"
	maxNews         = 10
)

// Gateway is the market-data surface these handlers read from.
type Gateway interface {
	Quote(ctx context.Context, ticker string) (marketsvc.Quote, error)
	History(ctx context.Context, ticker, period, interval string) ([]marketsvc.Bar, error)
	Headlines(ctx context.Context, ticker string, limit int) ([]marketsvc.Headline, error)
	Movers(ctx context.Context) ([]marketsvc.Mover, error)
	SectorPerformance(ctx context.Context) ([]marketsvc.SectorPerformance, error)
}

type Handlers struct {
	Gateway Gateway
}

// StatusFor maps a gateway failure to an HTTP status.
func StatusFor(err error) int {
	switch marketsvc.KindOf(err) {
	case marketsvc.KindNotFound, marketsvc.KindNoData:
		return fiber.StatusNotFound
	case marketsvc.KindRateLimited:
		return fiber.StatusTooManyRequests
	case "":
		if errors.Is(err, marketsvc.ErrInvalidPeriod) || errors.Is(err, marketsvc.ErrInvalidInterval) {
			return fiber.StatusBadRequest
		}
		if errors.Is(err, marketsvc.ErrNoMarketData) {
			return fiber.StatusServiceUnavailable
		}
		return fiber.StatusInternalServerError
	}
	return fiber.StatusBadGateway
}

func writeError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		return err
	}
	details := map[string]string{}
	if kind := marketsvc.KindOf(err); kind != "" {
		details["kind"] = string(kind)
	}
	return response.Error(c, err.Error(), status, details)
}

func ticker(c *fiber.Ctx) (string, bool) {
	t := domain.NormalizeTicker(utils.CopyString(c.Params("ticker")))
	return t, validation.IsValidTicker(t)
}

// Quote GET /api/v1/market/quote/:ticker
func (h *Handlers) Quote(c *fiber.Ctx) error {
	t, ok := ticker(c)
	if !ok {
		return response.BadRequest(c, domain.ErrInvalidTicker.Error(), nil)
	}
	q, err := h.Gateway.Quote(c.UserContext(), t)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Quote retrieved", q, fiber.Map{"change_pct": q.ChangePct()})
}

// History GET /api/v1/market/history/:ticker?period=&interval=&fallback=true
// With fallback=true a failed fetch returns one placeholder candle flagged degraded.
func (h *Handlers) History(c *fiber.Ctx) error {
	t, ok := ticker(c)
	if !ok {
		return response.BadRequest(c, domain.ErrInvalidTicker.Error(), nil)
	}
	period := c.Query("period", defaultPeriod)
	interval := c.Query("interval", defaultInterval)
	bars, err := h.Gateway.History(c.UserContext(), t, period, interval)
	if err != nil {
		if StatusFor(err) == fiber.StatusBadRequest || !c.QueryBool("fallback") {
			return writeError(c, err)
		}
		log.Warn().Err(err).Str("ticker", t).Msg("History unavailable, serving placeholder candle")
		bars = []marketsvc.Bar{marketsvc.PlaceholderBar(time.Now().UTC())}
		return response.Success(c, "History unavailable, placeholder served", bars,
			fiber.Map{"degraded": true, "period": period, "interval": interval, "error_kind": marketsvc.KindOf(err)})
	}
	return response.Success(c, "History retrieved", bars,
		fiber.Map{"degraded": false, "period": period, "interval": interval, "count": len(bars)})
}

// News GET /api/v1/market/news?ticker=&limit=
// Provider failures fall back to the canned headline list.
func (h *Handlers) News(c *fiber.Ctx) error {
	t := domain.NormalizeTicker(c.Query("ticker"))
	if t != "" && !validation.IsValidTicker(t) {
		return response.BadRequest(c, domain.ErrInvalidTicker.Error(), nil)
	}
	limit := c.QueryInt("limit", 5)
	if limit < 1 || limit > maxNews {
		limit = 5
	}
	items, err := h.Gateway.Headlines(c.UserContext(), t, limit)
	if err != nil {
		log.Warn().Err(err).Str("ticker", t).Msg("Headlines unavailable, serving fallback")
		return response.Success(c, "Headlines retrieved", marketsvc.SampleFallbackHeadlines(limit), fiber.Map{"degraded": true})
	}
	return response.Success(c, "Headlines retrieved", items, fiber.Map{"degraded": false})
}

// Movers GET /api/v1/market/movers
func (h *Handlers) Movers(c *fiber.Ctx) error {
	movers, err := h.Gateway.Movers(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Top movers", movers, fiber.Map{"count": len(movers)})
}

// Sectors GET /api/v1/market/sectors
func (h *Handlers) Sectors(c *fiber.Ctx) error {
	sectors, err := h.Gateway.SectorPerformance(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Sector performance", sectors, fiber.Map{"count": len(sectors)})
}
