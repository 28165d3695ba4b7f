package account

import (
	"context"
	"errors"

	"traderiser-backend/internal/application/accounts"
	"traderiser-backend/internal/application/market"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// QuoteFetcher resolves watchlist quotes concurrently.
type QuoteFetcher interface {
	Quotes(ctx context.Context, tickers []string) []market.QuoteResult
}

type Handlers struct {
	Service *accounts.Service
	Quotes  QuoteFetcher
	Config  middleware.SessionConfig
}

func (h *Handlers) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, accounts.ErrIncorrectPassword):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, accounts.ErrEmailUnavailable):
		return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, accounts.ErrInvalidEmail), errors.Is(err, accounts.ErrEmailRequired),
		errors.Is(err, accounts.ErrInvalidPassword), errors.Is(err, accounts.ErrNoProfileChanges),
		errors.Is(err, domain.ErrInvalidTicker):
		return response.BadRequest(c, err.Error(), nil)
	}
	return err
}

// Profile GET /api/v1/account
func (h *Handlers) Profile(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	acct, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Account retrieved", fiber.Map{"account": acct}, nil)
}

// UpdateProfile PATCH /api/v1/account. A password change ends every session,
// including this one.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in accounts.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	upd, err := h.Service.UpdateProfile(c.UserContext(), id, in)
	if err != nil {
		return h.writeError(c, err)
	}
	if upd.PasswordChanged {
		middleware.DestroySession(c)
		cookie := middleware.SessionCookieConfig(h.Config)
		cookie.MaxAge = -1
		c.Cookie(&cookie)
		return response.Success(c, "Password changed, please log in again", fiber.Map{"account": upd.Account}, nil)
	}
	middleware.SetSessionUser(c, middleware.SessionUser{
		AccountID: upd.Account.AccountID.String(),
		Username:  upd.Account.Username,
		Email:     upd.Account.Email,
	})
	return response.Success(c, "Profile updated", fiber.Map{"account": upd.Account}, nil)
}

// JoinWaitlist POST /api/v1/account/waitlist
func (h *Handlers) JoinWaitlist(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	if err := h.Service.JoinWaitlist(c.UserContext(), id); err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "You have joined the premium waitlist", nil, nil)
}

type watchItem struct {
	Ticker    string        `json:"ticker"`
	Quote     *market.Quote `json:"quote"`
	ChangePct *float64      `json:"change_pct,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorKind market.Kind   `json:"error_kind,omitempty"`
}

// Watchlist GET /api/v1/watchlist: tickers with quotes; per-ticker failures inline.
func (h *Handlers) Watchlist(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	tickers, err := h.Service.Watchlist(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	items := make([]watchItem, 0, len(tickers))
	if h.Quotes != nil && len(tickers) > 0 {
		for _, r := range h.Quotes.Quotes(c.UserContext(), tickers) {
			item := watchItem{Ticker: r.Ticker, Quote: r.Quote}
			if r.Err != nil {
				item.Error = r.Err.Error()
				item.ErrorKind = market.KindOf(r.Err)
			} else if r.Quote != nil {
				pct := r.Quote.ChangePct()
				item.ChangePct = &pct
			}
			items = append(items, item)
		}
	} else {
		for _, t := range tickers {
			items = append(items, watchItem{Ticker: t})
		}
	}
	return response.Success(c, "Watchlist retrieved", items, fiber.Map{"count": len(items)})
}

// AddToWatchlist POST /api/v1/watchlist {ticker}
func (h *Handlers) AddToWatchlist(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Ticker string `json:"ticker"`
	}
	if err := c.BodyParser(&body); err != nil || body.Ticker == "" {
		return response.BadRequest(c, "Ticker is required", nil)
	}
	list, err := h.Service.AddToWatchlist(c.UserContext(), id, body.Ticker)
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Added to watchlist", fiber.Map{"watchlist": list}, nil)
}

// RemoveFromWatchlist DELETE /api/v1/watchlist/:ticker
func (h *Handlers) RemoveFromWatchlist(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.RemoveFromWatchlist(c.UserContext(), id, utils.CopyString(c.Params("ticker")))
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Removed from watchlist", fiber.Map{"watchlist": list}, nil)
}
