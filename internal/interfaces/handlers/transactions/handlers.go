package transactions

import (
	"strconv"

	"traderiser-backend/internal/application/ledger"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const maxLimit = 500

type Handlers struct {
	Ledger *ledger.Service
}

// GetTransactions GET /api/v1/transactions?limit=N returns the log in append
// order; with a limit, only the most recent N.
func (h *Handlers) GetTransactions(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > maxLimit {
			return response.BadRequest(c, "limit must be an integer between 0 and 500", nil)
		}
		limit = n
	}
	txs, err := h.Ledger.Transactions(c.UserContext(), id, limit)
	if err != nil {
		return err
	}
	return response.Success(c, "Transactions fetched successfully", txs, fiber.Map{"count": len(txs)})
}
