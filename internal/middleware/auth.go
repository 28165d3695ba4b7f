package middleware

import (
	"traderiser-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the raw session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentUser decodes the session user. Handlers under RequireAuth can rely on ok.
func CurrentUser(c *fiber.Ctx) (SessionUser, bool) {
	switch u := c.Locals(userLocal).(type) {
	case SessionUser:
		return u, u.AccountID != ""
	case map[string]interface{}:
		su := SessionUser{}
		su.AccountID, _ = u["account_id"].(string)
		su.Username, _ = u["username"].(string)
		su.Email, _ = u["email"].(string)
		return su, su.AccountID != ""
	}
	return SessionUser{}, false
}

// CurrentAccountID returns the logged-in account id.
func CurrentAccountID(c *fiber.Ctx) (uuid.UUID, bool) {
	u, ok := CurrentUser(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(u.AccountID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
