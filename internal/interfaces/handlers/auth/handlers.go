package auth

import (
	"context"
	"errors"

	"traderiser-backend/internal/application/accounts"
	authsvc "traderiser-backend/internal/application/auth"
	"traderiser-backend/internal/middleware"
	"traderiser-backend/internal/pkg/response"
	"traderiser-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Accounts *accounts.Service
	Finder   authsvc.AccountFinder
	Rdb      *redis.Client
	Config   middleware.SessionConfig
}

// Register POST /api/v1/auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in accounts.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if details := validation.Struct(in); details != nil {
		return response.BadRequest(c, "Username, email, password and confirm_password are required", details)
	}
	reg, err := h.Accounts.Register(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUsernameTaken):
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		case errors.Is(err, accounts.ErrInvalidUsername), errors.Is(err, accounts.ErrInvalidEmail),
			errors.Is(err, accounts.ErrEmailRequired), errors.Is(err, accounts.ErrInvalidPassword),
			errors.Is(err, accounts.ErrPasswordMismatch):
			return response.BadRequest(c, err.Error(), nil)
		}
		return err
	}
	meta := fiber.Map{}
	if reg.Warning != "" {
		meta["warnings"] = []string{reg.Warning}
	}
	return response.SuccessCreated(c, "Account created successfully", fiber.Map{"account": reg.Account}, meta)
}

// Login POST /api/v1/auth/login: authenticate, start a fresh session, track it
// in user_sessions:<account_id> and set the cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Finder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		return response.BadRequest(c, authsvc.ErrUsernamePasswordRequired.Error(), nil)
	}

	acct, err := h.Finder.FindByCredentials(c.UserContext(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrUsernamePasswordRequired):
			return response.BadRequest(c, err.Error(), nil)
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			return response.Unauthorized(c, err.Error())
		}
		return err
	}

	sessionID := middleware.RegenerateSessionID(c)
	user := middleware.SessionUser{
		AccountID: acct.AccountID.String(),
		Username:  acct.Username,
		Email:     acct.Email,
	}
	middleware.SetSessionUser(c, user)

	if err := h.Rdb.SAdd(context.Background(), middleware.UserSessionsPrefix+user.AccountID, sessionID).Err(); err != nil {
		return err
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	log.Info().Str("account_id", user.AccountID).Msg("Login")
	return response.Success(c, "Login successful", fiber.Map{"user": user}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		log.Debug().Bool("session_id_present", middleware.GetSessionID(c) != "").Msg("auth/me: not authenticated")
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if u, ok := middleware.CurrentUser(c); ok && sessionID != "" {
		_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+u.AccountID, sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}
