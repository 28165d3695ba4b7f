package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"traderiser-backend/internal/application/accounts"
	authsvc "traderiser-backend/internal/application/auth"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthHandlers(t *testing.T) (*Handlers, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))

	return &Handlers{
		Accounts: &accounts.Service{DB: db, StartingBalance: decimal.NewFromInt(10000)},
		Finder:   &authsvc.GormAccountFinder{DB: db},
		Rdb:      rdb,
		Config:   middleware.SessionConfig{},
	}, rdb
}

func post(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}, []string) {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, resp.Header.Values("Set-Cookie")
}

var registration = map[string]string{
	"username":         "trader1",
	"email":            "trader1@example.com",
	"password":         "Passw0rd!",
	"confirm_password": "Passw0rd!",
}

func TestRegisterThenLogin(t *testing.T) {
	h, rdb := setupAuthHandlers(t)
	app := fiber.New()
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)

	status, out, _ := post(t, app, "/register", registration)
	require.Equal(t, fiber.StatusCreated, status)
	acct := out["data"].(map[string]interface{})["account"].(map[string]interface{})
	assert.Equal(t, "trader1", acct["username"])
	assert.NotContains(t, acct, "password_hash")

	status, _, _ = post(t, app, "/register", registration)
	assert.Equal(t, fiber.StatusConflict, status)

	status, out, cookies := post(t, app, "/login", map[string]string{"username": "trader1", "password": "Passw0rd!"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Login successful", out["message"])
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "traderiser.sid=")

	keys, err := rdb.Keys(context.Background(), "user_sessions:*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestRegister_Validation(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	app := fiber.New()
	app.Post("/register", h.Register)

	status, out, _ := post(t, app, "/register", map[string]string{"username": "x"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "required", details["password"])

	bad := map[string]string{}
	for k, v := range registration {
		bad[k] = v
	}
	bad["confirm_password"] = "Other1!xx"
	status, out, _ = post(t, app, "/register", bad)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Passwords do not match", out["error"].(map[string]interface{})["message"])
}

func TestLogin_Failures(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	app := fiber.New()
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	status, _, _ := post(t, app, "/register", registration)
	require.Equal(t, fiber.StatusCreated, status)

	status, _, _ = post(t, app, "/login", map[string]string{"username": "trader1"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _, _ = post(t, app, "/login", map[string]string{"username": "trader1", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _, _ = post(t, app, "/login", map[string]string{"username": "ghost", "password": "Passw0rd!"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestLogin_NilFinder(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	h.Finder = nil
	app := fiber.New()
	app.Post("/login", h.Login)
	status, _, _ := post(t, app, "/login", map[string]string{"username": "a", "password": "b"})
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestMe(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	app := fiber.New()
	app.Get("/me", h.Me)
	app.Get("/me-auth", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"account_id": "550e8400-e29b-41d4-a716-446655440000",
			"username":   "trader1",
			"email":      "trader1@example.com",
		})
		return h.Me(c)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me-auth", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "trader1", user["username"])
}

func TestLogout_ClearsSession(t *testing.T) {
	h, rdb := setupAuthHandlers(t)
	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, middleware.SessionRedisPrefix+"sid-1", "{}", 0).Err())
	require.NoError(t, rdb.SAdd(ctx, middleware.UserSessionsPrefix+"acct-1", "sid-1").Err())

	app := fiber.New()
	app.Delete("/logout", func(c *fiber.Ctx) error {
		c.Locals("session_id", "sid-1")
		c.Locals("user", map[string]interface{}{"account_id": "acct-1"})
		return h.Logout(c)
	})
	resp, err := app.Test(httptest.NewRequest("DELETE", "/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	n, err := rdb.Exists(ctx, middleware.SessionRedisPrefix+"sid-1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	members, err := rdb.SMembers(ctx, middleware.UserSessionsPrefix+"acct-1").Result()
	require.NoError(t, err)
	assert.Empty(t, members)
}
