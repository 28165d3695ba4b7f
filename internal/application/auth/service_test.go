package auth

import (
	"context"
	"testing"

	"traderiser-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestVerifyUser_Nil(t *testing.T) {
	u, err := VerifyUser(nil)
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_NoAccountID(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{"username": "bob"})
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_Valid(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"account_id": "550e8400-e29b-41d4-a716-446655440000",
		"username":   "bob",
		"email":      "bob@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", u.AccountID)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "bob@example.com", u.Email)
}

func TestAuthenticate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret#123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Account{Username: "bob", PasswordHash: string(hash), CashBalance: decimal.NewFromInt(10000)}).Error)

	ctx := context.Background()
	finder := &GormAccountFinder{DB: db}

	a, err := finder.FindByCredentials(ctx, "bob", "Secret#123")
	require.NoError(t, err)
	assert.Equal(t, "bob", a.Username)

	_, err = finder.FindByCredentials(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = finder.FindByCredentials(ctx, "nobody", "Secret#123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = finder.FindByCredentials(ctx, "", "x")
	assert.ErrorIs(t, err, ErrUsernamePasswordRequired)
}
