package auth

import (
	"context"
	"errors"
	"strings"

	"traderiser-backend/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionUserShape is the object stored in session and returned by /me.
type SessionUserShape struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

// AccountFinder abstracts credential lookup (GORM in production, doubles in tests).
type AccountFinder interface {
	FindByCredentials(ctx context.Context, username, password string) (*domain.Account, error)
}

// GormAccountFinder implements AccountFinder using GORM and bcrypt.
type GormAccountFinder struct{ DB *gorm.DB }

func (g *GormAccountFinder) FindByCredentials(ctx context.Context, username, password string) (*domain.Account, error) {
	return Authenticate(ctx, g.DB, LoginInput{Username: username, Password: password})
}

// Authenticate finds the account by username and verifies the bcrypt hash.
// Unknown usernames and wrong passwords return the same error.
func Authenticate(ctx context.Context, db *gorm.DB, input LoginInput) (*domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrUsernamePasswordRequired
	}
	var a domain.Account
	if err := db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if a.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &a, nil
}

// VerifyUser validates the session user and returns the shape for /me.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	id, _ := m["account_id"].(string)
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	return &SessionUserShape{
		AccountID: id,
		Username:  str(m["username"]),
		Email:     str(m["email"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
