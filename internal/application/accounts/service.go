package accounts

import (
	"context"
	"errors"
	"strings"

	"traderiser-backend/internal/application/emails"
	"traderiser-backend/internal/domain"
	"traderiser-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Service owns account registration, profile edits, the watchlist and the
// premium waitlist.
type Service struct {
	DB              *gorm.DB
	Rdb             *redis.Client // optional; used to drop sessions after a password change
	Mailer          emails.Sender // optional
	StartingBalance decimal.Decimal
}

type RegisterInput struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Registration is the created account plus a non-fatal warning (welcome mail failure).
type Registration struct {
	Account *domain.Account
	Warning string
}

// Register creates an account credited with the starting balance.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validation.IsValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrInvalidPassword
	}
	if s.usernameTaken(ctx, username) {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	acct := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CashBalance:  s.StartingBalance,
	}
	acct.SetWatchlist(nil)
	if err := s.DB.WithContext(ctx).Create(acct).Error; err != nil {
		if s.usernameTaken(ctx, username) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	log.Info().Str("account_id", acct.AccountID.String()).Str("username", username).Msg("Account registered")

	reg := &Registration{Account: acct}
	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, email, username, s.StartingBalance); err != nil {
			log.Warn().Err(err).Str("account_id", acct.AccountID.String()).Msg("Welcome email failed")
			reg.Warning = "Account created, but the welcome email could not be sent"
		}
	}
	return reg, nil
}

func (s *Service) usernameTaken(ctx context.Context, username string) bool {
	var n int64
	s.DB.WithContext(ctx).Model(&domain.Account{}).Where("username = ?", username).Count(&n)
	return n > 0
}

// Get returns the account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var a domain.Account
	if err := s.DB.WithContext(ctx).Where("account_id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

type ProfileInput struct {
	Email           *string `json:"email"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

// ProfileUpdate reports whether the password changed; if so every session of
// the account has been destroyed.
type ProfileUpdate struct {
	Account         *domain.Account
	PasswordChanged bool
}

// UpdateProfile changes e-mail and/or password. Both require the current password.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*ProfileUpdate, error) {
	if in.Email == nil && in.NewPassword == "" {
		return nil, ErrNoProfileChanges
	}
	acct, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return nil, ErrIncorrectPassword
	}

	upd := map[string]interface{}{}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, ErrEmailRequired
		}
		if !validation.IsValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		upd["email"] = email
	}
	if in.NewPassword != "" {
		if !validation.IsValidPassword(in.NewPassword) {
			return nil, ErrInvalidPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcryptCost)
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = string(hash)
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Account{}).Where("account_id = ?", id).Updates(upd).Error; err != nil {
		return nil, err
	}

	out := &ProfileUpdate{PasswordChanged: in.NewPassword != ""}
	if out.PasswordChanged && s.Rdb != nil {
		DestroyAccountSessions(ctx, s.Rdb, id.String())
	}
	if out.Account, err = s.Get(ctx, id); err != nil {
		return nil, err
	}
	return out, nil
}

// JoinWaitlist sends the premium waitlist confirmation.
func (s *Service) JoinWaitlist(ctx context.Context, id uuid.UUID) error {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if acct.Email == "" {
		return ErrEmailRequired
	}
	if s.Mailer == nil {
		return ErrEmailUnavailable
	}
	if err := s.Mailer.SendWaitlistConfirmation(ctx, acct.Email, acct.Username); err != nil {
		return err
	}
	log.Info().Str("account_id", id.String()).Msg("Joined premium waitlist")
	return nil
}
