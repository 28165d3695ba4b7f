package accounts

import "errors"

var (
	ErrUsernameTaken     = errors.New("Username already exists")
	ErrInvalidUsername   = errors.New("Username must be 3-32 letters, digits, dots, dashes or underscores")
	ErrPasswordMismatch  = errors.New("Passwords do not match")
	ErrInvalidPassword   = errors.New("Password must be at least 8 characters and include a letter, a number and a symbol")
	ErrEmailRequired     = errors.New("Email is required")
	ErrInvalidEmail      = errors.New("Invalid email format")
	ErrIncorrectPassword = errors.New("Current password is incorrect")
	ErrNoProfileChanges  = errors.New("No profile changes provided")
	ErrEmailUnavailable  = errors.New("Email delivery is not configured")
)
