package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("Account not found")
	ErrInvalidTicker      = errors.New("Invalid ticker symbol")
	ErrInvalidQuantity    = errors.New("Quantity must be greater than zero")
	ErrInvalidPrice       = errors.New("Price must be greater than zero")
	ErrInsufficientFunds  = errors.New("Insufficient funds")
	ErrHoldingNotFound    = errors.New("No holding found for this ticker")
	ErrInsufficientShares = errors.New("Insufficient shares to sell")
	ErrConcurrentUpdate   = errors.New("Account was modified concurrently, please retry")
	ErrAlertNotFound      = errors.New("Alert not found")
)
