package analysis

import "errors"

var (
	ErrUnsupportedModel = errors.New("Unsupported forecast model (use linear or polynomial)")
	ErrInsufficientData = errors.New("Not enough price history to fit the model")
	ErrInvalidDays      = errors.New("Forecast days must be between 1 and 365")
	ErrSingularFit      = errors.New("Price history is degenerate, cannot fit")
	ErrInvalidPosition  = errors.New("Entry price, stop loss and position size must be positive")
)
