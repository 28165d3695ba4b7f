package alerts

import "errors"

var ErrInvalidTarget = errors.New("Target price must be greater than zero")
