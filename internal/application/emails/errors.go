package emails

import "errors"

var ErrNoRecipient = errors.New("email: no recipient address")
