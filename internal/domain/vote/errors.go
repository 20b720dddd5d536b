package vote

import "errors"

// ErrInvalidValue indicates a vote value other than approve or reject.
var ErrInvalidValue = errors.New("invalid vote value")
