package domain

import "errors"

// ErrConfiguration marks batch-level validation failures. Nothing is simulated
// when it is returned.
var ErrConfiguration = errors.New("configuration error")
