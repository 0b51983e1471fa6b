package store

import "errors"

// Sentinels carry no stack; call sites attach context with pkg/errors.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("alert not found")
)
