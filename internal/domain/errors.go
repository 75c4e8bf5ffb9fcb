package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidBooking    = errors.New("invalid booking")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrEngineNotReady    = errors.New("search engine not ready")
)
