package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrNotConfigured         = errors.New("authenticated access not configured")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUpstream              = errors.New("upstream request failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
