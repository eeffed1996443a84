package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNoPersonaSelected = errors.New("no persona selected")
	ErrVoiceDisabled     = errors.New("voice bridge is not configured")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("service unavailable")
)
