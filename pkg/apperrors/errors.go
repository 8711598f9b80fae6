package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrFreeLimitReached = errors.New("free tier post limit reached")
	ErrPlatformLimit    = errors.New("platform character limit exceeded")
	ErrNotConnected     = errors.New("social account not connected")
	ErrEmptyTranscript  = errors.New("transcript is empty")
	ErrInvalidRange     = errors.New("selection range out of bounds")
)
