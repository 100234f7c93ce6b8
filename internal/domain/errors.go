package domain

import "errors"

var (
	ErrConfiguration        = errors.New("configuration error")
	ErrBackend              = errors.New("backend error")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrUserInput            = errors.New("invalid input")
	ErrGenerationInProgress = errors.New("generation already in progress")
)
