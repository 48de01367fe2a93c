package core

import (
	"errors"
)

var (
	ErrNotInitialized = errors.New("engine not initialized")
	ErrUnknownBackend = errors.New("unknown renderer backend")
	ErrUnknown        = errors.New("unknown")
)
