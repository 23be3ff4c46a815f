package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidRule   = errors.New("invalid rule")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrExport        = errors.New("export failed")
	ErrNilWriter     = errors.New("nil trace writer")
)
