package cdr

import "errors"

var (
	ErrShortBuffer         = errors.New("cdr: buffer too short")
	ErrInvalidString       = errors.New("cdr: invalid string")
	ErrBoundExceeded       = errors.New("cdr: bound exceeded")
	ErrUnsupportedEncoding = errors.New("cdr: unsupported encoding")
	ErrUnbalancedStruct    = errors.New("cdr: unbalanced struct bracketing")
)
