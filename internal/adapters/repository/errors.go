package repository

import "errors"

// Sentinel kinds for gateway errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrUnavailable   = errors.New("store unavailable")
	ErrReadOnly      = errors.New("write in read-only transaction")
)
