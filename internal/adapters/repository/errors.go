package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound = errors.New("table file not found")
	ErrEmpty    = errors.New("table file has no header")
	ErrWrite    = errors.New("write table file")
	ErrRead     = errors.New("read table file")
)
