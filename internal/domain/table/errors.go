package table

import "errors"

// Sentinel kinds for table errors.
var (
	ErrShape          = errors.New("row width does not match header")
	ErrDuplicate      = errors.New("duplicate column name")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrExcludedColumn = errors.New("column is excluded from filtering")
	ErrKindMismatch   = errors.New("selection does not match column kind")
)
