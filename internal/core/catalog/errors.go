package catalog

import "errors"

var (
	ErrEmptyCatalog  = errors.New("catalog has no entries")
	ErrDuplicateKind = errors.New("duplicate part kind")
	ErrUnknownKind   = errors.New("unknown part kind")
	ErrInvalidStep   = errors.New("invalid build step")
)
