package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed       = errors.New("server is closed")
	ErrUnknownOp          = errors.New("unknown operation")
	ErrMissingArgument    = errors.New("missing command argument")
	ErrInvalidPoint       = errors.New("pointer ray does not reach the ground plane")
	ErrRoomNotFound       = errors.New("room not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrHistoryUnavailable = errors.New("history unavailable")
)
