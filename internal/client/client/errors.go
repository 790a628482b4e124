package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnknownUser  = errors.New("unknown user")
	ErrBadRequest   = errors.New("bad request")
)
