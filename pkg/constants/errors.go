package constants

import "errors"

// Errors
var (
	ErrInvalidResponse = errors.New("invalid response from the workspace protocol")
	ErrNotFound        = errors.New("record not found")
)

var (
	ErrTimeout         = errors.New("timeout")
	ErrNoBaseURL       = errors.New("base url not set")
	ErrNoCredentials   = errors.New("session token not set")
	ErrUnknownEndpoint = errors.New("unknown protocol endpoint")
	ErrNotStreaming    = errors.New("endpoint does not stream")
	ErrStreamingOnly   = errors.New("endpoint only answers with a stream")
)
