package errs

import "errors"

// Domain sentinel errors, mapped to HTTP status codes in handlers.
var (
	ErrQuotaExhausted      = errors.New("youtube api quota exhausted")
	ErrInsufficientQuota   = errors.New("insufficient quota for refresh")
	ErrRefreshInProgress   = errors.New("refresh cycle already in progress")
	ErrChannelNotFound     = errors.New("channel not found")
	ErrChannelUnresolvable = errors.New("could not resolve channel from url")
	ErrInvalidQuery        = errors.New("invalid query")
)
