package errors

import "errors"

var (
	ErrDataErrorDetected = errors.New("data error detected")
	ErrRuleNotFound      = errors.New("rule not found")
	ErrCacheMiss         = errors.New("rule cache miss")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrStoreUnavailable  = errors.New("rule store unavailable")
)
