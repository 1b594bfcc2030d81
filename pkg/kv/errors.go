package kv

import "errors"

var (
	ErrNotFound    = errors.New("kv: key not found")
	ErrEmptyKey    = errors.New("kv: empty key")
	ErrUnavailable = errors.New("kv: store unavailable")
)
