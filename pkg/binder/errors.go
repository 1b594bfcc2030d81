package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrInvalidForm          = errors.New("failed to parse form data")
	ErrInvalidQuery         = errors.New("failed to parse query parameters")
	ErrInvalidJSON          = errors.New("failed to parse json body")
	ErrInvalidTarget        = errors.New("binding target must be a non-nil pointer to struct")
)
