// Package binder decodes form bodies, JSON bodies and query strings into
// tagged structs.
//
//	type importRequest struct {
//	    CSV  string                `form:"csv"`
//	    File *multipart.FileHeader `file:"csv"`
//	}
//
//	var req importRequest
//	if err := binder.Form()(r, &req); err != nil {
//	    // errors.Is(err, binder.ErrInvalidForm), ErrUnsupportedMediaType...
//	}
//
// JSON decodes with encoding/json and `json` tags; Body dispatches between
// JSON and Form on the Content-Type header.
//
// Supported form and query field types are string, signed integers, bool, pointers to
// those, and *multipart.FileHeader for uploads. Fields without a value are
// left untouched, so defaults can be set before binding.
package binder
