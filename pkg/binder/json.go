package binder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxJSONBody bounds JSON request bodies.
const MaxJSONBody = 1 << 20

// JSON decodes an application/json body into v using `json` tags.
// Unknown fields are ignored.
func JSON() Func {
	return func(r *http.Request, v any) error {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return ErrMissingContentType
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if mediaType != "application/json" {
			return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
		}
		if r.Body == nil {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, MaxJSONBody+1))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if len(body) > MaxJSONBody {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidJSON, MaxJSONBody)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return nil
	}
}

// Body picks JSON for application/json requests and Form for everything else.
func Body() Func {
	form, js := Form(), JSON()
	return func(r *http.Request, v any) error {
		if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == "application/json" {
			return js(r, v)
		}
		return form(r, v)
	}
}
