package binder

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Func binds request data into v, a pointer to a struct.
type Func func(r *http.Request, v any) error

const (
	// MaxFormMemory bounds the in-memory part of a multipart form.
	MaxFormMemory = 10 << 20
	// MaxFormBody bounds urlencoded bodies read outside net/http's parser.
	MaxFormBody = 10 << 20
)

// Form binds application/x-www-form-urlencoded and multipart/form-data bodies
// using `form:"name"` tags for values and `file:"name"` tags for uploads
// (*multipart.FileHeader). It works for DELETE requests too, whose bodies
// net/http does not parse on its own.
func Form() Func {
	return func(r *http.Request, v any) error {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return ErrMissingContentType
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}

		var (
			values url.Values
			files  map[string][]*multipart.FileHeader
		)

		switch mediaType {
		case "application/x-www-form-urlencoded":
			values, err = urlencodedBody(r)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
		case "multipart/form-data":
			if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
			values = url.Values(r.MultipartForm.Value)
			files = r.MultipartForm.File
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
		}

		return bindStruct(v, values, files, ErrInvalidForm)
	}
}

// Query binds URL query parameters using `query:"name"` tags.
func Query() Func {
	return func(r *http.Request, v any) error {
		return bindStruct(v, r.URL.Query(), nil, ErrInvalidQuery)
	}
}

func urlencodedBody(r *http.Request) (url.Values, error) {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	if r.Body == nil {
		return url.Values{}, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxFormBody+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxFormBody {
		return nil, fmt.Errorf("body exceeds %d bytes", MaxFormBody)
	}
	return url.ParseQuery(string(body))
}
