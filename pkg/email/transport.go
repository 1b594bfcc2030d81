package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrymomot/newsletter/pkg/httpretry"
)

const maxResponseBody = 1 << 20

type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r apiResponse) ok() bool { return r.status >= 200 && r.status < 300 }

func newRequest(ctx context.Context, endpoint, contentType string, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func do(doer httpretry.Doer, req *http.Request) (apiResponse, error) {
	resp, err := doer.Do(req)
	if err != nil {
		return apiResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return apiResponse{}, fmt.Errorf("read response: %w", err)
	}
	return apiResponse{status: resp.StatusCode, header: resp.Header, body: body}, nil
}
