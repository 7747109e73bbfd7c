package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// JSONResponse is the raw outcome of a JSON POST.
type JSONResponse struct {
	Status int
	Body   []byte
}

// PostJSON marshals payload, sends it with the headers set by decorate and returns the
// status and a copy of the body. A transport failure is returned as a TransientError.
func PostJSON(doer Doer, op, url string, payload any, decorate func(*fasthttp.Request), timeout time.Duration) (*JSONResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	if decorate != nil {
		decorate(req)
	}
	req.SetBody(body)

	if err := doer.DoTimeout(req, resp, timeout); err != nil {
		return nil, &TransientError{Op: op, Err: err}
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return &JSONResponse{Status: resp.StatusCode(), Body: out}, nil
}

// Truncate shortens s to at most n bytes for log lines.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
