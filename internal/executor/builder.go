package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stampedehq/stampede/internal/config"
)

// bodyMethods are the verbs that carry a request body. A body configured for
// any other method is ignored, matching the CLI contract.
var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// RequestBuilder constructs identical requests for the configured target.
// Construction validates everything once so the per-request Build stays cheap.
type RequestBuilder struct {
	method  string
	target  string
	headers http.Header
	body    BodySource
}

func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	target := strings.TrimSpace(cfg.TargetURL)
	if target == "" {
		return nil, errors.New("no target URL")
	}
	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}

	headers, err := canonicalHeaders(cfg.Headers)
	if err != nil {
		return nil, err
	}

	b := &RequestBuilder{method: method, target: target, headers: headers}
	if bodyMethods[method] {
		if b.body, err = NewBodySource(cfg.Body, cfg.BodyFile); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// canonicalHeaders validates and canonicalizes the configured header map.
// CR and LF are rejected outright rather than sanitized.
func canonicalHeaders(raw map[string]string) (http.Header, error) {
	headers := http.Header{}
	for key, value := range raw {
		name := strings.TrimSpace(key)
		if name == "" || strings.ContainsAny(name, "\r\n") {
			return nil, fmt.Errorf("bad header name %q", key)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("bad value for header %s", name)
		}
		headers.Set(http.CanonicalHeaderKey(name), value)
	}
	return headers, nil
}

// Method returns the HTTP verb every built request uses.
func (b *RequestBuilder) Method() string {
	return b.method
}

// Target returns the URL every built request is sent to.
func (b *RequestBuilder) Target() string {
	return b.target
}

// Build assembles one request on ctx. Every call gets its own body reader,
// so concurrent requests never share read state.
func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("nil builder")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.ReadCloser
	if b.body != nil {
		var err error
		if reader, err = b.body.NewReader(); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, b.method, b.target, reader)
	if err != nil {
		if reader != nil {
			_ = reader.Close()
		}
		return nil, err
	}

	for name, values := range b.headers {
		for _, val := range values {
			req.Header.Add(name, val)
		}
	}
	if b.body != nil {
		req.ContentLength = b.body.ContentLength()
		req.GetBody = b.body.NewReader
	}
	return req, nil
}
