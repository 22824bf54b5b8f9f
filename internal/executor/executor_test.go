package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stampedehq/stampede/internal/config"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		TargetURL: url,
		Method:    "GET",
		Users:     1,
		Duration:  time.Second,
		Timeout:   5 * time.Second,
	}
}

func TestNewRequestBuilderHeaders(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.Headers = map[string]string{
		"content-type": "application/json",
		"x-api-key":    "secret",
	}

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}

	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := req.Header.Get("X-Api-Key"); got != "secret" {
		t.Errorf("X-Api-Key = %q, want secret", got)
	}
}

func TestNewRequestBuilderRejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"empty key", map[string]string{"": "v"}},
		{"newline in key", map[string]string{"X-Bad\nKey": "v"}},
		{"newline in value", map[string]string{"X-Key": "v\r\nInjected: yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("https://example.com")
			cfg.Headers = tt.headers
			if _, err := NewRequestBuilder(cfg); err == nil {
				t.Fatal("NewRequestBuilder() error = nil, want error")
			}
		})
	}
}

func TestNewRequestBuilderMethodDefaults(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.Method = " post "

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	if builder.Method() != "POST" {
		t.Errorf("Method() = %q, want POST", builder.Method())
	}

	cfg.Method = ""
	builder, err = NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	if builder.Method() != "GET" {
		t.Errorf("Method() = %q, want GET", builder.Method())
	}
}

func TestBuildSkipsBodyForGET(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.Body = `{"ignored":true}`

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}

	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.Body != nil {
		t.Error("GET request carries a body, want none")
	}
	if req.ContentLength != 0 {
		t.Errorf("ContentLength = %d, want 0", req.ContentLength)
	}
}

func TestBuildAttachesBodyForPOST(t *testing.T) {
	cfg := testConfig("https://example.com")
	cfg.Method = "POST"
	cfg.Body = `{"k":"v"}`

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}

	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.ContentLength != int64(len(cfg.Body)) {
		t.Errorf("ContentLength = %d, want %d", req.ContentLength, len(cfg.Body))
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("reading request body: %v", err)
	}
	if string(data) != cfg.Body {
		t.Errorf("body = %q, want %q", data, cfg.Body)
	}
}

func TestExecuteRecordsStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"ok", http.StatusOK},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("response payload"))
			}))
			defer srv.Close()

			exec := newTestExecutor(t, testConfig(srv.URL))
			out := exec.Execute(context.Background())

			if !out.Success() {
				t.Fatalf("Execute() outcome = %+v, want success", out)
			}
			if out.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.statusCode)
			}
			if out.Latency <= 0 {
				t.Errorf("Latency = %v, want > 0", out.Latency)
			}
		})
	}
}

func TestExecuteSendsConfiguredRequest(t *testing.T) {
	var gotMethod, gotBody, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Token")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Method = "POST"
	cfg.Body = `{"n":1}`
	cfg.Headers = map[string]string{"X-Token": "abc123"}

	exec := newTestExecutor(t, cfg)
	out := exec.Execute(context.Background())

	if !out.Success() {
		t.Fatalf("Execute() outcome = %+v, want success", out)
	}
	if gotMethod != "POST" {
		t.Errorf("server saw method %q, want POST", gotMethod)
	}
	if gotBody != `{"n":1}` {
		t.Errorf("server saw body %q, want %q", gotBody, `{"n":1}`)
	}
	if gotHeader != "abc123" {
		t.Errorf("server saw X-Token %q, want abc123", gotHeader)
	}
}

func TestExecuteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	exec := newTestExecutor(t, cfg)
	out := exec.Execute(context.Background())

	if out.Category != FailureTimeout {
		t.Fatalf("Category = %v, want FailureTimeout (err=%v)", out.Category, out.Err)
	}
	if out.FailureLabel() != "Timeout" {
		t.Errorf("FailureLabel() = %q, want Timeout", out.FailureLabel())
	}
}

func TestExecuteConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	exec := newTestExecutor(t, testConfig(url))
	out := exec.Execute(context.Background())

	if out.Category != FailureConnection {
		t.Fatalf("Category = %v, want FailureConnection (err=%v)", out.Category, out.Err)
	}
	if out.FailureLabel() != "Connection Error" {
		t.Errorf("FailureLabel() = %q, want Connection Error", out.FailureLabel())
	}
}

func TestExecuteCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	exec := newTestExecutor(t, testConfig(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out := exec.Execute(ctx)
	if !out.Canceled() {
		t.Fatalf("Canceled() = false, Category = %v (err=%v)", out.Category, out.Err)
	}
}

func TestExecuteLatencyCoversBodyRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("first chunk"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(120 * time.Millisecond)
		_, _ = w.Write([]byte("second chunk"))
	}))
	defer srv.Close()

	exec := newTestExecutor(t, testConfig(srv.URL))
	out := exec.Execute(context.Background())

	if !out.Success() {
		t.Fatalf("Execute() outcome = %+v, want success", out)
	}
	// The clock must not stop at the response headers.
	if out.Latency < 100*time.Millisecond {
		t.Errorf("Latency = %v, want >= 100ms (body read included)", out.Latency)
	}
}

func newTestExecutor(t *testing.T, cfg *config.Config) *Executor {
	t.Helper()
	exec, err := New(cfg, NewClient(cfg.Timeout, cfg.Users), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return exec
}
