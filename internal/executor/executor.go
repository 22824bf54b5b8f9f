package executor

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stampedehq/stampede/internal/config"
	"github.com/stampedehq/stampede/internal/tracing"
)

// Executor issues single requests against the configured target and turns
// every attempt into an Outcome. It never records metrics itself; callers
// own aggregation.
type Executor struct {
	client    *http.Client
	builder   *RequestBuilder
	tracer    trace.Tracer
	propagate bool
}

// New builds an Executor from configuration. The provider may be nil, in
// which case spans are no-ops and no trace headers are injected.
func New(cfg *config.Config, client *http.Client, provider *tracing.Provider) (*Executor, error) {
	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		return nil, err
	}
	return &Executor{
		client:    client,
		builder:   builder,
		tracer:    provider.Tracer(),
		propagate: provider.ShouldPropagate(),
	}, nil
}

// Target returns the URL under test.
func (e *Executor) Target() string {
	return e.builder.Target()
}

// CloseIdleConnections releases pooled connections on the underlying client.
func (e *Executor) CloseIdleConnections() {
	e.client.CloseIdleConnections()
}

// Execute performs one request. Latency covers the full exchange including
// reading the response body to EOF, so a completed outcome means the whole
// payload arrived.
func (e *Executor) Execute(ctx context.Context) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := tracing.StartRequestSpan(ctx, e.tracer, e.builder.Method(), e.builder.Target())
	start := time.Now()

	req, err := e.builder.Build(ctx)
	if err != nil {
		return e.fail(span, err, time.Since(start))
	}
	if e.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return e.fail(span, err, time.Since(start))
	}

	// Drain before stopping the clock: the response is only complete once the
	// body is read, and a drained body lets the connection be reused.
	_, copyErr := io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	latency := time.Since(start)

	if copyErr != nil {
		return e.fail(span, copyErr, latency)
	}

	tracing.EndSpan(span, nil, attribute.Int("http.response.status_code", resp.StatusCode))
	return Outcome{StatusCode: resp.StatusCode, Latency: latency}
}

func (e *Executor) fail(span trace.Span, err error, latency time.Duration) Outcome {
	out := Classify(err, latency)
	tracing.EndSpan(span, err)
	return out
}
