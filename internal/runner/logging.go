package runner

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stampedehq/stampede/internal/executor"
)

// loggingRequester wraps a Requester with failure logging.
type loggingRequester struct {
	inner  Requester
	logger zerolog.Logger
}

// WithFailureLogging wraps a Requester so every failed outcome is logged.
// Outcomes abandoned by cancellation stay silent, matching how the engine
// drops them from the results.
func WithFailureLogging(req Requester, logger zerolog.Logger) Requester {
	return &loggingRequester{inner: req, logger: logger}
}

func (l *loggingRequester) Execute(ctx context.Context) executor.Outcome {
	out := l.inner.Execute(ctx)
	if !out.Success() && !out.Canceled() {
		l.logger.Warn().
			Err(out.Err).
			Str("failure", out.FailureLabel()).
			Dur("latency", out.Latency).
			Msg("Request failed")
	}
	return out
}
