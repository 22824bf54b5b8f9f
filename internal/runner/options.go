package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stampedehq/stampede/internal/config"
	"github.com/stampedehq/stampede/internal/executor"
	"github.com/stampedehq/stampede/internal/metrics"
)

// Requester abstracts executing a single request attempt. Implementations
// classify their own failures into the returned Outcome, so the engine never
// inspects errors itself.
type Requester interface {
	Execute(ctx context.Context) executor.Outcome
}

// Options configure the Orchestrator.
type Options struct {
	Config         *config.Config              // run definition (required)
	Requester      Requester                   // request executor (required)
	Aggregator     *metrics.Aggregator         // outcome sink (required)
	Logger         zerolog.Logger              // lifecycle events (zero value is silent)
	Grace          time.Duration               // drain window for in-flight requests after stop (default 1s)
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Grace <= 0 {
		o.Grace = time.Second
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing across users.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
