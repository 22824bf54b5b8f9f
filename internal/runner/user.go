package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/stampedehq/stampede/internal/metrics"
)

// user is a single simulated user driving the closed request loop: wait for
// a pacing slot, issue one request, record the outcome, sleep the think-time
// delay, repeat.
type user struct {
	requester Requester
	agg       *metrics.Aggregator
	limiter   *rate.Limiter
	delay     time.Duration
}

// run loops until runCtx is canceled. Requests are issued with reqCtx, which
// stays live through the drain window so an in-flight exchange can finish
// after the stop decision. Outcomes abandoned by cancellation are dropped
// rather than recorded.
func (u *user) run(runCtx, reqCtx context.Context) {
	for {
		if runCtx.Err() != nil {
			return
		}
		if u.limiter != nil {
			if err := u.limiter.Wait(runCtx); err != nil {
				return
			}
		}
		out := u.requester.Execute(reqCtx)
		if !out.Canceled() {
			u.agg.Record(out)
		}
		if u.delay > 0 {
			select {
			case <-runCtx.Done():
				return
			case <-time.After(u.delay):
			}
		}
	}
}
