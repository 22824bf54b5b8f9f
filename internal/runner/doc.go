// Package runner provides the load test execution engine for stampede.
//
// A run is driven by an [Orchestrator], which owns a population of simulated
// users. Each user executes a closed loop against a [Requester]: wait for a
// pacing slot, issue one request, record the outcome, sleep the think-time
// delay, repeat. Users are started across the configured ramp-up window
// according to [TargetUsers] and kept running until the test duration
// expires, [Orchestrator.Stop] is called, or the caller's context is
// canceled.
//
// # Basic Usage
//
//	agg := metrics.NewAggregator()
//	o, err := runner.New(runner.Options{
//		Config:     cfg,
//		Requester:  exec,
//		Aggregator: agg,
//		Logger:     logger,
//	})
//	if err != nil {
//		return err
//	}
//	report, err := o.Run(ctx)
//
// # Requester Interface
//
// The [Requester] interface defines what a user executes:
//
//	type Requester interface {
//		Execute(ctx context.Context) executor.Outcome
//	}
//
// Outcomes carry their own success or failure classification, so the engine
// never inspects errors itself.
//
// # Shutdown
//
// Stopping is a two-phase drain. User loops wind down at their next loop
// boundary while in-flight requests keep their context for a short grace
// window, after which the request context is hard-canceled. Requests that
// complete during the window are recorded; abandoned ones are dropped. The
// end timestamp of a run is the moment the stop decision was made, not the
// end of the drain.
//
// # Pacing
//
// An optional global rate cap is enforced with a shared [rate.Limiter] that
// every user waits on before issuing a request. The think-time delay applies
// per user on top of the cap.
//
// # Middleware
//
// [WithFailureLogging] wraps a Requester to log failed outcomes.
package runner
