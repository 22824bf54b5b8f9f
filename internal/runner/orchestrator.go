package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/stampedehq/stampede/internal/config"
	"github.com/stampedehq/stampede/internal/metrics"
)

// rampInterval is how often the scheduler re-evaluates the target user count
// while ramping up.
const rampInterval = 100 * time.Millisecond

// State identifies where a load test run is in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRamping
	StateSteady
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRamping:
		return "ramping"
	case StateSteady:
		return "steady"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Orchestrator runs the user population for a single load test: it ramps
// users in, holds the population steady until the duration expires or a stop
// is requested, then drains in-flight requests before snapshotting results.
// An Orchestrator is single use; create a new one for each run.
type Orchestrator struct {
	opt     Options
	limiter *rate.Limiter

	state   int32
	active  int32
	started int32

	runCtx       context.Context
	stopRunning  context.CancelFunc
	reqCtx       context.Context
	stopRequests context.CancelFunc
	stopOnce     sync.Once

	start time.Time
	end   time.Time
}

// New builds an Orchestrator from opt.
func New(opt Options) (*Orchestrator, error) {
	if opt.Config == nil {
		return nil, errors.New("runner: config is required")
	}
	if opt.Requester == nil {
		return nil, errors.New("runner: requester is required")
	}
	if opt.Aggregator == nil {
		return nil, errors.New("runner: aggregator is required")
	}
	opt.normalize()

	runCtx, stopRunning := context.WithCancel(context.Background())
	reqCtx, stopRequests := context.WithCancel(context.Background())
	return &Orchestrator{
		opt:          opt,
		limiter:      opt.LimiterFactory(opt.Config.Rate),
		runCtx:       runCtx,
		stopRunning:  stopRunning,
		reqCtx:       reqCtx,
		stopRequests: stopRequests,
	}, nil
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(atomic.LoadInt32(&o.state))
}

func (o *Orchestrator) setState(s State) {
	atomic.StoreInt32(&o.state, int32(s))
}

// ActiveUsers reports how many simulated users are currently running.
func (o *Orchestrator) ActiveUsers() int {
	return int(atomic.LoadInt32(&o.active))
}

// Stop requests a graceful shutdown of the run. It is safe to call from any
// goroutine and more than once; only the first call takes effect.
func (o *Orchestrator) Stop() {
	o.finalize("stop requested")
}

// finalize moves the run into Stopping exactly once. The end timestamp is
// taken at the stop decision, user loops are told to wind down, and in-flight
// requests get the grace window before a hard cancel.
func (o *Orchestrator) finalize(reason string) {
	o.stopOnce.Do(func() {
		o.setState(StateStopping)
		o.end = time.Now()
		o.opt.Logger.Info().Str("reason", reason).Msg("Stopping load test")
		o.stopRunning()
		grace := o.opt.Grace
		go func() {
			timer := time.NewTimer(grace)
			defer timer.Stop()
			<-timer.C
			o.stopRequests()
		}()
	})
}

// Run executes the load test until the configured duration elapses, Stop is
// called, or ctx is canceled. It always drains in-flight work and returns the
// final report; the error is non-nil only when the orchestrator is misused.
func (o *Orchestrator) Run(ctx context.Context) (*metrics.Report, error) {
	if !atomic.CompareAndSwapInt32(&o.started, 0, 1) {
		return nil, errors.New("runner: orchestrator already ran")
	}
	defer o.stopRequests()
	defer o.stopRunning()

	cfg := o.opt.Config
	runID := metrics.NewRunID()
	o.start = time.Now()
	o.setState(StateStarting)
	o.opt.Logger.Info().
		Str("run_id", runID).
		Str("url", cfg.TargetURL).
		Int("users", cfg.Users).
		Dur("duration", cfg.Duration).
		Dur("ramp_up", cfg.RampUp).
		Msg("Starting load test")

	var durationC <-chan time.Time
	if cfg.Duration > 0 {
		timer := time.NewTimer(cfg.Duration)
		defer timer.Stop()
		durationC = timer.C
	}

	// Watch for the stop triggers. runCtx doubles as the exit signal so the
	// watcher never outlives the run.
	go func() {
		select {
		case <-durationC:
			o.finalize("duration reached")
		case <-ctx.Done():
			o.finalize("interrupted")
		case <-o.runCtx.Done():
		}
	}()

	var wg sync.WaitGroup
	spawned := 0
	spawn := func(target int) {
		for spawned < target && spawned < cfg.Users {
			spawned++
			u := &user{
				requester: o.opt.Requester,
				agg:       o.opt.Aggregator,
				limiter:   o.limiter,
				delay:     cfg.Delay,
			}
			wg.Add(1)
			atomic.AddInt32(&o.active, 1)
			go func() {
				defer wg.Done()
				defer atomic.AddInt32(&o.active, -1)
				u.run(o.runCtx, o.reqCtx)
			}()
		}
	}

	o.setState(StateRamping)
	ticker := time.NewTicker(rampInterval)
	defer ticker.Stop()

	for o.runCtx.Err() == nil {
		spawn(TargetUsers(time.Since(o.start), cfg.Users, cfg.RampUp))
		if spawned >= cfg.Users {
			o.setState(StateSteady)
			if cfg.RampUp > 0 {
				o.opt.Logger.Info().Int("users", spawned).Msg("Ramp-up complete")
			}
			break
		}
		select {
		case <-o.runCtx.Done():
		case <-ticker.C:
		}
	}

	<-o.runCtx.Done()

	// User loops observe the cancellation at their next loop boundary;
	// anything mid-request gets the grace window to finish.
	wg.Wait()
	o.setState(StateStopped)

	totals := o.opt.Aggregator.Snapshot()
	o.opt.Logger.Info().
		Int64("total", totals.Total).
		Int64("failed", totals.Failed).
		Dur("elapsed", o.end.Sub(o.start)).
		Msg("Load test complete")

	info := metrics.RunInfo{
		RunID:  runID,
		URL:    cfg.TargetURL,
		Config: echoConfig(cfg),
		Start:  o.start,
		End:    o.end,
	}
	return metrics.BuildReport(info, totals), nil
}

// echoConfig captures the run parameters in the integer units the report
// schema uses: seconds for duration and ramp-up, milliseconds for delay and
// timeout.
func echoConfig(cfg *config.Config) metrics.ConfigEcho {
	return metrics.ConfigEcho{
		Users:    cfg.Users,
		Duration: int(cfg.Duration / time.Second),
		RampUp:   int(cfg.RampUp / time.Second),
		Delay:    int(cfg.Delay / time.Millisecond),
		Timeout:  int(cfg.Timeout / time.Millisecond),
		Method:   cfg.Method,
	}
}
