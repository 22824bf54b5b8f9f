package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/stampedehq/stampede/internal/executor"
)

// Aggregator folds request outcomes from all user simulators into one
// aggregate. A single mutex guards every field; it is never held across I/O.
type Aggregator struct {
	mu             sync.Mutex
	hist           *hdrhistogram.Histogram
	total          int64
	successful     int64
	failed         int64
	latencies      []float64
	statusCodes    map[int]int64
	errors         map[string]int64
	latencySamples int64
	minLatency     time.Duration
	maxLatency     time.Duration
	sumLatency     time.Duration
}

// Totals is a point-in-time copy of everything recorded. The latency list
// holds completed requests only, in milliseconds, in arrival order.
type Totals struct {
	Total       int64
	Successful  int64
	Failed      int64
	Latencies   []float64
	StatusCodes map[int]int64
	Errors      map[string]int64
}

// Stats is the histogram-backed live view read by the progress line and the
// dashboard while a run is in flight.
type Stats struct {
	Total          int64
	Successful     int64
	Failed         int64
	MinLatency     time.Duration
	MaxLatency     time.Duration
	MeanLatency    time.Duration
	P50Latency     time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration
	RequestsPerSec float64
	SuccessRate    float64
}

func NewAggregator() *Aggregator {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Aggregator{
		hist:        h,
		statusCodes: make(map[int]int64),
		errors:      make(map[string]int64),
	}
}

// Record folds one outcome into the aggregate. Callers drop canceled
// outcomes before recording; Record counts whatever it is handed.
func (a *Aggregator) Record(out executor.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++

	if out.Latency > 0 {
		us := out.Latency.Microseconds()
		if us < a.hist.LowestTrackableValue() {
			us = a.hist.LowestTrackableValue()
		}
		if us > a.hist.HighestTrackableValue() {
			us = a.hist.HighestTrackableValue()
		}
		_ = a.hist.RecordValue(us)

		a.latencySamples++
		a.sumLatency += out.Latency
		if a.minLatency == 0 || out.Latency < a.minLatency {
			a.minLatency = out.Latency
		}
		if out.Latency > a.maxLatency {
			a.maxLatency = out.Latency
		}
	}

	if out.Success() {
		a.successful++
		a.statusCodes[out.StatusCode]++
		a.latencies = append(a.latencies, durationToMillis(out.Latency))
		return
	}

	a.failed++
	a.errors[out.FailureLabel()]++
	// A failure that still carries a status code shows up in both histograms.
	if out.Category == executor.FailureHTTP && out.StatusCode > 0 {
		a.statusCodes[out.StatusCode]++
	}
}

// Snapshot copies the aggregate for report building. Taking it after all
// simulators have exited makes the copy the final word on the run.
func (a *Aggregator) Snapshot() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()

	totals := Totals{
		Total:       a.total,
		Successful:  a.successful,
		Failed:      a.failed,
		Latencies:   append([]float64(nil), a.latencies...),
		StatusCodes: make(map[int]int64, len(a.statusCodes)),
		Errors:      make(map[string]int64, len(a.errors)),
	}
	for code, count := range a.statusCodes {
		totals.StatusCodes[code] = count
	}
	for label, count := range a.errors {
		totals.Errors[label] = count
	}
	return totals
}

// Distributions returns copies of the status code and error counters. It
// skips the latency samples, so callers polling mid-run stay cheap.
func (a *Aggregator) Distributions() (map[int]int64, map[string]int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	codes := make(map[int]int64, len(a.statusCodes))
	for code, count := range a.statusCodes {
		codes[code] = count
	}
	errs := make(map[string]int64, len(a.errors))
	for label, count := range a.errors {
		errs[label] = count
	}
	return codes, errs
}

// LiveStats computes the current view over the given elapsed wall time.
// Percentiles come from the histogram, so reads stay cheap at any sample count.
func (a *Aggregator) LiveStats(elapsed time.Duration) Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := Stats{
		Total:      a.total,
		Successful: a.successful,
		Failed:     a.failed,
		MinLatency: a.minLatency,
		MaxLatency: a.maxLatency,
	}

	if a.latencySamples > 0 {
		stats.MeanLatency = time.Duration(int64(a.sumLatency) / a.latencySamples)
	}
	if a.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(a.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P95Latency = time.Duration(a.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99Latency = time.Duration(a.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	if elapsed > 0 && a.total > 0 {
		stats.RequestsPerSec = float64(a.total) / elapsed.Seconds()
	}
	if a.total > 0 {
		stats.SuccessRate = float64(a.successful) / float64(a.total) * 100
	}
	return stats
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
