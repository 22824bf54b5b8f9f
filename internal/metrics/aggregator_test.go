package metrics_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stampedehq/stampede/internal/executor"
	"github.com/stampedehq/stampede/internal/metrics"
)

func success(code int, latency time.Duration) executor.Outcome {
	return executor.Outcome{StatusCode: code, Latency: latency}
}

func failure(category executor.FailureCategory, latency time.Duration) executor.Outcome {
	return executor.Outcome{Category: category, Latency: latency}
}

func TestAggregatorLatencyStats(t *testing.T) {
	agg := metrics.NewAggregator()

	// 5ms, 15ms, 25ms, 35ms: mean 20ms.
	for ms := 5; ms <= 35; ms += 10 {
		agg.Record(success(200, time.Duration(ms)*time.Millisecond))
	}

	stats := agg.LiveStats(0)

	if stats.Total != 4 || stats.Successful != 4 || stats.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 4/4/0", stats.Total, stats.Successful, stats.Failed)
	}
	if stats.MinLatency != 5*time.Millisecond {
		t.Errorf("MinLatency = %s, want 5ms", stats.MinLatency)
	}
	if stats.MaxLatency != 35*time.Millisecond {
		t.Errorf("MaxLatency = %s, want 35ms", stats.MaxLatency)
	}
	if stats.MeanLatency != 20*time.Millisecond {
		t.Errorf("MeanLatency = %s, want 20ms", stats.MeanLatency)
	}
	if stats.SuccessRate != 100 {
		t.Errorf("SuccessRate = %g, want 100", stats.SuccessRate)
	}
}

func TestAggregatorLivePercentiles(t *testing.T) {
	agg := metrics.NewAggregator()

	// 200 samples: 1ms, 2ms, ..., 200ms.
	for i := 1; i <= 200; i++ {
		agg.Record(success(200, time.Duration(i)*time.Millisecond))
	}

	stats := agg.LiveStats(0)

	// The histogram keeps 3 significant figures; a 2ms window absorbs the
	// bucket rounding.
	checks := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"P50", stats.P50Latency, 100 * time.Millisecond},
		{"P95", stats.P95Latency, 190 * time.Millisecond},
		{"P99", stats.P99Latency, 198 * time.Millisecond},
	}
	for _, c := range checks {
		diff := c.got - c.want
		if diff < 0 {
			diff = -diff
		}
		if diff > 2*time.Millisecond {
			t.Errorf("%s = %s, want within 2ms of %s", c.name, c.got, c.want)
		}
	}
}

func TestAggregatorFailureBuckets(t *testing.T) {
	agg := metrics.NewAggregator()

	agg.Record(success(200, 10*time.Millisecond))
	agg.Record(success(404, 15*time.Millisecond))
	agg.Record(failure(executor.FailureTimeout, 0))
	agg.Record(failure(executor.FailureTimeout, 0))
	agg.Record(failure(executor.FailureConnection, 2*time.Millisecond))
	agg.Record(executor.Outcome{Category: executor.FailureHTTP, StatusCode: 503, Latency: 5 * time.Millisecond})

	totals := agg.Snapshot()

	if totals.Total != 6 {
		t.Errorf("expected total 6, got %d", totals.Total)
	}
	if totals.Successful != 2 {
		t.Errorf("expected successful 2, got %d", totals.Successful)
	}
	if totals.Failed != 4 {
		t.Errorf("expected failed 4, got %d", totals.Failed)
	}
	if totals.Total != totals.Successful+totals.Failed {
		t.Errorf("total %d != successful %d + failed %d", totals.Total, totals.Successful, totals.Failed)
	}

	// Only completed requests contribute latency samples.
	if len(totals.Latencies) != 2 {
		t.Errorf("expected 2 latency samples, got %d", len(totals.Latencies))
	}

	if totals.StatusCodes[200] != 1 || totals.StatusCodes[404] != 1 {
		t.Errorf("status codes = %v, want one 200 and one 404", totals.StatusCodes)
	}
	// An HTTP-classified failure shows up in both distributions.
	if totals.StatusCodes[503] != 1 {
		t.Errorf("status codes = %v, want one 503", totals.StatusCodes)
	}
	if totals.Errors["Timeout"] != 2 {
		t.Errorf("errors[Timeout] = %d, want 2", totals.Errors["Timeout"])
	}
	if totals.Errors["Connection Error"] != 1 {
		t.Errorf("errors[Connection Error] = %d, want 1", totals.Errors["Connection Error"])
	}
	if totals.Errors["HTTP 503"] != 1 {
		t.Errorf("errors[HTTP 503] = %d, want 1", totals.Errors["HTTP 503"])
	}
}

func TestAggregatorRequestsPerSec(t *testing.T) {
	agg := metrics.NewAggregator()
	for i := 0; i < 10; i++ {
		agg.Record(success(200, time.Millisecond))
	}

	stats := agg.LiveStats(2 * time.Second)
	if stats.RequestsPerSec != 5 {
		t.Errorf("expected 5 req/s, got %g", stats.RequestsPerSec)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	agg := metrics.NewAggregator()
	agg.Record(success(200, time.Millisecond))

	first := agg.Snapshot()
	first.StatusCodes[200] = 99
	first.Errors["Fabricated"] = 1
	first.Latencies[0] = -1

	second := agg.Snapshot()
	if second.StatusCodes[200] != 1 {
		t.Errorf("snapshot mutation leaked into aggregator: %v", second.StatusCodes)
	}
	if len(second.Errors) != 0 {
		t.Errorf("snapshot mutation leaked into aggregator: %v", second.Errors)
	}
	if second.Latencies[0] < 0 {
		t.Error("snapshot latency mutation leaked into aggregator")
	}
}

func TestDistributionsAreCopies(t *testing.T) {
	agg := metrics.NewAggregator()
	agg.Record(success(200, time.Millisecond))
	agg.Record(failure(executor.FailureTimeout, 0))

	codes, errs := agg.Distributions()
	if codes[200] != 1 {
		t.Errorf("status codes = %v, want 1 under 200", codes)
	}
	if errs["Timeout"] != 1 {
		t.Errorf("errors = %v, want 1 under Timeout", errs)
	}

	codes[200] = 99
	errs["Fabricated"] = 1

	codes, errs = agg.Distributions()
	if codes[200] != 1 || len(errs) != 1 {
		t.Error("distribution mutation leaked into aggregator")
	}
}

func TestConcurrentRecording(t *testing.T) {
	const (
		workers          = 8
		recordsPerWorker = 125
	)
	agg := metrics.NewAggregator()

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < recordsPerWorker; i++ {
				// Every fifth record fails.
				if i%5 == 0 {
					agg.Record(failure(executor.FailureConnection, 0))
				} else {
					agg.Record(success(200, 3*time.Millisecond))
				}
			}
		}()
	}
	wg.Wait()

	totals := agg.Snapshot()
	if want := int64(workers * recordsPerWorker); totals.Total != want {
		t.Errorf("Total = %d, want %d", totals.Total, want)
	}
	if want := int64(workers * recordsPerWorker / 5); totals.Failed != want {
		t.Errorf("Failed = %d, want %d", totals.Failed, want)
	}
	if totals.Total != totals.Successful+totals.Failed {
		t.Errorf("total %d != successful %d + failed %d", totals.Total, totals.Successful, totals.Failed)
	}
	if int64(len(totals.Latencies)) != totals.Successful {
		t.Errorf("latency samples %d != successful %d", len(totals.Latencies), totals.Successful)
	}
}
