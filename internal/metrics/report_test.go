package metrics_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stampedehq/stampede/internal/metrics"
)

func testRunInfo(start, end time.Time) metrics.RunInfo {
	return metrics.RunInfo{
		RunID: metrics.NewRunID(),
		URL:   "https://example.com",
		Config: metrics.ConfigEcho{
			Users:    10,
			Duration: 60,
			RampUp:   0,
			Delay:    1000,
			Timeout:  5000,
			Method:   "GET",
		},
		Start: start,
		End:   end,
	}
}

func TestBuildReportMetrics(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Second)

	// 20 samples: 1ms..20ms, recorded out of order.
	latencies := make([]float64, 0, 20)
	for i := 20; i >= 1; i-- {
		latencies = append(latencies, float64(i))
	}

	totals := metrics.Totals{
		Total:       25,
		Successful:  20,
		Failed:      5,
		Latencies:   latencies,
		StatusCodes: map[int]int64{200: 18, 404: 2},
		Errors:      map[string]int64{"Timeout": 5},
	}

	report := metrics.BuildReport(testRunInfo(start, end), totals)

	if report.TotalRequests != 25 || report.SuccessfulRequests != 20 || report.FailedRequests != 5 {
		t.Errorf("counts = %d/%d/%d, want 25/20/5",
			report.TotalRequests, report.SuccessfulRequests, report.FailedRequests)
	}
	if report.Metrics.TotalDurationMs != 10000 {
		t.Errorf("TotalDurationMs = %g, want 10000", report.Metrics.TotalDurationMs)
	}
	// Average of 1..20 is 10.5.
	if report.Metrics.AvgResponseTimeMs != 10.5 {
		t.Errorf("AvgResponseTimeMs = %g, want 10.5", report.Metrics.AvgResponseTimeMs)
	}
	// Median is sorted[20/2] = sorted[10] = 11.
	if report.Metrics.MedianResponseTimeMs != 11 {
		t.Errorf("MedianResponseTimeMs = %g, want 11", report.Metrics.MedianResponseTimeMs)
	}
	// P95 is sorted[int(20*0.95)] = sorted[19] = 20.
	if report.Metrics.P95ResponseTimeMs != 20 {
		t.Errorf("P95ResponseTimeMs = %g, want 20", report.Metrics.P95ResponseTimeMs)
	}
	if report.Metrics.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %g, want 2.5", report.Metrics.RequestsPerSecond)
	}
	if report.Metrics.SuccessRate != 80 {
		t.Errorf("SuccessRate = %g, want 80", report.Metrics.SuccessRate)
	}
	if report.StartTime != start.Format(time.RFC3339Nano) {
		t.Errorf("StartTime = %q, want %q", report.StartTime, start.Format(time.RFC3339Nano))
	}
}

func TestBuildReportOrderStatistics(t *testing.T) {
	start := time.Now()
	cases := []struct {
		name       string
		latencies  []float64
		wantMedian float64
		wantP95    float64
	}{
		// median = sorted[n/2], p95 = sorted[int(n*0.95)]
		{"five samples", []float64{50, 10, 40, 20, 30}, 30, 50},
		{"four samples", []float64{4, 3, 2, 1}, 3, 4},
		{"two samples", []float64{15, 5}, 15, 15},
		{"single sample", []float64{7}, 7, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := int64(len(c.latencies))
			report := metrics.BuildReport(testRunInfo(start, start.Add(time.Second)), metrics.Totals{
				Total:      n,
				Successful: n,
				Latencies:  c.latencies,
			})
			if got := report.Metrics.MedianResponseTimeMs; got != c.wantMedian {
				t.Errorf("median = %g, want %g", got, c.wantMedian)
			}
			if got := report.Metrics.P95ResponseTimeMs; got != c.wantP95 {
				t.Errorf("p95 = %g, want %g", got, c.wantP95)
			}
		})
	}
}

func TestBuildReportEmptyRun(t *testing.T) {
	start := time.Now()
	report := metrics.BuildReport(testRunInfo(start, start.Add(time.Second)), metrics.Totals{
		StatusCodes: map[int]int64{},
		Errors:      map[string]int64{},
	})

	m := report.Metrics
	if m.AvgResponseTimeMs != 0 || m.MedianResponseTimeMs != 0 || m.P95ResponseTimeMs != 0 {
		t.Errorf("latency metrics = %+v, want zeros for an empty run", m)
	}
	if m.RequestsPerSecond != 0 || m.SuccessRate != 0 {
		t.Errorf("rate metrics = %+v, want zeros for an empty run", m)
	}
}

func TestReportJSONSchema(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report := metrics.BuildReport(testRunInfo(start, start.Add(time.Second)), metrics.Totals{
		Total:       2,
		Successful:  1,
		Failed:      1,
		Latencies:   []float64{12.5},
		StatusCodes: map[int]int64{200: 1},
		Errors:      map[string]int64{"Timeout": 1},
	})

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("failed to marshal report: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	requiredFields := []string{
		"url", "testConfig", "runId", "startTime", "endTime",
		"totalRequests", "successfulRequests", "failedRequests",
		"responseTimesMs", "statusCodes", "errors", "metrics",
	}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("missing field %q in JSON output", field)
		}
	}

	testConfig, ok := parsed["testConfig"].(map[string]interface{})
	if !ok {
		t.Fatalf("testConfig is %T, want object", parsed["testConfig"])
	}
	for _, field := range []string{"users", "duration", "rampUp", "delay", "timeout", "method"} {
		if _, ok := testConfig[field]; !ok {
			t.Errorf("missing field %q in testConfig", field)
		}
	}

	metricsObj, ok := parsed["metrics"].(map[string]interface{})
	if !ok {
		t.Fatalf("metrics is %T, want object", parsed["metrics"])
	}
	for _, field := range []string{
		"totalDurationMs", "avgResponseTimeMs", "medianResponseTimeMs",
		"p95ResponseTimeMs", "requestsPerSecond", "successRate",
	} {
		if _, ok := metricsObj[field]; !ok {
			t.Errorf("missing field %q in metrics", field)
		}
	}

	// Integer map keys serialize as strings.
	statusCodes, ok := parsed["statusCodes"].(map[string]interface{})
	if !ok {
		t.Fatalf("statusCodes is %T, want object", parsed["statusCodes"])
	}
	if _, ok := statusCodes["200"]; !ok {
		t.Errorf("statusCodes = %v, want key \"200\"", statusCodes)
	}
}

func TestNewRunID(t *testing.T) {
	a := metrics.NewRunID()
	b := metrics.NewRunID()
	if len(a) != 26 {
		t.Errorf("run id %q has length %d, want 26", a, len(a))
	}
	if a == b {
		t.Errorf("consecutive run ids collide: %q", a)
	}
}
