package metrics

import (
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

// ConfigEcho mirrors the parameters a run was started with, in the flag
// units: duration and ramp-up in whole seconds, delay and timeout in whole
// milliseconds.
type ConfigEcho struct {
	Users    int    `json:"users"`
	Duration int    `json:"duration"`
	RampUp   int    `json:"rampUp"`
	Delay    int    `json:"delay"`
	Timeout  int    `json:"timeout"`
	Method   string `json:"method"`
}

// ReportMetrics holds the figures derived from a finished run.
type ReportMetrics struct {
	TotalDurationMs      float64 `json:"totalDurationMs"`
	AvgResponseTimeMs    float64 `json:"avgResponseTimeMs"`
	MedianResponseTimeMs float64 `json:"medianResponseTimeMs"`
	P95ResponseTimeMs    float64 `json:"p95ResponseTimeMs"`
	RequestsPerSecond    float64 `json:"requestsPerSecond"`
	SuccessRate          float64 `json:"successRate"`
}

// Report is the immutable record of one finished run. Its JSON form is the
// export document written by --output.
type Report struct {
	URL                string           `json:"url"`
	TestConfig         ConfigEcho       `json:"testConfig"`
	RunID              string           `json:"runId"`
	StartTime          string           `json:"startTime"`
	EndTime            string           `json:"endTime"`
	TotalRequests      int64            `json:"totalRequests"`
	SuccessfulRequests int64            `json:"successfulRequests"`
	FailedRequests     int64            `json:"failedRequests"`
	ResponseTimesMs    []float64        `json:"responseTimesMs"`
	StatusCodes        map[int]int64    `json:"statusCodes"`
	Errors             map[string]int64 `json:"errors"`
	Metrics            ReportMetrics    `json:"metrics"`
}

// RunInfo identifies a run for report building. End marks the moment the
// stop decision was made; requests that complete during drain still count in
// the totals but not in the duration.
type RunInfo struct {
	RunID  string
	URL    string
	Config ConfigEcho
	Start  time.Time
	End    time.Time
}

// NewRunID returns a fresh ULID for tagging a run.
func NewRunID() string {
	return ulid.Make().String()
}

// BuildReport derives the final report from a run's identity and its totals.
// Median and p95 are exact order statistics over the retained samples:
// sorted[n/2] and sorted[floor(n*0.95)].
func BuildReport(info RunInfo, totals Totals) *Report {
	duration := info.End.Sub(info.Start)

	sorted := append([]float64(nil), totals.Latencies...)
	sort.Float64s(sorted)

	var avg float64
	if len(sorted) > 0 {
		var sum float64
		for _, ms := range sorted {
			sum += ms
		}
		avg = sum / float64(len(sorted))
	}

	var rps float64
	if duration > 0 && totals.Total > 0 {
		rps = float64(totals.Total) / duration.Seconds()
	}

	var successRate float64
	if totals.Total > 0 {
		successRate = float64(totals.Successful) / float64(totals.Total) * 100
	}

	return &Report{
		URL:                info.URL,
		TestConfig:         info.Config,
		RunID:              info.RunID,
		StartTime:          info.Start.Format(time.RFC3339Nano),
		EndTime:            info.End.Format(time.RFC3339Nano),
		TotalRequests:      totals.Total,
		SuccessfulRequests: totals.Successful,
		FailedRequests:     totals.Failed,
		ResponseTimesMs:    totals.Latencies,
		StatusCodes:        totals.StatusCodes,
		Errors:             totals.Errors,
		Metrics: ReportMetrics{
			TotalDurationMs:      durationToMillis(duration),
			AvgResponseTimeMs:    avg,
			MedianResponseTimeMs: medianOf(sorted),
			P95ResponseTimeMs:    p95Of(sorted),
			RequestsPerSecond:    rps,
			SuccessRate:          successRate,
		},
	}
}

func medianOf(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)/2]
}

func p95Of(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
