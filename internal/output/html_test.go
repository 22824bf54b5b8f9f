package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stampedehq/stampede/internal/metrics"
	"github.com/stampedehq/stampede/internal/output"
)

func htmlSampleReport() *metrics.Report {
	return &metrics.Report{
		URL:   "https://example.com/checkout",
		RunID: "01J0000000000000000000HTML",
		TestConfig: metrics.ConfigEcho{
			Users:    50,
			Duration: 120,
			RampUp:   10,
			Delay:    500,
			Timeout:  3000,
			Method:   "POST",
		},
		StartTime:          "2026-08-24T09:00:00Z",
		EndTime:            "2026-08-24T09:02:00Z",
		TotalRequests:      1000,
		SuccessfulRequests: 970,
		FailedRequests:     30,
		ResponseTimesMs:    []float64{12.5, 48.1, 103.7},
		StatusCodes:        map[int]int64{200: 960, 503: 10},
		Errors:             map[string]int64{"Timeout": 20, "HTTP 503": 10},
		Metrics: metrics.ReportMetrics{
			TotalDurationMs:      120000,
			AvgResponseTimeMs:    54.76,
			MedianResponseTimeMs: 48.1,
			P95ResponseTimeMs:    103.7,
			RequestsPerSecond:    8.33,
			SuccessRate:          97,
		},
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, htmlSampleReport()); err != nil {
		t.Fatalf("GenerateHTMLReport: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Stampede Load Test Report",
		"https://example.com/checkout",
		"01J0000000000000000000HTML",
		"97.00% success rate",
		"Status Code Distribution",
		"503",
		"Error Distribution",
		"Timeout",
		"JSON.parse",
		"POST",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
}

func TestGenerateHTMLReportEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, &metrics.Report{}); err != nil {
		t.Fatalf("GenerateHTMLReport on empty report: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "<!DOCTYPE html>") {
		t.Error("expected a complete document for an empty run")
	}
	if strings.Contains(html, "Status Code Distribution") {
		t.Error("empty run should not render a status table")
	}
	if strings.Contains(html, "Error Distribution") {
		t.Error("empty run should not render an error table")
	}
}
