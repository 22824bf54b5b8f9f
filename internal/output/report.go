package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/stampedehq/stampede/internal/metrics"
)

// PrintBanner writes the startup lines describing the run about to begin.
func PrintBanner(w io.Writer, url string, users int, duration, rampUp time.Duration) {
	fmt.Fprintf(w, "\nStarting stress test for %s\n", url)
	fmt.Fprintf(w, "Simulating up to %d concurrent users for %d seconds\n", users, int(duration/time.Second))
	if rampUp > 0 {
		fmt.Fprintf(w, "Gradually ramping up users over %d seconds\n", int(rampUp/time.Second))
	}
	fmt.Fprintln(w)
}

// PrintReport outputs the human-readable results block for a finished run.
func PrintReport(w io.Writer, report *metrics.Report) {
	fmt.Fprintln(w, "\n========== TEST RESULTS ==========")
	fmt.Fprintf(w, "URL:                 %s\n", report.URL)
	fmt.Fprintf(w, "Duration:            %.2f seconds\n", report.Metrics.TotalDurationMs/1000)
	fmt.Fprintf(w, "Concurrent Users:    %d\n", report.TestConfig.Users)
	fmt.Fprintf(w, "Total Requests:      %d\n", report.TotalRequests)
	fmt.Fprintf(w, "Successful Requests: %d (%.2f%%)\n", report.SuccessfulRequests, report.Metrics.SuccessRate)
	fmt.Fprintf(w, "Failed Requests:     %d\n", report.FailedRequests)
	fmt.Fprintf(w, "Requests Per Second: %.2f\n", report.Metrics.RequestsPerSecond)

	fmt.Fprintln(w, "\nResponse Times:")
	fmt.Fprintf(w, "  Average:         %.2f ms\n", report.Metrics.AvgResponseTimeMs)
	fmt.Fprintf(w, "  Median:          %.0f ms\n", report.Metrics.MedianResponseTimeMs)
	fmt.Fprintf(w, "  95th Percentile: %.0f ms\n", report.Metrics.P95ResponseTimeMs)

	fmt.Fprintln(w, "\nStatus Code Distribution:")
	for _, row := range metrics.SortedStatusRows(report.StatusCodes) {
		fmt.Fprintf(w, "  %d: %d (%.2f%%)\n", row.Code, row.Count, percentOf(row.Count, report.TotalRequests))
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "\nError Distribution:")
		for _, row := range metrics.SortedErrorRows(report.Errors) {
			fmt.Fprintf(w, "  %s: %d (%.2f%%)\n", row.Label, row.Count, percentOf(row.Count, report.TotalRequests))
		}
	}
}

// PrintJSONReport outputs the full report document as indented JSON.
func PrintJSONReport(w io.Writer, report *metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func percentOf(count, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
