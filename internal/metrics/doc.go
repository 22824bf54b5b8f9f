// Package metrics aggregates request outcomes and derives run statistics.
//
// The central [Aggregator] collects outcomes from all user simulators:
//
//	agg := metrics.NewAggregator()
//
//	// From any goroutine:
//	agg.Record(outcome)
//
//	// While the run is live (progress line, dashboard):
//	stats := agg.LiveStats(elapsed)
//
//	// After all simulators have exited:
//	report := metrics.BuildReport(info, agg.Snapshot())
//
// Two latency representations coexist under one lock. An HdrHistogram
// (1µs–60s, 3 significant figures) answers live percentile reads in constant
// time. The raw per-request sample list, completed requests only, is retained
// in full: the export document includes it verbatim, and the final median and
// p95 are exact order statistics over it rather than histogram estimates.
//
// [Report] is the immutable record of a finished run; its JSON form is the
// export schema, with status-code and error distributions keyed the way the
// console report prints them.
package metrics
