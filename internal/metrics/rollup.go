package metrics

import "sort"

// StatusRow is one line of the status-code distribution.
type StatusRow struct {
	Code  int
	Count int64
}

// ErrorRow is one line of the error distribution.
type ErrorRow struct {
	Label string
	Count int64
}

// SortedStatusRows flattens a status-code histogram into rows ordered by
// code ascending.
func SortedStatusRows(codes map[int]int64) []StatusRow {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]StatusRow, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, StatusRow{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Code < rows[j].Code
	})
	return rows
}

// SortedErrorRows flattens an error histogram into rows ordered by count
// descending, then by label for stability.
func SortedErrorRows(errs map[string]int64) []ErrorRow {
	if len(errs) == 0 {
		return nil
	}
	rows := make([]ErrorRow, 0, len(errs))
	for label, count := range errs {
		rows = append(rows, ErrorRow{Label: label, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
