// Package analysis computes chart-ready summaries over a filtered view:
// monthly totals for bar charts, descriptive statistics, and a correlation
// matrix for heatmaps. Rendering itself is the caller's concern.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"activity-insights/internal/dataset"
)

// MonthTotal is one bar of the monthly-totals series.
type MonthTotal struct {
	Month string `json:"month"`
	Total int64  `json:"total"`
}

// ComponentStats are descriptive statistics for one component column.
type ComponentStats struct {
	Component string  `json:"component"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Mode      int64   `json:"mode"`
}

// CorrelationMatrix is the pairwise Pearson correlation of the selected
// component columns.
type CorrelationMatrix struct {
	Components []string    `json:"components"`
	Values     [][]float64 `json:"values"`
}

// MonthlyTotals sums one component's counts per month, ordered by month.
func MonthlyTotals(view *dataset.Table, component string) ([]MonthTotal, error) {
	if !view.HasColumn(component) {
		return nil, fmt.Errorf("component %q not present in view", component)
	}

	totals := make(map[string]int64)
	order := make([]string, 0)
	for _, row := range view.Rows {
		month := monthLabel(row[dataset.ColumnMonth])
		if _, ok := totals[month]; !ok {
			order = append(order, month)
		}
		totals[month] += cellCount(row[component])
	}
	sort.Strings(order)

	series := make([]MonthTotal, 0, len(order))
	for _, month := range order {
		series = append(series, MonthTotal{Month: month, Total: totals[month]})
	}
	return series, nil
}

// Statistics computes mean, median and mode per component column. Component
// names not present in the view are skipped, mirroring the filter's
// ignore-unknown behaviour.
func Statistics(view *dataset.Table, components []string) []ComponentStats {
	out := make([]ComponentStats, 0, len(components))
	for _, component := range components {
		if !view.HasColumn(component) {
			continue
		}
		values := columnValues(view, component)
		if len(values) == 0 {
			continue
		}
		out = append(out, ComponentStats{
			Component: component,
			Mean:      stat.Mean(values, nil),
			Median:    median(values),
			Mode:      mode(values),
		})
	}
	return out
}

// Correlate builds the pairwise Pearson correlation matrix over the given
// component columns. Zero-variance columns yield 0 instead of NaN so the
// result stays JSON-encodable.
func Correlate(view *dataset.Table, components []string) *CorrelationMatrix {
	present := make([]string, 0, len(components))
	for _, c := range components {
		if view.HasColumn(c) {
			present = append(present, c)
		}
	}

	columns := make([][]float64, len(present))
	for i, c := range present {
		columns[i] = columnValues(view, c)
	}

	values := make([][]float64, len(present))
	for i := range present {
		values[i] = make([]float64, len(present))
		for j := range present {
			if i == j {
				values[i][j] = 1
				continue
			}
			r := stat.Correlation(columns[i], columns[j], nil)
			if math.IsNaN(r) {
				r = 0
			}
			values[i][j] = r
		}
	}
	return &CorrelationMatrix{Components: present, Values: values}
}

func columnValues(view *dataset.Table, column string) []float64 {
	values := make([]float64, 0, view.NumRows())
	for _, row := range view.Rows {
		values = append(values, float64(cellCount(row[column])))
	}
	return values
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mode returns the most frequent value; ties break toward the smallest.
func mode(values []float64) int64 {
	freq := make(map[int64]int)
	for _, v := range values {
		freq[int64(v)]++
	}
	var best int64
	bestCount := -1
	keys := make([]int64, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if freq[k] > bestCount {
			best = k
			bestCount = freq[k]
		}
	}
	return best
}

func monthLabel(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		// zero-pad so string ordering matches calendar ordering
		return fmt.Sprintf("%02d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func cellCount(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	default:
		return 0
	}
}
