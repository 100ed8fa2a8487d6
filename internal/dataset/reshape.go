package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"activity-insights/pkg/logger"
)

// ReshapeOptions control the pivot.
type ReshapeOptions struct {
	// YearAwareMonths buckets by "YYYY-MM" instead of the default calendar
	// month number 1-12. The default collapses the same month of different
	// years into one bucket, matching the historical behaviour of this
	// pipeline; enable this for multi-year datasets.
	YearAwareMonths bool
}

// dayFirstLayouts are tried in order when parsing Date values.
var dayFirstLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006 15:04",
	"02/01/2006 15:04",
}

// ParseDayFirst parses a day-first date string, validating the calendar day
// strictly (31-02-2024 is rejected, never coerced).
func ParseDayFirst(value string) (time.Time, error) {
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a day-first calendar date", ErrDateParse, value)
}

// Reshape pivots the merged record set into the wide per-user/per-month
// matrix: one row per observed (UserID, Month) pair, one int64 count column
// per distinct Component, absent combinations filled with 0. The first
// unparseable Date aborts the whole operation; there is no row-skipping
// fallback. Component columns are sorted and rows are ordered by
// (UserID, Month) so the output is reproducible for identical input.
func Reshape(merged *Table, opts ReshapeOptions, log logger.Logger) (*Table, error) {
	for _, required := range []string{ColumnUserID, ColumnComponent, ColumnAction, ColumnDate} {
		if !merged.HasColumn(required) {
			return nil, fmt.Errorf("%w: %q in merged records", ErrMissingColumn, required)
		}
	}

	type groupKey struct {
		userID string
		month  string
	}
	counts := make(map[groupKey]map[string]int64)
	components := make(map[string]struct{})
	order := make([]groupKey, 0)

	for i, row := range merged.Rows {
		date, err := ParseDayFirst(cellString(row[ColumnDate]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		var month string
		if opts.YearAwareMonths {
			month = date.Format("2006-01")
		} else {
			month = strconv.Itoa(int(date.Month()))
		}

		component := cellString(row[ColumnComponent])
		components[component] = struct{}{}

		key := groupKey{userID: cellString(row[ColumnUserID]), month: month}
		group, ok := counts[key]
		if !ok {
			group = make(map[string]int64)
			counts[key] = group
			order = append(order, key)
		}
		group[component]++
	}

	componentColumns := make([]string, 0, len(components))
	for c := range components {
		componentColumns = append(componentColumns, c)
	}
	sort.Strings(componentColumns)

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].userID != order[j].userID {
			return lessNatural(order[i].userID, order[j].userID)
		}
		return lessNatural(order[i].month, order[j].month)
	})

	matrix := NewTable(append([]string{ColumnUserID, ColumnMonth}, componentColumns...)...)
	for _, key := range order {
		row := make(Row, len(matrix.Columns))
		row[ColumnUserID] = key.userID
		row[ColumnMonth] = monthCell(key.month, opts)
		for _, c := range componentColumns {
			row[c] = counts[key][c]
		}
		matrix.Append(row)
	}

	log.Info("Reshaped merged records",
		logger.Int("mergedRows", merged.NumRows()),
		logger.Int("matrixRows", matrix.NumRows()),
		logger.Strings("components", componentColumns),
	)
	return matrix, nil
}

func monthCell(month string, opts ReshapeOptions) interface{} {
	if opts.YearAwareMonths {
		return month
	}
	n, _ := strconv.Atoi(month)
	return int64(n)
}

// lessNatural orders numerically when both values are integers, so user "2"
// sorts before user "10", and lexically otherwise.
func lessNatural(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
