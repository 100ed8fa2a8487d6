package dataset

import (
	"fmt"
	"time"
)

// DateRange is a closed interval; both endpoints are inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// FilterOptions are optional predicates applied to a reshaped matrix. Zero
// values mean "no restriction" for that stage.
type FilterOptions struct {
	// UserIDs keeps only rows whose UserID is in the set.
	UserIDs []string
	// Components restricts output columns to UserID, Month and the named
	// component columns. Unknown names are silently ignored.
	Components []string
	// DateRange drops rows whose Date falls outside [Start, End]. Only
	// valid on a table that retains a Date column; the reshaped matrix
	// does not, so requesting a range there fails with
	// ErrUnsupportedFilter rather than silently doing nothing. Note the
	// stage order: the component stage runs first and physically removes
	// columns, so a kept set that excludes Date makes a following range
	// unsupported.
	DateRange *DateRange
}

// Filter applies the three optional stages in order (users, components,
// date range) and returns a new table; the source is never mutated. An
// empty result is a valid outcome, not an error.
func Filter(matrix *Table, opts FilterOptions) (*Table, error) {
	out := matrix.Clone()

	if len(opts.UserIDs) > 0 {
		wanted := make(map[string]struct{}, len(opts.UserIDs))
		for _, id := range opts.UserIDs {
			wanted[id] = struct{}{}
		}
		kept := make([]Row, 0, len(out.Rows))
		for _, row := range out.Rows {
			if _, ok := wanted[cellString(row[ColumnUserID])]; ok {
				kept = append(kept, row)
			}
		}
		out.Rows = kept
	}

	if len(opts.Components) > 0 {
		wanted := make(map[string]struct{}, len(opts.Components))
		for _, c := range opts.Components {
			wanted[c] = struct{}{}
		}
		columns := make([]string, 0, len(out.Columns))
		for _, c := range out.Columns {
			if c == ColumnUserID || c == ColumnMonth {
				columns = append(columns, c)
				continue
			}
			if _, ok := wanted[c]; ok {
				columns = append(columns, c)
			}
		}
		out = out.Select(columns)
	}

	if opts.DateRange != nil {
		if !out.HasColumn(ColumnDate) {
			return nil, fmt.Errorf("%w: date range requested but table has no %q column", ErrUnsupportedFilter, ColumnDate)
		}
		kept := make([]Row, 0, len(out.Rows))
		for _, row := range out.Rows {
			date, err := cellDate(row[ColumnDate])
			if err != nil {
				return nil, err
			}
			if date.Before(opts.DateRange.Start) || date.After(opts.DateRange.End) {
				continue
			}
			kept = append(kept, row)
		}
		out.Rows = kept
	}

	return out, nil
}

func cellDate(v interface{}) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		return ParseDayFirst(val)
	default:
		return time.Time{}, fmt.Errorf("%w: %v is not a date", ErrDateParse, v)
	}
}
