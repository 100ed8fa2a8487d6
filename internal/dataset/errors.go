package dataset

import "errors"

// Failure taxonomy for the cleaning pipeline. Callers match with errors.Is
// and the wrapped message carries the offending file or column.
var (
	// ErrSourceNotFound indicates a required source file is absent.
	ErrSourceNotFound = errors.New("source not found")

	// ErrParse indicates a source file could not be read as a headered table.
	ErrParse = errors.New("parse error")

	// ErrMissingColumn indicates an expected column is absent from a table.
	ErrMissingColumn = errors.New("missing column")

	// ErrDateParse indicates a Date value could not be parsed as a day-first
	// calendar date. The whole reshape aborts on the first bad value.
	ErrDateParse = errors.New("date parse error")

	// ErrUnsupportedFilter indicates a filter was requested that the table
	// cannot support, e.g. a date range on a table with no Date column.
	ErrUnsupportedFilter = errors.New("unsupported filter")
)
