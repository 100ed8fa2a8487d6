package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-insights/pkg/logger"
)

// mergedFixture is the scenario from the quiz/system example: user 1 with
// three Quiz actions and user 2 with one, all in March.
func mergedFixture() *Table {
	users := userTable("1", "2")
	activity := activityTable(
		[4]string{"1", "Quiz", "Attempt", "05-03-2024"},
		[4]string{"1", "Quiz", "Attempt", "12-03-2024"},
		[4]string{"1", "Quiz", "Review", "19-03-2024"},
		[4]string{"1", "System", "Login", "05-03-2024"},
		[4]string{"1", "System", "Login", "12-03-2024"},
		[4]string{"2", "Quiz", "Attempt", "20-03-2024"},
	)
	merged, err := Transform(users, activity, componentCodes(), logger.NewTestLogger())
	if err != nil {
		panic(err)
	}
	return merged
}

func TestReshapePivotCounts(t *testing.T) {
	matrix, err := Reshape(mergedFixture(), ReshapeOptions{}, logger.NewTestLogger())
	require.NoError(t, err)

	require.Equal(t, 2, matrix.NumRows())
	assert.Equal(t, []string{ColumnUserID, ColumnMonth, "Quiz"}, matrix.Columns)

	assert.Equal(t, "1", matrix.Rows[0][ColumnUserID])
	assert.Equal(t, int64(3), matrix.Rows[0][ColumnMonth])
	assert.Equal(t, int64(3), matrix.Rows[0]["Quiz"])

	assert.Equal(t, "2", matrix.Rows[1][ColumnUserID])
	assert.Equal(t, int64(3), matrix.Rows[1][ColumnMonth])
	assert.Equal(t, int64(1), matrix.Rows[1]["Quiz"])
}

func TestReshapeFillsAbsentCombinationsWithZero(t *testing.T) {
	users := userTable("1", "2")
	activity := activityTable(
		[4]string{"1", "Quiz", "Attempt", "05-03-2024"},
		[4]string{"2", "Assignment", "Submit", "06-03-2024"},
	)
	merged, err := Transform(users, activity, componentCodes(), logger.NewTestLogger())
	require.NoError(t, err)

	matrix, err := Reshape(merged, ReshapeOptions{}, logger.NewTestLogger())
	require.NoError(t, err)

	require.Equal(t, 2, matrix.NumRows())
	assert.Equal(t, []string{ColumnUserID, ColumnMonth, "Assignment", "Quiz"}, matrix.Columns)
	assert.Equal(t, int64(0), matrix.Rows[0]["Assignment"])
	assert.Equal(t, int64(1), matrix.Rows[0]["Quiz"])
	assert.Equal(t, int64(1), matrix.Rows[1]["Assignment"])
	assert.Equal(t, int64(0), matrix.Rows[1]["Quiz"])
}

func TestReshapeCellSumsMatchQualifyingRows(t *testing.T) {
	merged := mergedFixture()
	matrix, err := Reshape(merged, ReshapeOptions{}, logger.NewTestLogger())
	require.NoError(t, err)

	var total int64
	for _, row := range matrix.Rows {
		for _, col := range matrix.Columns {
			if col == ColumnUserID || col == ColumnMonth {
				continue
			}
			count := row[col].(int64)
			assert.GreaterOrEqual(t, count, int64(0))
			total += count
		}
	}
	assert.Equal(t, int64(merged.NumRows()), total)
}

func TestReshapeInvalidCalendarDate(t *testing.T) {
	users := userTable("1")
	activity := activityTable([4]string{"1", "Quiz", "Attempt", "31-02-2024"})
	merged, err := Transform(users, activity, componentCodes(), logger.NewTestLogger())
	require.NoError(t, err)

	_, err = Reshape(merged, ReshapeOptions{}, logger.NewTestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDateParse)
	assert.Contains(t, err.Error(), "31-02-2024")
}

func TestReshapeMonthIgnoresYearByDefault(t *testing.T) {
	users := userTable("1")
	activity := activityTable(
		[4]string{"1", "Quiz", "Attempt", "05-04-2023"},
		[4]string{"1", "Quiz", "Attempt", "05-04-2024"},
	)
	merged, err := Transform(users, activity, componentCodes(), logger.NewTestLogger())
	require.NoError(t, err)

	matrix, err := Reshape(merged, ReshapeOptions{}, logger.NewTestLogger())
	require.NoError(t, err)

	// two Aprils collapse into one bucket
	require.Equal(t, 1, matrix.NumRows())
	assert.Equal(t, int64(4), matrix.Rows[0][ColumnMonth])
	assert.Equal(t, int64(2), matrix.Rows[0]["Quiz"])
}

func TestReshapeYearAwareMonths(t *testing.T) {
	users := userTable("1")
	activity := activityTable(
		[4]string{"1", "Quiz", "Attempt", "05-04-2023"},
		[4]string{"1", "Quiz", "Attempt", "05-04-2024"},
	)
	merged, err := Transform(users, activity, componentCodes(), logger.NewTestLogger())
	require.NoError(t, err)

	matrix, err := Reshape(merged, ReshapeOptions{YearAwareMonths: true}, logger.NewTestLogger())
	require.NoError(t, err)

	require.Equal(t, 2, matrix.NumRows())
	assert.Equal(t, "2023-04", matrix.Rows[0][ColumnMonth])
	assert.Equal(t, "2024-04", matrix.Rows[1][ColumnMonth])
}

func TestReshapeDeterministicOrdering(t *testing.T) {
	users := userTable("10", "2")
	activity := activityTable(
		[4]string{"10", "Quiz", "Attempt", "05-03-2024"},
		[4]string{"2", "Quiz", "Attempt", "05-03-2024"},
	)
	merged, err := Transform(users, activity, componentCodes(), logger.NewTestLogger())
	require.NoError(t, err)

	matrix, err := Reshape(merged, ReshapeOptions{}, logger.NewTestLogger())
	require.NoError(t, err)

	// numeric ids order numerically, not lexically
	require.Equal(t, 2, matrix.NumRows())
	assert.Equal(t, "2", matrix.Rows[0][ColumnUserID])
	assert.Equal(t, "10", matrix.Rows[1][ColumnUserID])
}

func TestParseDayFirst(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"05-03-2024", false},
		{"5-3-2024", false},
		{"05/03/2024", false},
		{"31-02-2024", true},
		{"2024-03-05", true},
		{"not a date", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_, err := ParseDayFirst(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDateParse)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
