package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-insights/pkg/logger"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func writeFixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, "USER_LOG.csv",
		"User Full Name *Anonymized,Cohort\n1,A\n2,B\n")
	writeSource(t, dir, "ACTIVITY_LOG.csv",
		"User Full Name *Anonymized,Component,Action,Date\n1,Quiz,Attempt,05-03-2024\n")
	writeSource(t, dir, "COMPONENT_CODES.csv",
		"Code,Component\nQZ,Quiz\n")
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeFixtureDir(t)

	sources, err := LoadDir(dir, logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, sources.Users.NumRows())
	assert.Equal(t, 1, sources.Activity.NumRows())
	assert.Equal(t, 1, sources.ComponentCodes.NumRows())

	assert.Equal(t, []string{AnonymizedUserColumn, "Cohort"}, sources.Users.Columns)
	assert.Equal(t, "1", sources.Users.Rows[0][AnonymizedUserColumn])
	assert.Equal(t, "Quiz", sources.Activity.Rows[0][ColumnComponent])
}

func TestLoadDirMissingSource(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "USER_LOG.csv", "User Full Name *Anonymized\n1\n")
	// ACTIVITY_LOG and COMPONENT_CODES absent

	_, err := LoadDir(dir, logger.NewTestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoadDirUnparseableSource(t *testing.T) {
	dir := writeFixtureDir(t)
	// ragged row: three header fields, one data field row with two extras
	writeSource(t, dir, "ACTIVITY_LOG.csv", "a,b\n1,2,3\n")

	_, err := LoadDir(dir, logger.NewTestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "ACTIVITY_LOG")
}

func TestLoadDirEmptySource(t *testing.T) {
	dir := writeFixtureDir(t)
	writeSource(t, dir, "COMPONENT_CODES.csv", "")

	_, err := LoadDir(dir, logger.NewTestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoadDirNoSchemaValidation(t *testing.T) {
	dir := writeFixtureDir(t)
	// well-formed tabular file without the expected column loads fine;
	// the missing column surfaces later in Transform
	writeSource(t, dir, "USER_LOG.csv", "SomeOtherColumn\nx\n")

	sources, err := LoadDir(dir, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = Transform(sources.Users, sources.Activity, sources.ComponentCodes, logger.NewTestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCSVPreservesColumnOrder(t *testing.T) {
	table, err := readCSV(strings.NewReader("c,a,b\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, table.Columns)
	assert.Equal(t, Row{"c": "1", "a": "2", "b": "3"}, table.Rows[0])
}
