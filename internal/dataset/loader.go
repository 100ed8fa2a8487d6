package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"activity-insights/pkg/logger"
)

// Source base names expected inside the data directory, with either a .csv
// or a .xlsx extension.
const (
	SourceUserLog        = "USER_LOG"
	SourceActivityLog    = "ACTIVITY_LOG"
	SourceComponentCodes = "COMPONENT_CODES"
)

// Canonical column names used by the pipeline.
const (
	AnonymizedUserColumn = "User Full Name *Anonymized"
	ColumnUserID         = "UserID"
	ColumnMonth          = "Month"
	ColumnComponent      = "Component"
	ColumnAction         = "Action"
	ColumnDate           = "Date"
)

// Sources holds the three raw tables of one session, read once and treated
// as immutable snapshots.
type Sources struct {
	Users          *Table
	Activity       *Table
	ComponentCodes *Table
}

var sourceExtensions = []string{".csv", ".xlsx"}

// LoadDir reads USER_LOG, ACTIVITY_LOG and COMPONENT_CODES from dir. The
// three files are loaded concurrently. It fails with ErrSourceNotFound when
// a file is absent and ErrParse when a file is not a headered table; no
// schema validation happens here, missing columns surface in Transform.
func LoadDir(dir string, log logger.Logger) (*Sources, error) {
	sources := &Sources{}
	targets := []struct {
		name string
		dst  **Table
	}{
		{SourceUserLog, &sources.Users},
		{SourceActivityLog, &sources.Activity},
		{SourceComponentCodes, &sources.ComponentCodes},
	}

	var g errgroup.Group
	for _, target := range targets {
		target := target
		g.Go(func() error {
			table, err := loadSource(dir, target.name)
			if err != nil {
				return err
			}
			*target.dst = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("Loaded raw tables",
		logger.String("dir", dir),
		logger.Int("users", sources.Users.NumRows()),
		logger.Int("activity", sources.Activity.NumRows()),
		logger.Int("componentCodes", sources.ComponentCodes.NumRows()),
	)
	return sources, nil
}

// loadSource resolves <name>.csv or <name>.xlsx under dir and parses it.
func loadSource(dir, name string) (*Table, error) {
	for _, ext := range sourceExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		table, err := readTable(path, ext)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParse, name+ext, err)
		}
		return table, nil
	}
	return nil, fmt.Errorf("%w: %s (.csv or .xlsx) in %s", ErrSourceNotFound, name, dir)
}

func readTable(path, ext string) (*Table, error) {
	if ext == ".xlsx" {
		return readXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file, header row required")
		}
		return nil, err
	}

	table := NewTable(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		table.Append(rowFromRecord(header, record))
	}
	return table, nil
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet %q, header row required", sheet)
	}

	header := rows[0]
	table := NewTable(header...)
	for _, record := range rows[1:] {
		// excelize trims trailing empty cells, pad back to header width.
		for len(record) < len(header) {
			record = append(record, "")
		}
		table.Append(rowFromRecord(header, record))
	}
	return table, nil
}

func rowFromRecord(header, record []string) Row {
	row := make(Row, len(header))
	for i, col := range header {
		if i < len(record) {
			row[col] = record[i]
		} else {
			row[col] = ""
		}
	}
	return row
}
