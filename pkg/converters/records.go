// Package converters serializes matrices between the in-memory table form
// and the persisted record-oriented formats (JSON document, CSV snapshot).
package converters

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"activity-insights/internal/dataset"
)

// RecordsJSON renders the table as a record-oriented JSON document: one
// object per row, field names are column names, fields in column order.
func RecordsJSON(table *dataset.Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, row := range table.Rows {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    {")
		for j, col := range table.Columns {
			if j > 0 {
				buf.WriteString(",")
			}
			name, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(row[col])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, col, err)
			}
			buf.WriteString("\n        ")
			buf.Write(name)
			buf.WriteString(": ")
			buf.Write(value)
		}
		buf.WriteString("\n    }")
	}
	buf.WriteString("\n]")
	return buf.Bytes(), nil
}

// ParseRecordsJSON reads a record-oriented JSON document back into a table.
// Column order is the first-seen field order, so a document produced by
// RecordsJSON round-trips with its column order intact. Integral numbers
// decode as int64, everything else keeps its JSON type.
func ParseRecordsJSON(r io.Reader) (*dataset.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	table := dataset.NewTable()
	seen := make(map[string]struct{})

	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		row := make(dataset.Row)
		for dec.More() {
			keyToken, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyToken.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyToken)
			}
			valueToken, err := dec.Token()
			if err != nil {
				return nil, err
			}
			value, err := decodeValue(valueToken)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			row[key] = value
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				table.Columns = append(table.Columns, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		table.Append(row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return table, nil
}

// RecordsCSV renders the table as a CSV snapshot with a header row.
func RecordsCSV(table *dataset.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = cellText(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	token, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := token.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, token)
	}
	return nil
}

func decodeValue(token json.Token) (interface{}, error) {
	switch v := token.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	case string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value %v", token)
	}
}

func cellText(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
