package dataset

import (
	"fmt"

	"activity-insights/pkg/logger"
)

// ExcludedComponents are infrastructure event categories that never count as
// user-meaningful interactions and are dropped before the join.
var ExcludedComponents = map[string]struct{}{
	"System": {},
	"Folder": {},
}

// Transform cleans and merges the raw tables into one flat record set:
//
//  1. activity rows whose Component is in ExcludedComponents are dropped,
//  2. the anonymized-name column is renamed to UserID in both tables,
//  3. user rows are inner-joined to activity rows on UserID.
//
// The inputs are not mutated. componentCodes is accepted but currently
// inert: no join against it happens today, the parameter stays in the
// signature so a future component-metadata join does not change the call
// shape.
func Transform(users, activity, componentCodes *Table, log logger.Logger) (*Table, error) {
	if !users.HasColumn(AnonymizedUserColumn) {
		return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, AnonymizedUserColumn, SourceUserLog)
	}
	if !activity.HasColumn(AnonymizedUserColumn) {
		return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, AnonymizedUserColumn, SourceActivityLog)
	}

	users = users.Clone()
	users.RenameColumn(AnonymizedUserColumn, ColumnUserID)

	events := dropExcluded(activity)
	events.RenameColumn(AnonymizedUserColumn, ColumnUserID)

	merged := innerJoin(users, events)

	log.Info("Transformed raw tables",
		logger.Int("userRows", users.NumRows()),
		logger.Int("eventRows", events.NumRows()),
		logger.Int("mergedRows", merged.NumRows()),
	)
	return merged, nil
}

func dropExcluded(activity *Table) *Table {
	out := NewTable(activity.Columns...)
	for _, row := range activity.Rows {
		component, _ := row[ColumnComponent].(string)
		if _, excluded := ExcludedComponents[component]; excluded {
			continue
		}
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.Append(copied)
	}
	return out
}

// innerJoin joins users to events on UserID. Rows with no match on either
// side are dropped, not errored. Merged columns are the user columns
// followed by the event columns; on a name clash the event value wins, so
// Component, Action and Date always come from the activity log.
func innerJoin(users, events *Table) *Table {
	columns := append([]string(nil), users.Columns...)
	for _, c := range events.Columns {
		if !containsString(columns, c) {
			columns = append(columns, c)
		}
	}
	merged := NewTable(columns...)

	usersByID := make(map[string][]Row)
	for _, row := range users.Rows {
		id := cellString(row[ColumnUserID])
		usersByID[id] = append(usersByID[id], row)
	}

	for _, event := range events.Rows {
		id := cellString(event[ColumnUserID])
		for _, user := range usersByID[id] {
			row := make(Row, len(columns))
			for k, v := range user {
				row[k] = v
			}
			for k, v := range event {
				row[k] = v
			}
			merged.Append(row)
		}
	}
	return merged
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
