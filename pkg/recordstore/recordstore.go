// Package recordstore backs up prepared matrices into a document store as
// independent records. No uniqueness constraint is enforced: every backup
// run inserts a fresh batch.
package recordstore

import (
	"context"

	"activity-insights/internal/dataset"
)

// Store is the record-store interface; the pipeline treats it as optional.
type Store interface {
	// InsertRecords inserts one document per table row.
	InsertRecords(ctx context.Context, table *dataset.Table) (int, error)
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
