package session

import (
	"context"
	"encoding/json"
	"time"

	"activity-insights/internal/analysis"
	"activity-insights/internal/models"
	"activity-insights/pkg/queue"
)

// Analysis types accepted by Analyze.
const (
	AnalysisMonthlyTotals = "monthly_totals"
	AnalysisCorrelation   = "correlation"
	AnalysisStatistics    = "statistics"
)

// Object keys written through the storage sink.
const (
	PreparedKey      = "cleaned_data.json"
	backupKeyPattern = "backup_20060102_150405.csv"
)

// AnalysisRequest carries the optional filters and the analysis selector.
type AnalysisRequest struct {
	UserIDs      []string `json:"userIds"`
	Components   []string `json:"components"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	AnalysisType string   `json:"analysisType" binding:"omitempty,oneof=monthly_totals correlation statistics"`
}

// AnalysisResult is the filtered view plus the selected analysis payload.
// Rows is the record-oriented rendering of the view; an empty view is a
// valid result distinguished by RowCount == 0 and Message.
type AnalysisResult struct {
	RowCount int             `json:"rowCount"`
	Columns  []string        `json:"columns"`
	Rows     json.RawMessage `json:"rows"`
	Message  string          `json:"message,omitempty"`

	MonthlyTotals []analysis.MonthTotal       `json:"monthlyTotals,omitempty"`
	Statistics    []analysis.ComponentStats   `json:"statistics,omitempty"`
	Correlation   *analysis.CorrelationMatrix `json:"correlation,omitempty"`
}

// LoadResult reports the raw row counts after a successful load.
type LoadResult struct {
	Dir            string    `json:"dir"`
	Users          int       `json:"users"`
	Activity       int       `json:"activity"`
	ComponentCodes int       `json:"componentCodes"`
	LoadedAt       time.Time `json:"loadedAt"`
}

// Service owns the single session slot of raw and prepared data and
// orchestrates the pipeline stages around it.
type Service interface {
	// Load reads the three raw tables from dir into the session slot.
	Load(ctx context.Context, dir string) (*LoadResult, error)
	// Prepare runs transform, reshape and persist synchronously against
	// the loaded slot and commits the prepared slot on success.
	Prepare(ctx context.Context) (*models.MatrixShape, error)
	// EnqueuePrepare dispatches a background prepare run.
	EnqueuePrepare(ctx context.Context) (*models.PrepareTask, error)
	// HandlePrepare is the worker entrypoint for a queued run.
	HandlePrepare(ctx context.Context, task *queue.PrepareTask) error
	// TaskStatus reports the state of a background run.
	TaskStatus(ctx context.Context, taskID string) (*models.PrepareTask, error)
	// Analyze filters the prepared matrix and computes the selected
	// analysis.
	Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error)
	// DownloadPrepared returns the persisted record-oriented document.
	DownloadPrepared(ctx context.Context) ([]byte, error)
}
