package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"activity-insights/internal/analysis"
	"activity-insights/internal/dataset"
	"activity-insights/internal/models"
	"activity-insights/pkg/converters"
	"activity-insights/pkg/logger"
	"activity-insights/pkg/queue"
	"activity-insights/pkg/recordstore"
	"activity-insights/pkg/storage"
)

var (
	// ErrNotLoaded means Prepare was called before any Load.
	ErrNotLoaded = errors.New("no data loaded")
	// ErrNotPrepared means no prepared matrix exists in memory or storage.
	ErrNotPrepared = errors.New("no prepared data available")
	// ErrPrepareInFlight means a prepare run is already executing;
	// concurrent runs against the same session are not supported.
	ErrPrepareInFlight = errors.New("a prepare run is already in flight")
)

// Config holds the session-level pipeline settings.
type Config struct {
	// DataDir is the default source directory for background runs.
	DataDir string
	// YearAwareMonths switches the reshape to YYYY-MM buckets.
	YearAwareMonths bool
	// RetentionDays prunes old backup snapshots after a successful run;
	// 0 keeps everything.
	RetentionDays int
}

// SessionService holds the single "current loaded / current prepared" slot.
// Both slots are overwritten wholesale on success and left untouched on any
// failure.
type SessionService struct {
	store   storage.Storage
	records recordstore.Store // nil when the record-store backup is disabled
	queue   queue.Queue       // nil when no background queue is configured
	log     logger.Logger
	cfg     *Config

	mu        sync.Mutex // guards the slots below
	raw       *dataset.Sources
	rawDir    string
	prepared  *dataset.Table
	prepareMu sync.Mutex // serialises prepare runs
}

func NewService(
	store storage.Storage,
	records recordstore.Store,
	q queue.Queue,
	log logger.Logger,
	cfg *Config,
) *SessionService {
	if cfg == nil {
		cfg = &Config{DataDir: "./data"}
	}
	return &SessionService{
		store:   store,
		records: records,
		queue:   q,
		log:     log,
		cfg:     cfg,
	}
}

// Load implements Service.
func (s *SessionService) Load(ctx context.Context, dir string) (*LoadResult, error) {
	if dir == "" {
		dir = s.cfg.DataDir
	}

	sources, err := dataset.LoadDir(dir, s.log)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.raw = sources
	s.rawDir = dir
	s.mu.Unlock()

	return &LoadResult{
		Dir:            dir,
		Users:          sources.Users.NumRows(),
		Activity:       sources.Activity.NumRows(),
		ComponentCodes: sources.ComponentCodes.NumRows(),
		LoadedAt:       time.Now(),
	}, nil
}

// Prepare implements Service.
func (s *SessionService) Prepare(ctx context.Context) (*models.MatrixShape, error) {
	if !s.prepareMu.TryLock() {
		return nil, ErrPrepareInFlight
	}
	defer s.prepareMu.Unlock()

	s.mu.Lock()
	sources := s.raw
	s.mu.Unlock()
	if sources == nil {
		return nil, ErrNotLoaded
	}

	matrix, err := s.runPipeline(ctx, sources)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.prepared = matrix
	s.mu.Unlock()

	return matrixShape(matrix), nil
}

// EnqueuePrepare implements Service.
func (s *SessionService) EnqueuePrepare(ctx context.Context) (*models.PrepareTask, error) {
	if s.queue == nil {
		return nil, errors.New("background queue not configured")
	}

	s.mu.Lock()
	dir := s.rawDir
	s.mu.Unlock()
	if dir == "" {
		dir = s.cfg.DataDir
	}

	task := &queue.PrepareTask{
		ID:        uuid.New().String(),
		DataDir:   dir,
		CreatedAt: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, err
	}

	s.log.Info("Prepare run enqueued",
		logger.String("taskId", task.ID),
		logger.String("dataDir", dir),
	)
	return &models.PrepareTask{
		ID:        task.ID,
		Status:    models.StatusPending,
		Metadata:  map[string]string{"dataDir": dir},
		CreatedAt: task.CreatedAt,
	}, nil
}

// HandlePrepare implements Service; it is the worker-side entrypoint and
// re-reads the sources from disk so the run works in a separate process.
func (s *SessionService) HandlePrepare(ctx context.Context, task *queue.PrepareTask) error {
	if task == nil || task.ID == "" {
		return errors.New("invalid task: missing required data")
	}

	s.saveStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    string(models.StatusRunning),
		StartedAt: task.CreatedAt,
	})

	err := func() error {
		if !s.prepareMu.TryLock() {
			return ErrPrepareInFlight
		}
		defer s.prepareMu.Unlock()

		sources, err := dataset.LoadDir(task.DataDir, s.log)
		if err != nil {
			return err
		}
		matrix, err := s.runPipeline(ctx, sources)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.raw = sources
		s.rawDir = task.DataDir
		s.prepared = matrix
		s.mu.Unlock()

		s.saveStatus(ctx, &queue.TaskStatus{
			TaskID:     task.ID,
			Status:     string(models.StatusCompleted),
			Rows:       matrix.NumRows(),
			StartedAt:  task.CreatedAt,
			FinishedAt: time.Now(),
		})
		return nil
	}()
	if err != nil {
		s.saveStatus(ctx, &queue.TaskStatus{
			TaskID:     task.ID,
			Status:     string(models.StatusFailed),
			Error:      err.Error(),
			StartedAt:  task.CreatedAt,
			FinishedAt: time.Now(),
		})
		return err
	}
	return nil
}

// TaskStatus implements Service.
func (s *SessionService) TaskStatus(ctx context.Context, taskID string) (*models.PrepareTask, error) {
	if s.queue == nil {
		return nil, errors.New("background queue not configured")
	}
	status, err := s.queue.GetStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &models.PrepareTask{
		ID:        status.TaskID,
		Status:    models.TaskStatus(status.Status),
		Error:     status.Error,
		CreatedAt: status.StartedAt,
		UpdatedAt: status.FinishedAt,
	}, nil
}

// Analyze implements Service.
func (s *SessionService) Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error) {
	matrix, err := s.preparedMatrix(ctx)
	if err != nil {
		return nil, err
	}

	opts := dataset.FilterOptions{
		UserIDs:    req.UserIDs,
		Components: req.Components,
	}
	dateRange, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	opts.DateRange = dateRange

	view, err := dataset.Filter(matrix, opts)
	if err != nil {
		return nil, err
	}

	rows, err := converters.RecordsJSON(view)
	if err != nil {
		return nil, err
	}
	result := &AnalysisResult{
		RowCount: view.NumRows(),
		Columns:  append([]string(nil), view.Columns...),
		Rows:     rows,
	}
	if view.NumRows() == 0 {
		result.Message = "no rows matched the given filters"
		return result, nil
	}

	components := req.Components
	if len(components) == 0 {
		components = countColumns(view)
	}

	switch req.AnalysisType {
	case AnalysisMonthlyTotals:
		if len(components) == 0 {
			return nil, fmt.Errorf("monthly totals need at least one component column")
		}
		series, err := analysis.MonthlyTotals(view, components[0])
		if err != nil {
			return nil, err
		}
		result.MonthlyTotals = series
	case AnalysisCorrelation:
		result.Correlation = analysis.Correlate(view, components)
	case AnalysisStatistics:
		result.Statistics = analysis.Statistics(view, components)
	case "":
		// plain filtered view, no analysis payload
	default:
		return nil, fmt.Errorf("unknown analysis type: %s", req.AnalysisType)
	}
	return result, nil
}

// DownloadPrepared implements Service.
func (s *SessionService) DownloadPrepared(ctx context.Context) ([]byte, error) {
	reader, err := s.store.Get(ctx, PreparedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPrepared, err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// runPipeline executes transform, reshape and persist. Nothing is committed
// to any slot here; callers commit only after it succeeds.
func (s *SessionService) runPipeline(ctx context.Context, sources *dataset.Sources) (*dataset.Table, error) {
	merged, err := dataset.Transform(sources.Users, sources.Activity, sources.ComponentCodes, s.log)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	matrix, err := dataset.Reshape(merged, dataset.ReshapeOptions{
		YearAwareMonths: s.cfg.YearAwareMonths,
	}, s.log)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}

	if err := s.persist(ctx, matrix); err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	return matrix, nil
}

// persist writes the record-oriented document, a timestamped CSV snapshot,
// and the optional record-store backup. Any failure aborts the run.
func (s *SessionService) persist(ctx context.Context, matrix *dataset.Table) error {
	doc, err := converters.RecordsJSON(matrix)
	if err != nil {
		return err
	}
	if _, err := s.store.Store(ctx, bytes.NewReader(doc), PreparedKey); err != nil {
		return err
	}

	snapshot, err := converters.RecordsCSV(matrix)
	if err != nil {
		return err
	}
	backupKey := time.Now().Format(backupKeyPattern)
	if _, err := s.store.Store(ctx, bytes.NewReader(snapshot), backupKey); err != nil {
		return err
	}

	if s.records != nil {
		inserted, err := s.records.InsertRecords(ctx, matrix)
		if err != nil {
			return err
		}
		s.log.Info("Record-store backup written", logger.Int("inserted", inserted))
	}

	if s.cfg.RetentionDays > 0 {
		threshold := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
		if err := s.store.CleanupBefore(ctx, threshold); err != nil {
			// retention is housekeeping, not part of the run's contract
			s.log.Warn("Backup retention cleanup failed", logger.Error(err))
		}
	}

	s.log.Info("Prepared matrix persisted",
		logger.String("document", PreparedKey),
		logger.String("backup", backupKey),
		logger.Int("rows", matrix.NumRows()),
	)
	return nil
}

// preparedMatrix returns the in-memory prepared slot, falling back to the
// persisted document so queries survive a restart or a worker-side prepare.
func (s *SessionService) preparedMatrix(ctx context.Context) (*dataset.Table, error) {
	s.mu.Lock()
	matrix := s.prepared
	s.mu.Unlock()
	if matrix != nil {
		return matrix, nil
	}

	reader, err := s.store.Get(ctx, PreparedKey)
	if err != nil {
		return nil, ErrNotPrepared
	}
	defer reader.Close()

	matrix, err = converters.ParseRecordsJSON(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prepared document: %w", err)
	}

	s.mu.Lock()
	s.prepared = matrix
	s.mu.Unlock()
	return matrix, nil
}

func (s *SessionService) saveStatus(ctx context.Context, status *queue.TaskStatus) {
	if s.queue == nil {
		return
	}
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		s.log.Error("Failed to save task status",
			logger.String("taskId", status.TaskID),
			logger.Error(err),
		)
	}
}

func matrixShape(matrix *dataset.Table) *models.MatrixShape {
	return &models.MatrixShape{
		Rows:       matrix.NumRows(),
		Components: countColumns(matrix),
	}
}

// countColumns lists the component count columns, i.e. everything except
// the UserID and Month keys.
func countColumns(t *dataset.Table) []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c == dataset.ColumnUserID || c == dataset.ColumnMonth || c == dataset.ColumnDate {
			continue
		}
		out = append(out, c)
	}
	return out
}

// inputDateLayouts accepts the ISO form used by the UI alongside the
// day-first form used in the source data.
var inputDateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

func parseDateRange(start, end string) (*dataset.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("date range needs both startDate and endDate")
	}
	startAt, err := parseInputDate(start)
	if err != nil {
		return nil, err
	}
	endAt, err := parseInputDate(end)
	if err != nil {
		return nil, err
	}
	return &dataset.DateRange{Start: startAt, End: endAt}, nil
}

func parseInputDate(value string) (time.Time, error) {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or DD-MM-YYYY", value)
}
