// Package queue dispatches prepare runs onto asynq and tracks their status
// in redis under task_status:<id>. Status writes are last-write-wins; the
// caller serialises concurrent prepare runs.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"activity-insights/config"
)

// TaskTypePrepare is the asynq task type for a full prepare run.
const TaskTypePrepare = "dataset:prepare"

// statusTTL bounds how long a finished task's status stays queryable.
const statusTTL = 24 * time.Hour

// ErrTaskNotFound indicates no status is recorded for a task id.
var ErrTaskNotFound = errors.New("task not found")

// Queue is the dispatch interface used by the session service.
type Queue interface {
	Enqueue(ctx context.Context, task *PrepareTask) error
	GetStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	SaveStatus(ctx context.Context, status *TaskStatus) error
}

// PrepareTask is the payload carried through asynq.
type PrepareTask struct {
	ID        string    `json:"id"`
	DataDir   string    `json:"dataDir"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskStatus is the queryable state of one run.
type TaskStatus struct {
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Rows       int       `json:"rows,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// AsynqQueue implements Queue over asynq plus a redis status key.
type AsynqQueue struct {
	client *asynq.Client
	redis  *redis.Client
}

// New creates the queue from configuration.
func New(cfg *config.RedisConfig) *AsynqQueue {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Addr, DB: cfg.DB}
	return &AsynqQueue{
		client: asynq.NewClient(redisOpt),
		redis:  redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB}),
	}
}

// Enqueue dispatches a prepare run and records its pending status.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *PrepareTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	t := asynq.NewTask(TaskTypePrepare, payload,
		asynq.TaskID(task.ID),
		asynq.MaxRetry(0), // a failed run is re-triggered by the user, never replayed
		asynq.Timeout(10*time.Minute),
	)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return q.SaveStatus(ctx, &TaskStatus{
		TaskID:    task.ID,
		Status:    "pending",
		StartedAt: task.CreatedAt,
	})
}

// GetStatus reads a task's status from redis.
func (q *AsynqQueue) GetStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(taskID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	var status TaskStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

// SaveStatus writes a task's status to redis. Last write wins.
func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

// Close releases the asynq and redis clients.
func (q *AsynqQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	return q.redis.Close()
}

func statusKey(taskID string) string {
	return "task_status:" + taskID
}
