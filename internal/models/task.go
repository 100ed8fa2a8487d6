package models

import (
	"time"
)

// TaskStatus is the lifecycle state of a background prepare run.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// PrepareTask describes one clean/transform/reshape/persist run.
type PrepareTask struct {
	ID        string            `json:"id"`
	Status    TaskStatus        `json:"status"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

// MatrixShape summarises a prepared matrix for API responses.
type MatrixShape struct {
	Rows       int      `json:"rows"`
	Components []string `json:"components"`
}
