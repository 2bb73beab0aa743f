package maintenance

import (
	"context"
	"time"
)

// Task represents a maintenance task that can be scheduled and executed
type Task interface {
	// Name returns the name of the maintenance task
	Name() string

	// Description returns a human-readable description of what the task does
	Description() string

	// Schedule returns the task's cron expression (with a seconds field).
	// An empty schedule means the task only runs on demand.
	Schedule() string

	// Execute runs the maintenance task
	Execute(ctx context.Context) TaskResult
}

// TaskResult represents the result of executing a maintenance task
type TaskResult struct {
	Success          bool          `json:"success"`
	Duration         time.Duration `json:"duration"`
	Message          string        `json:"message"`
	RecordsProcessed int           `json:"records_processed,omitempty"`
	Error            error         `json:"-"`
}

// TaskStatus represents the status of a maintenance task
type TaskStatus struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	LastRun     time.Time  `json:"last_run"`
	NextRun     time.Time  `json:"next_run"`
	LastResult  TaskResult `json:"last_result"`
	Enabled     bool       `json:"enabled"`
	Schedule    string     `json:"schedule"`
}
