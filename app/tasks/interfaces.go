package tasks

import "time"

// RunRecord captures the outcome of the most recent run of a job type.
type RunRecord struct {
	Type        TaskType  `json:"type"`
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
}

// TaskSchedulerInterface defines the interface for background job
// scheduling. Used by the main application and by the manual-trigger API
// endpoint.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueJob(taskType TaskType) error
	LastRuns() []RunRecord
}
