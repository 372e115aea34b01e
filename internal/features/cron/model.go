package cron_feature

import (
	"time"
)

// ScheduledTask is one sync task registered with the scheduler.
type ScheduledTask struct {
	Task      string     `json:"task"`
	Schedule  string     `json:"schedule"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *RunState  `json:"last_run,omitempty"`
	Scheduled bool       `json:"scheduled"`
}

// RunState is the outcome of the most recent scheduled run of a task.
type RunState struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"` // "success", "failed", "running"
	Error     string        `json:"error,omitempty"`
	Fetched   int           `json:"records_fetched"`
}
