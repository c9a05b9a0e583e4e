package trace

import "github.com/tracekit/tracekit/core"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time core.VTimeInSec `json:"time"`
	What string          `json:"what"`
}

// A Task is a traced unit of work.
type Task struct {
	ID         string          `json:"id"`
	ParentID   string          `json:"parent_id"`
	Kind       string          `json:"kind"`
	What       string          `json:"what"`
	Where      string          `json:"where"`
	StartTime  core.VTimeInSec `json:"start_time"`
	EndTime    core.VTimeInSec `json:"end_time"`
	Steps      []TaskStep      `json:"steps"`
	Error      string          `json:"error,omitempty"`
	Detail     interface{}     `json:"-"`
	ParentTask *Task           `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool
