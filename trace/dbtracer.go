package trace

import (
	"fmt"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/tracekit/tracekit/core"
	"github.com/tracekit/tracekit/recording"
)

type taskTableEntry struct {
	ID        string  `json:"id"`
	ParentID  string  `json:"parent_id"`
	Kind      string  `json:"kind"`
	What      string  `json:"what"`
	Location  string  `json:"location"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Error     string  `json:"error"`
}

// sessionTableEntry indexes the tables that hold the tasks of each tracing
// session.
type sessionTableEntry struct {
	TableName    string  `json:"table_name"`
	SessionStart float64 `json:"session_start"`
	SessionEnd   float64 `json:"session_end"`
}

// DBTracer is a tracer that can store tasks into a database. DBTracers can
// connect with different backends so that the tasks can be stored in
// different types of databases (e.g., SQLite files, ClickHouse servers).
//
// Tasks are grouped into sessions. Each call to StartSession creates a new
// task table; EndSession records the session in the session index table.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller core.TimeTeller
	backend    recording.DataRecorder

	startTime, endTime core.VTimeInSec

	tracingTasks map[string]Task
	inSession    bool

	sessionCount     int
	currentTableName string
	sessionStartTime core.VTimeInSec
	sessionEndTime   core.VTimeInSec
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller core.TimeTeller,
	dataRecorder recording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable("sessions", sessionTableEntry{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange sets the time range of the tracer. Tasks that end before the
// start time or start after the end time are dropped.
func (t *DBTracer) SetTimeRange(startTime, endTime core.VTimeInSec) {
	t.startTime = startTime
	t.endTime = endTime
}

// InSession returns whether a tracing session is active.
func (t *DBTracer) InSession() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inSession
}

// StartSession opens a new tracing session with its own task table.
func (t *DBTracer) StartSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracingTasks = make(map[string]Task)

	t.inSession = true
	t.sessionCount++
	t.sessionStartTime = t.timeTeller.CurrentTime()
	t.sessionEndTime = 0
	t.currentTableName = fmt.Sprintf("trace%d", t.sessionCount)
	t.backend.CreateTable(t.currentTableName, taskTableEntry{})
}

// EndSession closes the current session. Tasks that are still inflight are
// written with the session end time as their end time.
func (t *DBTracer) EndSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.inSession {
		return
	}

	t.sessionEndTime = t.timeTeller.CurrentTime()

	sessionEntry := sessionTableEntry{
		TableName:    t.currentTableName,
		SessionStart: float64(t.sessionStartTime),
		SessionEnd:   float64(t.sessionEndTime),
	}
	t.backend.InsertData("sessions", sessionEntry)

	t.writeOngoingTasks()

	t.inSession = false
	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startingTaskMustBeValid(task)

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task location must be set")
	}
}

// StepTask marks a step of a task.
func (t *DBTracer) StepTask(_ Task) {
	// Do nothing for now.
}

// FailTask records the task error and ends the task.
func (t *DBTracer) FailTask(task Task) {
	t.mu.Lock()
	originalTask, ok := t.tracingTasks[task.ID]
	if ok {
		originalTask.Error = task.Error
		t.tracingTasks[task.ID] = originalTask
	}
	t.mu.Unlock()

	t.EndTask(task)
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.EndTime = t.timeTeller.CurrentTime()

	if t.startTime > 0 && task.EndTime < t.startTime {
		delete(t.tracingTasks, task.ID)
		return
	}

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndTime = task.EndTime

	if t.inSession && t.currentTableName != "" {
		t.writeTaskToDB(originalTask)
	}

	delete(t.tracingTasks, task.ID)
}

// Terminate terminates the tracer.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracingTasks = nil
	t.backend.Flush()
}

func (t *DBTracer) writeTaskToDB(task Task) {
	entry := taskTableEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Where,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
		Error:     task.Error,
	}
	t.backend.InsertData(t.currentTableName, entry)
}

func (t *DBTracer) writeOngoingTasks() {
	if !t.inSession || t.currentTableName == "" {
		return
	}

	for _, task := range t.tracingTasks {
		if task.StartTime <= t.sessionEndTime {
			ongoingTask := task
			ongoingTask.EndTime = t.sessionEndTime
			t.writeTaskToDB(ongoingTask)
		}
	}
}
