package trace

import (
	"sync"

	"github.com/tracekit/tracekit/core"
)

// A TraceWriter can persist completed tasks. Init must be called before the
// first Write.
type TraceWriter interface {
	Init()
	Write(task Task)
	Flush()
}

// WriterTracer is a Tracer that forwards completed tasks to a TraceWriter.
// It can be restricted to a time range so that only tasks that overlap with
// the range are written.
type WriterTracer struct {
	timeTeller core.TimeTeller
	writer     TraceWriter

	lock         sync.Mutex
	tracingTasks map[string]Task

	startTime, endTime core.VTimeInSec
}

// NewWriterTracer creates a WriterTracer that writes all completed tasks.
func NewWriterTracer(
	timeTeller core.TimeTeller,
	writer TraceWriter,
) *WriterTracer {
	t := &WriterTracer{
		timeTeller:   timeTeller,
		writer:       writer,
		tracingTasks: make(map[string]Task),
		startTime:    -1,
		endTime:      -1,
	}

	return t
}

// NewWriterTracerWithTimeRange creates a WriterTracer which only records the
// tasks that at least partially overlap with the given start and end time.
// A negative start time means recording starts immediately; a negative end
// time means recording never stops.
func NewWriterTracerWithTimeRange(
	timeTeller core.TimeTeller,
	writer TraceWriter,
	startTime, endTime core.VTimeInSec,
) *WriterTracer {
	if startTime >= 0 && endTime >= 0 && startTime >= endTime {
		panic("startTime cannot be greater than endTime")
	}

	t := &WriterTracer{
		timeTeller:   timeTeller,
		writer:       writer,
		tracingTasks: make(map[string]Task),
		startTime:    startTime,
		endTime:      endTime,
	}

	return t
}

// StartTask marks the start of a task.
func (t *WriterTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	if t.endTime >= 0 && task.StartTime > t.endTime {
		return
	}

	if task.ID == "" {
		panic("task id is empty")
	}

	t.lock.Lock()
	t.tracingTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask adds a step to the inflight task.
func (t *WriterTracer) StepTask(task Task) {
	if len(task.Steps) == 0 {
		return
	}

	step := task.Steps[0]
	step.Time = t.timeTeller.CurrentTime()

	t.lock.Lock()
	originalTask, ok := t.tracingTasks[task.ID]
	if ok {
		originalTask.Steps = append(originalTask.Steps, step)
		t.tracingTasks[task.ID] = originalTask
	}
	t.lock.Unlock()
}

// FailTask records the task error and ends the task.
func (t *WriterTracer) FailTask(task Task) {
	t.lock.Lock()
	originalTask, ok := t.tracingTasks[task.ID]
	if ok {
		originalTask.Error = task.Error
		t.tracingTasks[task.ID] = originalTask
	}
	t.lock.Unlock()

	t.EndTask(task)
}

// EndTask writes the task through the writer.
func (t *WriterTracer) EndTask(task Task) {
	endTime := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	if t.startTime >= 0 && endTime < t.startTime {
		return
	}

	originalTask.EndTime = endTime
	originalTask.Detail = nil

	t.writer.Write(originalTask)
}
