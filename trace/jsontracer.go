package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/tracekit/tracekit/core"
)

// JSONTracer can write tasks into json format.
type JSONTracer struct {
	w             io.Writer
	timeTeller    core.TimeTeller
	lock          sync.Mutex
	firstTask     bool
	inflightTasks map[string]Task
}

// StartTask records the start of a task
func (t *JSONTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask records the moment that a task reaches a milestone
func (t *JSONTracer) StepTask(task Task) {
	// Do nothing right now
}

// FailTask records the task error and ends the task.
func (t *JSONTracer) FailTask(task Task) {
	t.lock.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if ok {
		originalTask.Error = task.Error
		t.inflightTasks[task.ID] = originalTask
	}
	t.lock.Unlock()

	t.EndTask(task)
}

// EndTask records the time that a task is completed.
func (t *JSONTracer) EndTask(task Task) {
	t.lock.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}
	originalTask.EndTime = t.timeTeller.CurrentTime()

	delete(t.inflightTasks, task.ID)

	if t.firstTask {
		t.firstTask = false
	} else {
		_, err := t.w.Write([]byte(",\n"))
		if err != nil {
			panic(err)
		}
	}

	b, err := json.Marshal(originalTask)
	if err != nil {
		panic(err)
	}

	_, err = t.w.Write(b)
	if err != nil {
		panic(err)
	}
	t.lock.Unlock()
}

func (t *JSONTracer) finish() {
	_, err := t.w.Write([]byte("\n]"))
	if err != nil {
		panic(err)
	}
}

// NewJSONTracer creates a new JSONTracer that writes to a generated file in
// the working directory.
func NewJSONTracer(timeTeller core.TimeTeller) *JSONTracer {
	filename := "tracekit_trace_" + xid.New().String() + ".json"
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(os.Stderr, "Recording tasks in %s\n", filename)

	t := NewJSONTracerWithWriter(timeTeller, f)

	return t
}

// NewJSONTracerWithWriter creates a new JSONTracer, injecting a writer as
// dependency.
func NewJSONTracerWithWriter(
	timeTeller core.TimeTeller,
	w io.Writer,
) *JSONTracer {
	_, err := w.Write([]byte("[\n"))
	if err != nil {
		panic(err)
	}

	t := &JSONTracer{
		w:             w,
		timeTeller:    timeTeller,
		firstTask:     true,
		inflightTasks: make(map[string]Task),
	}

	atexit.Register(t.finish)

	return t
}
