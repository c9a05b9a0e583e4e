package trace

import (
	"sync"

	"go.uber.org/zap"

	"github.com/tracekit/tracekit/core"
)

// LogTracer writes the task lifecycle to a structured logger. Task starts
// and ends are logged at Debug level, task failures at Error level.
type LogTracer struct {
	logger     *zap.Logger
	timeTeller core.TimeTeller

	lock          sync.Mutex
	inflightTasks map[string]Task
}

// NewLogTracer creates a LogTracer that writes to the given logger.
func NewLogTracer(
	logger *zap.Logger,
	timeTeller core.TimeTeller,
) *LogTracer {
	return &LogTracer{
		logger:        logger,
		timeTeller:    timeTeller,
		inflightTasks: make(map[string]Task),
	}
}

// StartTask logs the start of a task.
func (t *LogTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()

	t.logger.Debug("task started",
		zap.String("id", task.ID),
		zap.String("kind", task.Kind),
		zap.String("what", task.What),
		zap.String("where", task.Where),
		zap.Any("detail", task.Detail),
	)
}

// StepTask logs a milestone of a task.
func (t *LogTracer) StepTask(task Task) {
	if len(task.Steps) == 0 {
		return
	}

	t.logger.Debug("task step",
		zap.String("id", task.ID),
		zap.String("step", task.Steps[0].What),
	)
}

// FailTask logs the failure of a task together with its error.
func (t *LogTracer) FailTask(task Task) {
	endTime := t.timeTeller.CurrentTime()

	t.lock.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if ok {
		delete(t.inflightTasks, task.ID)
	}
	t.lock.Unlock()

	if !ok {
		return
	}

	t.logger.Error("task failed",
		zap.String("id", originalTask.ID),
		zap.String("kind", originalTask.Kind),
		zap.String("what", originalTask.What),
		zap.String("error", task.Error),
		zap.Float64("duration",
			float64(endTime-originalTask.StartTime)),
	)
}

// EndTask logs the completion of a task.
func (t *LogTracer) EndTask(task Task) {
	endTime := t.timeTeller.CurrentTime()

	t.lock.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if ok {
		delete(t.inflightTasks, task.ID)
	}
	t.lock.Unlock()

	if !ok {
		return
	}

	t.logger.Debug("task finished",
		zap.String("id", originalTask.ID),
		zap.String("kind", originalTask.Kind),
		zap.String("what", originalTask.What),
		zap.Float64("duration",
			float64(endTime-originalTask.StartTime)),
	)
}
