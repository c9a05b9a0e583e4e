package recording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

type execInfo struct {
	Property string
	Value    string
}

// execRecorder records information about the current program execution into
// an exec_info table.
type execRecorder struct {
	tablename string
	recorder  DataRecorder
	entries   []execInfo
}

// Start logs the current execution.
func (e *execRecorder) Start() {
	currentTime := time.Now()
	startTime := currentTime.Format("2006-01-02 15:04:05.000000000")
	timeEntry := execInfo{"Start Time", startTime}
	e.entries = append(e.entries, timeEntry)

	cmd := strings.Join(os.Args, " ")
	cmdEntry := execInfo{"Command", cmd}
	e.entries = append(e.entries, cmdEntry)

	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}

	cwd := filepath.Dir(ex)
	cwdEntry := execInfo{"Working Directory", cwd}
	e.entries = append(e.entries, cwdEntry)
}

// End writes the recorded entries along with the program exit time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(e.tablename, entry)
	}

	endTime := time.Now()
	endValue := endTime.Format("2006-01-02 15:04:05.000000000")
	timeEntry := execInfo{"End Time", endValue}
	e.recorder.InsertData(e.tablename, timeEntry)

	e.entries = nil

	e.recorder.Flush()
}

func newExecRecorderWithWriter(writer DataRecorder) *execRecorder {
	e := &execRecorder{
		recorder: writer,
		entries:  []execInfo{},
	}

	e.tablename = "exec_info"
	e.recorder.CreateTable(e.tablename, execInfo{})

	return e
}
