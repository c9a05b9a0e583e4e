// Package trace provides a simple-to-use tracing API to trace code
// execution.
//
// Code that wants to be traced declares named domains and reports tasks on
// them with StartTask, AddTaskStep, FailTask, and EndTask. Tracers attach to
// domains with CollectTrace and consume the task stream, either aggregating
// in memory (e.g., TotalTimeTracer, BusyTimeTracer) or persisting tasks
// (e.g., LogTracer, SQLiteTraceWriter, MongoDBTracer). All collection is
// gated by a process-wide switch controlled with Enable and Disable.
package trace
