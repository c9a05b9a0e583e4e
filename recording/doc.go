// Package recording provides backends that record structured data into
// databases. Tracers use it to persist tasks, but any struct with flat,
// scalar fields can be recorded.
package recording
