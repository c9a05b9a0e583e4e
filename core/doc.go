// Package core provides the primitives shared by all TraceKit packages:
// named objects, hooks, time telling, and ID generation.
package core
