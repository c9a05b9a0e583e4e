// The tracekit command provides utilities for working with trace databases.
package main

func main() {
	Execute()
}
