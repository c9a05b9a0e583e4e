package trace

import "github.com/tracekit/tracekit/core"

// Region starts a task on the domain and returns a function that ends it.
// The returned function is typically deferred:
//
//	defer trace.Region(domain, "stage", "parse")()
func Region(domain NamedHookable, kind, what string) func() {
	id := core.GetIDGenerator().Generate()

	StartTask(id, "", domain, kind, what, nil)

	return func() {
		EndTask(id, domain)
	}
}

// Do traces the execution of fn as a task on the domain. A non-nil error
// from fn fails the task; otherwise the task ends normally. The error is
// returned unchanged either way.
func Do(domain NamedHookable, what string, fn func() error) error {
	id := core.GetIDGenerator().Generate()

	StartTask(id, "", domain, "func", what, nil)

	err := fn()
	if err != nil {
		FailTask(id, domain, err)
		return err
	}

	EndTask(id, domain)

	return nil
}
