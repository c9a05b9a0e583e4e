package trace

import (
	"sync/atomic"

	"github.com/tracekit/tracekit/core"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	core.Named
	core.Hookable
	InvokeHook(core.HookCtx)
}

// A list of hook poses for the hooks to apply to
var (
	HookPosTaskStart = &core.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &core.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &core.HookPos{Name: "HookPosTaskEnd"}
	HookPosTaskFail  = &core.HookPos{Name: "HookPosTaskFail"}
)

var enabled atomic.Bool

// Enable turns on trace collection. Tracing starts disabled; Setup also
// enables it.
func Enable() {
	enabled.Store(true)
}

// Disable turns off trace collection. Task reports are dropped before they
// reach any tracer while tracing is disabled.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether tracing is enabled.
func IsEnabled() bool {
	return enabled.Load()
}

// StartTask notifies the hooks that hook to the domain about the start of a
// task.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	if !IsEnabled() || domain.NumHooks() == 0 {
		return
	}

	StartTaskWithSpecificLocation(
		id,
		parentID,
		domain,
		kind,
		what,
		domain.Name(),
		detail,
	)
}

func allRequiredFieldsMustBeNotEmpty(
	id string,
	domain NamedHookable,
	kind string,
	what string,
) {
	if id == "" {
		panic("id must not be empty")
	}

	if domain == nil {
		panic("domain must not be nil")
	}

	if kind == "" {
		panic("kind must not be empty")
	}

	if what == "" {
		panic("what must not be empty")
	}
}

func domainMustHaveName(domain NamedHookable) {
	if domain.Name() == "" {
		panic("domain must have a name")
	}
}

// StartTaskWithSpecificLocation notifies the hooks that hook to the domain
// about the start of a task, and is able to customize `where` field of a
// task, for code that reports tasks on behalf of another location.
func StartTaskWithSpecificLocation(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	location string,
	detail interface{},
) {
	if !IsEnabled() || domain.NumHooks() == 0 {
		return
	}

	allRequiredFieldsMustBeNotEmpty(id, domain, kind, what)
	domainMustHaveName(domain)

	task := Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Where:    location,
		Detail:   detail,
	}
	ctx := core.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskStart,
	}
	domain.InvokeHook(ctx)
}

// AddTaskStep marks that a milestone has been reached when processing a task.
func AddTaskStep(
	id string,
	domain NamedHookable,
	what string,
) {
	if !IsEnabled() || domain.NumHooks() == 0 {
		return
	}

	step := TaskStep{
		What: what,
	}
	task := Task{
		ID:    id,
		Steps: []TaskStep{step},
	}
	ctx := core.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskStep,
	}
	domain.InvokeHook(ctx)
}

// FailTask notifies the hooks that a task has terminated with an error. The
// task is still considered ended; tracers that persist tasks record the
// error alongside the task.
func FailTask(
	id string,
	domain NamedHookable,
	err error,
) {
	if !IsEnabled() || domain.NumHooks() == 0 {
		return
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	task := Task{
		ID:    id,
		Error: errMsg,
	}
	ctx := core.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskFail,
	}
	domain.InvokeHook(ctx)
}

// EndTask notifies the hooks about the end of a task.
func EndTask(
	id string,
	domain NamedHookable,
) {
	if !IsEnabled() || domain.NumHooks() == 0 {
		return
	}

	task := Task{
		ID: id,
	}
	ctx := core.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskEnd,
	}
	domain.InvokeHook(ctx)
}
