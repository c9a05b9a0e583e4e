package trace

import (
	"errors"

	"github.com/tracekit/tracekit/core"
)

// RootDomainName is the name given to the default root domain.
const RootDomainName = "tracekit"

// A Domain is a named scope of the traced program. Domains form a hierarchy
// with dot-separated names; a task reported on a child domain also reaches
// the tracers attached to all of its ancestors.
type Domain struct {
	core.HookableBase

	name   string
	parent *Domain
}

// NewDomain creates a new root-level domain with the given name.
func NewDomain(name string) *Domain {
	if name == "" {
		panic("domain must have a name")
	}

	return &Domain{name: name}
}

// Name returns the full, dot-separated name of the domain.
func (d *Domain) Name() string {
	return d.name
}

// Child creates a sub-domain named `<parent>.<suffix>`. Tracing must be
// enabled before child domains can be created.
func (d *Domain) Child(suffix string) (*Domain, error) {
	if !IsEnabled() {
		return nil, errors.New(
			"tracing must be enabled before adding a child domain")
	}

	if suffix == "" {
		return nil, errors.New("child domain suffix must not be empty")
	}

	return &Domain{
		name:   d.name + "." + suffix,
		parent: d,
	}, nil
}

// NumHooks counts the hooks attached to the domain and all its ancestors.
func (d *Domain) NumHooks() int {
	n := 0
	for dom := d; dom != nil; dom = dom.parent {
		n += dom.HookableBase.NumHooks()
	}

	return n
}

// InvokeHook triggers the hooks of the domain and of all its ancestors.
func (d *Domain) InvokeHook(ctx core.HookCtx) {
	for dom := d; dom != nil; dom = dom.parent {
		dom.HookableBase.InvokeHook(ctx)
	}
}
