// Package hook attaches handler methods to named extension points of a host
// event bus. It supports eager discovery of methods tagged with an
// "@hook <name> [priority]" line in their documentation, lazy wrappers that
// defer loading a script or resolving an instance until the extension point
// fires, and one-shot binding of a class constructor or Init method.
//
// The package never fires hooks itself. Firing, ordering and re-entrancy
// belong to the Bus implementation handed to NewMounter or NewBinder.
//
// Mounter, Binder and Registry are owned by a single component and are not
// safe for concurrent use.
package hook

import (
	"fmt"
	"math"
)

// Priority sentinels and the default used when a declaration carries none.
const (
	PriorityFirst   = math.MinInt
	PriorityLast    = math.MaxInt
	DefaultPriority = 10
)

// Func is the uniform callable shape used by wrappers and targets.
// Arguments arrive in firing order; the result is passed through untouched.
type Func func(args ...any) (any, error)

// Handler is the wrapper handed to the bus. Buses compare handlers by
// pointer identity, so the same *Handler must be used to unregister.
type Handler struct {
	hook  string
	label string
	arity int
	fn    Func
}

// NewHandler wraps fn for registration on hook. The label is only used for
// logging and listings.
func NewHandler(hook, label string, arity int, fn Func) *Handler {
	return &Handler{hook: hook, label: label, arity: arity, fn: fn}
}

// Call invokes the wrapped function.
func (h *Handler) Call(args ...any) (any, error) {
	return h.fn(args...)
}

// Hook returns the extension point the handler was built for.
func (h *Handler) Hook() string { return h.hook }

// Label returns a human-readable description of the wrapped target.
func (h *Handler) Label() string { return h.label }

// Arity returns the number of positional arguments the handler accepts.
func (h *Handler) Arity() int { return h.arity }

func (h *Handler) String() string {
	return fmt.Sprintf("%s(%s/%d)", h.hook, h.label, h.arity)
}

// Bus is the host event bus. Register must fire h with at most arity
// arguments in ascending priority order, ties broken by registration order.
// Unregister removes exactly one registration matching h and priority.
type Bus interface {
	Register(hook string, h *Handler, priority, arity int)
	Unregister(hook string, h *Handler, priority int)
}

// Loader loads a code unit. Loading a unit that is already loaded must be a
// no-op.
type Loader interface {
	Load(path string) error
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) error

// Load calls f(path).
func (f LoaderFunc) Load(path string) error { return f(path) }

// Injector resolves the instance a lazily mounted method is invoked on.
// It is called on every invocation; caching is up to the injector.
type Injector func(class Descriptor) (any, error)

// Declaration is the parsed form of an "@hook" documentation line.
type Declaration struct {
	Hook     string
	Priority int
}

// Registered is one outstanding registration.
type Registered struct {
	Key      string
	Hook     string
	Handler  *Handler
	Priority int
	Arity    int
}

// FormatPriority renders a priority, spelling out the sentinels.
func FormatPriority(p int) string {
	switch p {
	case PriorityFirst:
		return "first"
	case PriorityLast:
		return "last"
	default:
		return fmt.Sprint(p)
	}
}
