package hook

import "errors"

// Registration errors. All of them are returned to the immediate caller;
// nothing in this package retries or swallows them.
var (
	// ErrMissingArgument is returned when a registration call that needs a
	// target class received none.
	ErrMissingArgument = errors.New("hook: class name must be supplied")

	// ErrMissingEntryPoint is returned when a class has no constructor
	// (constructor binding) or no Init method (init binding).
	ErrMissingEntryPoint = errors.New("hook: missing entry point")

	// ErrInvalidTarget is returned at build time when a lazy target cannot
	// be turned into a wrapper.
	ErrInvalidTarget = errors.New("hook: invalid target")

	// ErrUnknownDelegate is returned by generic-dispatch adapters asked to
	// invoke a member the underlying collaborator does not expose.
	ErrUnknownDelegate = errors.New("hook: unknown delegate member")
)
