package hook

import "fmt"

// Target is a deferred resolution strategy for a wrapper.
type Target interface {
	target()
}

// DirectCall invokes Fn as is.
type DirectCall struct {
	Fn Func
}

// FileThenCall loads the code unit at Path before every invocation of Fn.
// Loaders are idempotent, so only the first load does real work.
type FileThenCall struct {
	Path   string
	Loader Loader
	Fn     Func
}

// InjectedMethodCall invokes Method on an instance of Class. With an
// Injector the instance is resolved on every invocation; without one the
// class's bound instance is used.
type InjectedMethodCall struct {
	Class    Descriptor
	Method   string
	Injector Injector
}

func (DirectCall) target()         {}
func (FileThenCall) target()       {}
func (InjectedMethodCall) target() {}

// Build turns a target into a wrapper that forwards its arguments in order
// and returns the target's result unchanged. Building has no side effects;
// malformed targets fail here rather than on invocation.
func Build(t Target) (Func, error) {
	switch t := t.(type) {
	case DirectCall:
		if t.Fn == nil {
			return nil, fmt.Errorf("%w: nil function", ErrInvalidTarget)
		}
		fn := t.Fn
		return func(args ...any) (any, error) {
			return fn(args...)
		}, nil

	case FileThenCall:
		if t.Fn == nil {
			return nil, fmt.Errorf("%w: nil function", ErrInvalidTarget)
		}
		if t.Path == "" || t.Loader == nil {
			return nil, fmt.Errorf("%w: file target needs a path and a loader", ErrInvalidTarget)
		}
		path, loader, fn := t.Path, t.Loader, t.Fn
		return func(args ...any) (any, error) {
			if err := loader.Load(path); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			return fn(args...)
		}, nil

	case InjectedMethodCall:
		return buildInjected(t)

	case nil:
		return nil, fmt.Errorf("%w: nil target", ErrInvalidTarget)

	default:
		return nil, fmt.Errorf("%w: unsupported target %T", ErrInvalidTarget, t)
	}
}

func buildInjected(t InjectedMethodCall) (Func, error) {
	if t.Class == nil || t.Method == "" {
		return nil, fmt.Errorf("%w: method target needs a class and a method name", ErrInvalidTarget)
	}
	if _, ok := t.Class.Method(t.Method); !ok {
		return nil, fmt.Errorf("%w: %s has no method %s", ErrInvalidTarget, t.Class.Name(), t.Method)
	}

	class, method, injector := t.Class, t.Method, t.Injector
	if injector == nil {
		inst := class.Instance()
		if inst == nil {
			return nil, fmt.Errorf("%w: %s is not bound to an instance and no injector was given",
				ErrInvalidTarget, class.Name())
		}
		return func(args ...any) (any, error) {
			return class.Invoke(inst, method, args...)
		}, nil
	}

	return func(args ...any) (any, error) {
		inst, err := injector(class)
		if err != nil {
			return nil, fmt.Errorf("inject %s: %w", class.Name(), err)
		}
		return class.Invoke(inst, method, args...)
	}, nil
}
