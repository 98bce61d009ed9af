package hook

import (
	"fmt"

	"github.com/soyeahso/hookmount/internal/logging"
)

// Binder hooks a class's constructor or Init method onto one extension
// point. Every firing creates exactly one new instance, which the binder
// does not keep.
type Binder struct {
	bus      Bus
	registry *Registry
	catalog  *Catalog
	log      *logging.Logger
}

// NewBinder creates a lifecycle binder on top of bus.
func NewBinder(bus Bus, opts ...Option) *Binder {
	o := newOptions(opts)
	return &Binder{
		bus:      bus,
		registry: o.registry,
		catalog:  o.catalog,
		log:      o.log.Sub("bind"),
	}
}

// Registry returns the identity registry backing the binder.
func (b *Binder) Registry() *Registry { return b.registry }

// Catalog returns the catalog class names are resolved against.
func (b *Binder) Catalog() *Catalog { return b.catalog }

// BindConstructor constructs a new instance of class every time hook fires,
// passing the firing's arguments to the constructor.
func (b *Binder) BindConstructor(hook string, class Descriptor, priority int) error {
	if class == nil {
		return ErrMissingArgument
	}
	if err := checkHook(hook); err != nil {
		return err
	}
	arity, ok := class.Constructor()
	if !ok {
		return fmt.Errorf("%w: %s has no constructor", ErrMissingEntryPoint, class.Name())
	}

	fn := func(args ...any) (any, error) {
		if _, err := class.New(args...); err != nil {
			return nil, fmt.Errorf("construct %s: %w", class.Name(), err)
		}
		return nil, nil
	}
	b.register(hook, ConstructorRef(class), "new "+class.Name(), fn, priority, arity)
	return nil
}

// BindInit creates a parameterless instance of class every time hook
// fires, then calls its Init method with the firing's arguments.
func (b *Binder) BindInit(hook string, class Descriptor, priority int) error {
	if class == nil {
		return ErrMissingArgument
	}
	if err := checkHook(hook); err != nil {
		return err
	}
	member, ok := class.Method(InitMethod)
	if !ok {
		return fmt.Errorf("%w: %s has no %s method", ErrMissingEntryPoint, class.Name(), InitMethod)
	}

	fn := func(args ...any) (any, error) {
		inst, err := class.New()
		if err != nil {
			return nil, fmt.Errorf("construct %s: %w", class.Name(), err)
		}
		if _, err := class.Invoke(inst, InitMethod, args...); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", class.Name(), InitMethod, err)
		}
		return nil, nil
	}
	b.register(hook, InitRef(class), class.Name()+"."+InitMethod, fn, priority, member.Arity)
	return nil
}

// ConstructorTo is BindConstructor in call-site form:
//
//	binder.ConstructorTo("boot", "greeter", 0)
//
// args[0] is a Descriptor or a class name known to the binder's catalog;
// args[1], if present, is the priority (an int, or "first" or "last").
func (b *Binder) ConstructorTo(hook string, args ...any) error {
	class, priority, err := b.resolveArgs(args)
	if err != nil {
		return err
	}
	return b.BindConstructor(hook, class, priority)
}

// InitTo is BindInit in call-site form; see ConstructorTo.
func (b *Binder) InitTo(hook string, args ...any) error {
	class, priority, err := b.resolveArgs(args)
	if err != nil {
		return err
	}
	return b.BindInit(hook, class, priority)
}

// Unbind removes a lifecycle binding identified by ConstructorRef or
// InitRef. Unbinding something never bound is a no-op.
func (b *Binder) Unbind(hook string, r Ref, priority int) bool {
	return unregister(b.bus, b.registry, b.log, hook, r, priority)
}

func (b *Binder) resolveArgs(args []any) (Descriptor, int, error) {
	if len(args) == 0 || args[0] == nil {
		return nil, 0, ErrMissingArgument
	}

	var class Descriptor
	switch v := args[0].(type) {
	case Descriptor:
		class = v
	case string:
		if v == "" {
			return nil, 0, ErrMissingArgument
		}
		d, ok := b.catalog.Get(v)
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown class %q", ErrInvalidTarget, v)
		}
		class = d
	default:
		return nil, 0, fmt.Errorf("%w: %T is not a class", ErrInvalidTarget, args[0])
	}

	priority := DefaultPriority
	if len(args) > 1 {
		switch v := args[1].(type) {
		case int:
			priority = v
		case string:
			p, ok := ParsePriority(v, DefaultPriority)
			if !ok {
				return nil, 0, fmt.Errorf("%w: bad priority %q", ErrInvalidTarget, v)
			}
			priority = p
		default:
			return nil, 0, fmt.Errorf("%w: priority must be an int, got %T", ErrInvalidTarget, args[1])
		}
	}
	return class, priority, nil
}

func (b *Binder) register(hook string, r Ref, label string, fn Func, priority, arity int) {
	key := BuildKey(hook, r)
	h := NewHandler(hook, label, arity, fn)
	b.registry.Record(key, Registered{
		Key:      key,
		Hook:     hook,
		Handler:  h,
		Priority: priority,
		Arity:    arity,
	})
	b.bus.Register(hook, h, priority, arity)

	b.log.Debug().
		Str("hook", hook).
		Str("target", label).
		Str("priority", FormatPriority(priority)).
		Int("arity", arity).
		Msg("lifecycle bound")
}
