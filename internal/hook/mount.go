package hook

import (
	"fmt"

	"github.com/soyeahso/hookmount/internal/logging"
)

// Mounter registers wrappers with a bus and remembers them so they can be
// removed again.
type Mounter struct {
	bus             Bus
	registry        *Registry
	loader          Loader
	defaultPriority int
	log             *logging.Logger
}

// NewMounter creates a mount manager on top of bus.
func NewMounter(bus Bus, opts ...Option) *Mounter {
	o := newOptions(opts)
	return &Mounter{
		bus:             bus,
		registry:        o.registry,
		loader:          o.loader,
		defaultPriority: o.defaultPriority,
		log:             o.log.Sub("mount"),
	}
}

// Registry returns the identity registry backing the mounter.
func (m *Mounter) Registry() *Registry { return m.registry }

// DefaultPriority returns the priority used by MountClass.
func (m *Mounter) DefaultPriority() int { return m.defaultPriority }

// MountAll registers every member of class whose documentation carries an
// "@hook" declaration. Members without one are skipped. Wrappers resolve
// their receiver through injector, or use the class's bound instance when
// injector is nil. Nothing is registered if any wrapper fails to build.
func (m *Mounter) MountAll(class Descriptor, defaultPriority int, injector Injector) ([]Registered, error) {
	if class == nil {
		return nil, ErrMissingArgument
	}

	type pending struct {
		decl   Declaration
		member Member
		fn     Func
	}
	var todo []pending
	for _, member := range class.Members() {
		decl, ok := ParseDeclaration(member.Doc, defaultPriority)
		if !ok {
			continue
		}
		fn, err := Build(InjectedMethodCall{Class: class, Method: member.Name, Injector: injector})
		if err != nil {
			return nil, fmt.Errorf("mount %s.%s: %w", class.Name(), member.Name, err)
		}
		todo = append(todo, pending{decl: decl, member: member, fn: fn})
	}

	out := make([]Registered, 0, len(todo))
	for _, p := range todo {
		label := class.Name() + "." + p.member.Name
		reg := m.register(p.decl.Hook, MethodRef(class, p.member.Name), label, p.fn, p.decl.Priority, p.member.Arity)
		out = append(out, reg)
	}
	return out, nil
}

// MountClass is MountAll with the mounter's default priority.
func (m *Mounter) MountClass(class Descriptor, injector Injector) ([]Registered, error) {
	return m.MountAll(class, m.defaultPriority, injector)
}

// Mount builds t and registers it on hook under the identity r. It is the
// general form behind the other Mount methods, for callers that need their
// own identity, such as several script functions sharing one Go closure.
func (m *Mounter) Mount(hook string, r Ref, t Target, priority, arity int) (Registered, error) {
	if err := checkHook(hook); err != nil {
		return Registered{}, err
	}
	if r == nil {
		return Registered{}, fmt.Errorf("%w: nil ref", ErrInvalidTarget)
	}
	wrapped, err := Build(t)
	if err != nil {
		return Registered{}, err
	}
	return m.register(hook, r, r.Identity(), wrapped, priority, arity), nil
}

// MountFunction registers fn on hook. When path is not empty the code unit
// at path is loaded through the mounter's loader before each call.
func (m *Mounter) MountFunction(hook string, fn Func, priority, arity int, path string) (string, error) {
	if err := checkHook(hook); err != nil {
		return "", err
	}
	var t Target = DirectCall{Fn: fn}
	if path != "" {
		t = FileThenCall{Path: path, Loader: m.loader, Fn: fn}
	}
	wrapped, err := Build(t)
	if err != nil {
		return "", err
	}
	label := FuncRef(fn).Identity()
	if path != "" {
		label = path + ":" + label
	}
	reg := m.register(hook, FuncRef(fn), label, wrapped, priority, arity)
	return reg.Key, nil
}

// MountStaticMethod registers fn on hook under the class-qualified name
// class::name.
func (m *Mounter) MountStaticMethod(hook, class, name string, fn Func, priority, arity int) (string, error) {
	if err := checkHook(hook); err != nil {
		return "", err
	}
	if class == "" || name == "" {
		return "", fmt.Errorf("%w: static method needs a class and a name", ErrInvalidTarget)
	}
	wrapped, err := Build(DirectCall{Fn: fn})
	if err != nil {
		return "", err
	}
	reg := m.register(hook, StaticRef(class, name), class+"::"+name, wrapped, priority, arity)
	return reg.Key, nil
}

// MountBoundMethod registers one method of class on hook. The arity is the
// method's declared parameter count.
func (m *Mounter) MountBoundMethod(hook string, class Descriptor, method string, priority int, injector Injector) (string, error) {
	if err := checkHook(hook); err != nil {
		return "", err
	}
	wrapped, err := Build(InjectedMethodCall{Class: class, Method: method, Injector: injector})
	if err != nil {
		return "", err
	}
	member, _ := class.Method(method)
	reg := m.register(hook, MethodRef(class, method), class.Name()+"."+method, wrapped, priority, member.Arity)
	return reg.Key, nil
}

// Unmount removes the registration of ref on hook. It reports whether
// anything was removed; unmounting something never mounted is a no-op.
func (m *Mounter) Unmount(hook string, r Ref, priority int) bool {
	return unregister(m.bus, m.registry, m.log, hook, r, priority)
}

func (m *Mounter) register(hook string, r Ref, label string, fn Func, priority, arity int) Registered {
	key := BuildKey(hook, r)
	reg := Registered{
		Key:      key,
		Hook:     hook,
		Handler:  NewHandler(hook, label, arity, fn),
		Priority: priority,
		Arity:    arity,
	}
	m.registry.Record(key, reg)
	m.bus.Register(hook, reg.Handler, priority, arity)

	m.log.Debug().
		Str("hook", hook).
		Str("target", label).
		Str("priority", FormatPriority(priority)).
		Int("arity", arity).
		Msg("hook mounted")
	return reg
}

func unregister(bus Bus, registry *Registry, log *logging.Logger, hook string, r Ref, priority int) bool {
	key := BuildKey(hook, r)
	reg, ok := registry.Lookup(key)
	if !ok {
		return false
	}
	bus.Unregister(hook, reg.Handler, priority)
	registry.Evict(key)
	log.Debug().Str("hook", hook).Str("target", reg.Handler.Label()).Msg("hook unmounted")
	return true
}

func checkHook(hook string) error {
	if hook == "" {
		return fmt.Errorf("%w: empty hook name", ErrInvalidTarget)
	}
	return nil
}
