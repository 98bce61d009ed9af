package manifest

import (
	"fmt"

	"github.com/soyeahso/hookmount/internal/hook"
)

// Apply mounts every hook, binding and class mount in the manifest. Hook functions are
// resolved through funcs, which typically is a script runtime's Func; the
// mounter's loader loads their scripts. It stops at the first error and
// returns the keys registered so far.
func (m *Manifest) Apply(mounter *hook.Mounter, binder *hook.Binder, loader hook.Loader, funcs func(name string) hook.Func) ([]string, error) {
	keys := make([]string, 0, len(m.Hooks))

	for _, h := range m.Hooks {
		var target hook.Target = hook.DirectCall{Fn: funcs(h.Function)}
		if h.Script != "" {
			target = hook.FileThenCall{Path: h.Script, Loader: loader, Fn: funcs(h.Function)}
		}
		reg, err := mounter.Mount(h.Name, h.Ref(), target, h.Priority, h.Arity)
		if err != nil {
			return keys, fmt.Errorf("mount hook %q: %w", h.Name, err)
		}
		keys = append(keys, reg.Key)
	}

	for _, b := range m.Bindings {
		var err error
		switch b.Mode {
		case ModeInit:
			err = binder.InitTo(b.Name, b.Class, b.Priority)
		default:
			err = binder.ConstructorTo(b.Name, b.Class, b.Priority)
		}
		if err != nil {
			return keys, fmt.Errorf("bind %q: %w", b.Name, err)
		}
	}

	for _, mt := range m.Mounts {
		class, ok := binder.Catalog().Get(mt.Class)
		if !ok {
			return keys, fmt.Errorf("mount %q: %w: unknown class", mt.Class, hook.ErrInvalidTarget)
		}
		regs, err := mounter.MountAll(class, mt.Priority, sharedInstance())
		if err != nil {
			return keys, fmt.Errorf("mount %q: %w", mt.Class, err)
		}
		for _, reg := range regs {
			keys = append(keys, reg.Key)
		}
	}

	return keys, nil
}

// sharedInstance constructs the class on first use and hands every later
// call the same instance.
func sharedInstance() hook.Injector {
	var inst any
	return func(class hook.Descriptor) (any, error) {
		if inst != nil {
			return inst, nil
		}
		v, err := class.New()
		if err != nil {
			return nil, err
		}
		inst = v
		return inst, nil
	}
}
