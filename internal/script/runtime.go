// Package script runs Lua hook handlers. A Runtime is the loader behind
// file-backed hooks: loading a script defines its global functions, and
// loading the same script again does nothing.
package script

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/soyeahso/hookmount/internal/hook"
	"github.com/soyeahso/hookmount/internal/logging"
)

// ErrClosed is returned by a closed runtime.
var ErrClosed = errors.New("script: runtime closed")

// Runtime wraps one Lua state. gopher-lua states are single-threaded; the
// mutex serializes access from Go.
type Runtime struct {
	mu     sync.Mutex
	L      *lua.LState
	dir    string
	loaded map[string]bool
	closed bool
	log    *logging.Logger
}

var _ hook.Loader = (*Runtime)(nil)

// New creates a runtime resolving relative script paths against dir.
func New(dir string, log *logging.Logger) *Runtime {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	return &Runtime{
		L:      L,
		dir:    dir,
		loaded: make(map[string]bool),
		log:    log.Sub("script"),
	}
}

// openSafeLibraries opens the Lua libraries that cannot touch the host.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Resolve returns the absolute, cleaned form of path.
func (r *Runtime) Resolve(path string) string {
	if !filepath.IsAbs(path) && r.dir != "" {
		path = filepath.Join(r.dir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// Load executes the script at path once. Later loads of the same file are
// no-ops; a failed load is retried next time.
func (r *Runtime) Load(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	full := r.Resolve(path)
	if r.loaded[full] {
		return nil
	}
	if err := r.protect(func() error { return r.L.DoFile(full) }); err != nil {
		return fmt.Errorf("load script %s: %w", full, err)
	}
	r.loaded[full] = true
	r.log.Debug().Str("path", full).Msg("script loaded")
	return nil
}

// Loaded lists the scripts loaded so far, sorted.
func (r *Runtime) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.loaded))
	for p := range r.loaded {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// DoString executes a chunk of Lua code.
func (r *Runtime) DoString(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.protect(func() error { return r.L.DoString(code) })
}

// Register exposes fn to scripts as the global name. Arguments arrive as
// Go values; an error returned by fn is raised as a Lua error.
func (r *Runtime) Register(name string, fn hook.Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.L.SetGlobal(name, r.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		args := make([]any, n)
		for i := 1; i <= n; i++ {
			args[i-1] = fromLua(L.Get(i))
		}
		out, err := fn(args...)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(toLua(L, out))
		return 1
	}))
	return nil
}

// Func returns a hook function calling the Lua global name. The global is
// looked up on each call, so it may be defined by a script loaded later.
func (r *Runtime) Func(name string) hook.Func {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

// Call calls the Lua global name and returns its first result.
func (r *Runtime) Call(name string, args ...any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	fn := r.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("lua function %q not found", name)
	}

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = toLua(r.L, a)
	}

	var out any
	err := r.protect(func() error {
		if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...); err != nil {
			return err
		}
		out = fromLua(r.L.Get(-1))
		r.L.Pop(1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}
	return out, nil
}

// Close releases the Lua state.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.L.Close()
		r.closed = true
	}
}

func (r *Runtime) protect(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	return fn()
}
