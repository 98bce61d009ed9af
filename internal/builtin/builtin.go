// Package builtin provides the components hookmount ships with: a recorder
// that journals every firing, and a greeter class for lifecycle bindings.
package builtin

import (
	"fmt"
	"io"

	"github.com/soyeahso/hookmount/internal/hook"
	"github.com/soyeahso/hookmount/internal/store"
)

// Class names registered by Catalog.
const (
	GreeterClass  = "greeter"
	RecorderClass = "recorder"
)

// Recorder journals hook firings. Mounted on the "all" extension point it
// sees every firing before the firing's own handlers run; Complete fills in
// the outcome afterwards.
type Recorder struct {
	journal  *store.Journal
	handlers func(hook string) int
	seen     map[string]int
	open     map[string]string
}

// NewRecorder creates a recorder writing to journal. handlers, if not nil,
// reports how many handlers a hook has at the moment it fires.
func NewRecorder(journal *store.Journal, handlers func(hook string) int) *Recorder {
	return &Recorder{
		journal:  journal,
		handlers: handlers,
		seen:     make(map[string]int),
		open:     make(map[string]string),
	}
}

// HookDocs implements hook.HookDocumenter.
func (r *Recorder) HookDocs() map[string]string {
	return map[string]string{
		"Record": "// Record journals one firing.\n//\n// @hook all first",
	}
}

// Record journals a firing of hook with args.
func (r *Recorder) Record(hook string, args []any) error {
	r.seen[hook]++
	n := 0
	if r.handlers != nil {
		n = r.handlers(hook)
	}
	if r.journal == nil {
		return nil
	}
	f, err := r.journal.Record(hook, args, n, nil)
	if err != nil {
		return err
	}
	r.open[hook] = f.ID
	return nil
}

// Complete records the outcome of the latest firing of hook: the number of
// handlers that ran and the error it ended with. Without an open firing it
// does nothing.
func (r *Recorder) Complete(hook string, handlers int, fireErr error) error {
	id, ok := r.open[hook]
	if !ok || r.journal == nil {
		return nil
	}
	delete(r.open, hook)
	return r.journal.Finish(id, handlers, fireErr)
}

// Seen returns how many firings of hook the recorder observed.
func (r *Recorder) Seen(hook string) int {
	return r.seen[hook]
}

// Greeter greets on construction, so binding its constructor to a hook
// greets every time the hook fires.
type Greeter struct {
	out  io.Writer
	name string
}

// HookDocs implements hook.HookDocumenter.
func (g *Greeter) HookDocs() map[string]string {
	return map[string]string{
		"Farewell": "// Farewell says goodbye.\n//\n// @hook shutdown last",
	}
}

// Init greets name. It is what an init binding calls.
func (g *Greeter) Init(name string) {
	g.name = name
	fmt.Fprintf(g.writer(), "init %s\n", g.display())
}

// Farewell says goodbye to whoever was greeted last.
func (g *Greeter) Farewell() {
	fmt.Fprintf(g.writer(), "goodbye %s\n", g.display())
}

func (g *Greeter) writer() io.Writer {
	if g.out == nil {
		return io.Discard
	}
	return g.out
}

func (g *Greeter) display() string {
	if g.name == "" {
		return "world"
	}
	return g.name
}

// Catalog returns a catalog holding the built-in classes. Greeters write
// to out; the recorder class is unbound, so lifecycle bindings create
// journal-less recorders.
func Catalog(out io.Writer) (*hook.Catalog, error) {
	c := hook.NewCatalog()

	newGreeter := func(name string) *Greeter {
		g := &Greeter{out: out, name: name}
		fmt.Fprintf(g.writer(), "hello %s\n", g.display())
		return g
	}
	greeter, err := hook.Describe((*Greeter)(nil),
		hook.WithName(GreeterClass),
		hook.WithConstructor(newGreeter),
	)
	if err != nil {
		return nil, err
	}
	if err := c.Add(greeter); err != nil {
		return nil, err
	}

	recorder, err := hook.Describe((*Recorder)(nil),
		hook.WithName(RecorderClass),
		hook.WithConstructor(func() *Recorder { return NewRecorder(nil, nil) }),
	)
	if err != nil {
		return nil, err
	}
	if err := c.Add(recorder); err != nil {
		return nil, err
	}
	return c, nil
}

// MountRecorder mounts r's tagged methods through m.
func MountRecorder(m *hook.Mounter, r *Recorder) ([]hook.Registered, error) {
	class, err := hook.Describe(r, hook.WithName(RecorderClass))
	if err != nil {
		return nil, err
	}
	return m.MountClass(class, nil)
}
