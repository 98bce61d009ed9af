// Package bus is the reference host event bus for hookmount. Handlers run
// in ascending priority order, ties broken by registration order, and each
// receives at most as many arguments as it declared.
package bus

import (
	"fmt"
	"sort"
	"sync"

	"github.com/soyeahso/hookmount/internal/hook"
	"github.com/soyeahso/hookmount/internal/logging"
)

// All is the extension point fired before every other one. Its handlers
// receive the fired hook's name and its argument list.
const All = "all"

// Bus manages hook registrations and dispatches firings.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]entry
	log      *logging.Logger
}

var _ hook.Bus = (*Bus)(nil)

type entry struct {
	handler  *hook.Handler
	priority int
	arity    int
}

// Entry describes one registration, for listings.
type Entry struct {
	Hook     string `json:"hook"`
	Label    string `json:"label"`
	Priority int    `json:"priority"`
	Arity    int    `json:"arity"`
}

// New creates a bus.
func New(log *logging.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]entry),
		log:      log.Sub("bus"),
	}
}

// Register adds h to name. A handler registered at a priority runs after
// every handler already registered at the same priority.
func (b *Bus) Register(name string, h *hook.Handler, priority, arity int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[name]
	i := sort.Search(len(list), func(i int) bool { return list[i].priority > priority })
	list = append(list, entry{})
	copy(list[i+1:], list[i:])
	list[i] = entry{handler: h, priority: priority, arity: arity}
	b.handlers[name] = list

	b.log.Debug().
		Str("hook", name).
		Str("handler", h.Label()).
		Str("priority", hook.FormatPriority(priority)).
		Msg("handler registered")
}

// Unregister removes the first registration of h on name at priority.
func (b *Bus) Unregister(name string, h *hook.Handler, priority int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[name]
	for i, e := range list {
		if e.handler == h && e.priority == priority {
			b.handlers[name] = append(list[:i:i], list[i+1:]...)
			if len(b.handlers[name]) == 0 {
				delete(b.handlers, name)
			}
			b.log.Debug().Str("hook", name).Str("handler", h.Label()).Msg("handler removed")
			return
		}
	}
}

// Do fires name as an action. Handler errors are logged and do not stop
// later handlers. It returns the number of handlers that ran.
func (b *Bus) Do(name string, args ...any) int {
	b.fireAll(name, args)

	ran := 0
	for _, e := range b.snapshot(name) {
		ran++
		if _, err := e.handler.Call(truncate(args, e.arity)...); err != nil {
			b.log.Warn().
				Err(err).
				Str("hook", name).
				Str("handler", e.handler.Label()).
				Msg("hook handler error")
		}
	}
	return ran
}

// Apply fires name as a filter: value is passed as the first argument to
// each handler and replaced by its result. The first error aborts the
// chain and is returned with the value as it stood.
func (b *Bus) Apply(name string, value any, args ...any) (any, error) {
	argv := append([]any{value}, args...)
	b.fireAll(name, argv)

	for _, e := range b.snapshot(name) {
		out, err := e.handler.Call(truncate(argv, e.arity)...)
		if err != nil {
			return argv[0], fmt.Errorf("filter %s (%s): %w", name, e.handler.Label(), err)
		}
		argv[0] = out
	}
	return argv[0], nil
}

func (b *Bus) fireAll(name string, args []any) {
	if name == All {
		return
	}
	for _, e := range b.snapshot(All) {
		if _, err := e.handler.Call(truncate([]any{name, args}, e.arity)...); err != nil {
			b.log.Warn().
				Err(err).
				Str("hook", name).
				Str("handler", e.handler.Label()).
				Msg("all-hook handler error")
		}
	}
}

func (b *Bus) snapshot(name string) []entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := make([]entry, len(b.handlers[name]))
	copy(list, b.handlers[name])
	return list
}

func truncate(args []any, arity int) []any {
	if arity < 0 {
		arity = 0
	}
	if len(args) > arity {
		return args[:arity]
	}
	return args
}

// Has reports whether name has at least one handler.
func (b *Bus) Has(name string) bool {
	return b.Count(name) > 0
}

// Count returns the number of handlers registered for name.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Hooks returns the names that have at least one handler, sorted.
func (b *Bus) Hooks() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers))
	for name, list := range b.handlers {
		if len(list) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Entries lists the registrations on name in firing order.
func (b *Bus) Entries(name string) []Entry {
	list := b.snapshot(name)
	out := make([]Entry, 0, len(list))
	for _, e := range list {
		out = append(out, Entry{
			Hook:     name,
			Label:    e.handler.Label(),
			Priority: e.priority,
			Arity:    e.arity,
		})
	}
	return out
}
