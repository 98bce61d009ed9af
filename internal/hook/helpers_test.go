package hook

import (
	"sort"
	"strings"
)

type busCall struct {
	hook     string
	handler  *Handler
	priority int
	arity    int
}

// fakeBus records calls and fires handlers the way a host bus would.
type fakeBus struct {
	live         []busCall
	registered   []busCall
	unregistered []busCall
}

func (b *fakeBus) Register(hook string, h *Handler, priority, arity int) {
	c := busCall{hook: hook, handler: h, priority: priority, arity: arity}
	b.registered = append(b.registered, c)
	b.live = append(b.live, c)
}

func (b *fakeBus) Unregister(hook string, h *Handler, priority int) {
	b.unregistered = append(b.unregistered, busCall{hook: hook, handler: h, priority: priority})
	for i, c := range b.live {
		if c.hook == hook && c.handler == h && c.priority == priority {
			b.live = append(b.live[:i:i], b.live[i+1:]...)
			return
		}
	}
}

func (b *fakeBus) fire(hook string, args ...any) ([]any, error) {
	var matched []busCall
	for _, c := range b.live {
		if c.hook == hook {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].priority < matched[j].priority })

	var results []any
	for _, c := range matched {
		n := min(c.arity, len(args))
		out, err := c.handler.Call(args[:n]...)
		if err != nil {
			return results, err
		}
		results = append(results, out)
	}
	return results, nil
}

func (b *fakeBus) count(hook string) int {
	n := 0
	for _, c := range b.live {
		if c.hook == hook {
			n++
		}
	}
	return n
}

// widget carries three public methods, two of them tagged.
type widget struct {
	prefix string
	calls  []string
}

func (w *widget) HookDocs() map[string]string {
	return map[string]string{
		"Boot": `/**
 * Boot prepares the widget.
 *
 * @hook init 5
 */`,
		"Render": "// Render wraps content.\n// @hook the_content last",
		"Helper": "// Helper is not hooked, even though it mentions @hook in prose.",
	}
}

func (w *widget) Boot() string {
	w.calls = append(w.calls, "boot")
	return "booted"
}

func (w *widget) Render(content string) (string, error) {
	w.calls = append(w.calls, "render")
	return w.prefix + "<p>" + content + "</p>", nil
}

func (w *widget) Helper() {}

// greeter has exactly one tagged method out of three.
type greeter struct{}

func (g *greeter) HookDocs() map[string]string {
	return map[string]string{
		"Hello":   "// @hook wp_head",
		"Goodbye": "// @hook wp_footer bogus",
	}
}

func (g *greeter) Hello(name string, times int) string { return strings.Repeat("hi "+name, times) }
func (g *greeter) Goodbye() string { return "bye" }
func (g *greeter) Wave() {}

// booter is built by a constructor.
type booter struct {
	n int
}

// starter is built parameterless and initialized by Init.
type starter struct {
	name string
}

var started []*starter

func (s *starter) Init(name string) {
	s.name = name
	started = append(started, s)
}
