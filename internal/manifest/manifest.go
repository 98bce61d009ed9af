// Package manifest reads HCL files that declare hooks without Go code:
//
//	hook "the_content" {
//	  script   = "filters.lua"
//	  function = "add_signature"
//	  priority = "last"
//	  args     = 1
//	}
//
//	bind "init" {
//	  class    = "journal.Session"
//	  mode     = "init"
//	  priority = 0
//	}
//
//	mount "greeter" {
//	  priority = 20
//	}
//
// Hook blocks are mounted lazily: the script is loaded the first time the
// hook fires. Bind blocks hook a catalog class's constructor or Init method.
// Mount blocks mount every "@hook" tagged method of a catalog class on one
// shared instance, constructed when a tagged hook first fires; priority is
// the default for tags that declare none.
package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/soyeahso/hookmount/internal/hook"
)

// Binding modes.
const (
	ModeConstructor = "constructor"
	ModeInit        = "init"
)

// defaultArity matches the host convention of passing one argument.
const defaultArity = 1

// Manifest is a decoded manifest file.
type Manifest struct {
	Path     string
	Hooks    []Hook
	Bindings []Binding
	Mounts   []Mount
}

// Hook mounts a script function on an extension point.
type Hook struct {
	Name     string
	Script   string // absolute; empty when the function is already defined
	Function string
	Priority int
	Arity    int
}

// Ref is the identity the hook is mounted under.
func (h Hook) Ref() hook.Ref {
	return hook.StaticRef(h.Script, h.Function)
}

// Binding hooks a class's lifecycle onto an extension point.
type Binding struct {
	Name     string
	Class    string
	Mode     string
	Priority int
}

// Mount mounts a class's tagged methods.
type Mount struct {
	Class    string
	Priority int
}

type hclFile struct {
	Hooks  []*hclHook  `hcl:"hook,block"`
	Binds  []*hclBind  `hcl:"bind,block"`
	Mounts []*hclMount `hcl:"mount,block"`
}

type hclHook struct {
	Name     string         `hcl:"name,label"`
	Script   string         `hcl:"script,optional"`
	Function string         `hcl:"function"`
	Priority hcl.Expression `hcl:"priority,optional"`
	Args     *int           `hcl:"args,optional"`
}

type hclBind struct {
	Name     string         `hcl:"name,label"`
	Class    string         `hcl:"class"`
	Mode     string         `hcl:"mode,optional"`
	Priority hcl.Expression `hcl:"priority,optional"`
}

type hclMount struct {
	Class    string         `hcl:"class,label"`
	Priority hcl.Expression `hcl:"priority,optional"`
}

// Load parses the manifest at path. Relative script paths are resolved
// against the manifest's directory.
func Load(path string, defaultPriority int) (*Manifest, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	return decode(f.Body, path, defaultPriority)
}

// Parse decodes manifest source. filename is used for diagnostics and to
// resolve relative script paths.
func Parse(src []byte, filename string, defaultPriority int) (*Manifest, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decode(f.Body, filename, defaultPriority)
}

func decode(body hcl.Body, path string, defaultPriority int) (*Manifest, error) {
	var raw hclFile
	if diags := gohcl.DecodeBody(body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	m := &Manifest{Path: path}
	base := filepath.Dir(path)

	for _, h := range raw.Hooks {
		priority, err := evalPriority(h.Priority, defaultPriority)
		if err != nil {
			return nil, fmt.Errorf("hook %q: %w", h.Name, err)
		}
		arity := defaultArity
		if h.Args != nil {
			if *h.Args < 0 {
				return nil, fmt.Errorf("hook %q: args must not be negative", h.Name)
			}
			arity = *h.Args
		}
		script := h.Script
		if script != "" && !filepath.IsAbs(script) {
			script = filepath.Join(base, script)
		}
		m.Hooks = append(m.Hooks, Hook{
			Name:     h.Name,
			Script:   script,
			Function: h.Function,
			Priority: priority,
			Arity:    arity,
		})
	}

	for _, b := range raw.Binds {
		priority, err := evalPriority(b.Priority, hook.DefaultPriority)
		if err != nil {
			return nil, fmt.Errorf("bind %q: %w", b.Name, err)
		}
		mode := b.Mode
		if mode == "" {
			mode = ModeConstructor
		}
		if mode != ModeConstructor && mode != ModeInit {
			return nil, fmt.Errorf("bind %q: mode must be %q or %q, got %q", b.Name, ModeConstructor, ModeInit, mode)
		}
		m.Bindings = append(m.Bindings, Binding{
			Name:     b.Name,
			Class:    b.Class,
			Mode:     mode,
			Priority: priority,
		})
	}

	for _, mt := range raw.Mounts {
		priority, err := evalPriority(mt.Priority, defaultPriority)
		if err != nil {
			return nil, fmt.Errorf("mount %q: %w", mt.Class, err)
		}
		m.Mounts = append(m.Mounts, Mount{Class: mt.Class, Priority: priority})
	}

	return m, nil
}

// evalPriority accepts a whole number or one of the strings "first" and
// "last". A missing attribute yields def.
func evalPriority(expr hcl.Expression, def int) (int, error) {
	if expr == nil {
		return def, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, fmt.Errorf("priority: %w", diags)
	}
	if v.IsNull() {
		return def, nil
	}

	switch v.Type() {
	case cty.Number:
		var n int
		if err := gocty.FromCtyValue(v, &n); err != nil {
			return 0, fmt.Errorf("priority: %w", err)
		}
		if n < 0 {
			return 0, fmt.Errorf("priority must not be negative, got %d", n)
		}
		return n, nil
	case cty.String:
		p, ok := hook.ParsePriority(v.AsString(), def)
		if !ok || v.AsString() == "" {
			return 0, fmt.Errorf("priority must be a number, \"first\" or \"last\", got %q", v.AsString())
		}
		return p, nil
	default:
		return 0, fmt.Errorf("priority must be a number or string, got %s", v.Type().FriendlyName())
	}
}
