package hook

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// InitMethod is the method BindInit hooks onto an extension point.
const InitMethod = "Init"

// docsMethod is excluded from member enumeration.
const docsMethod = "HookDocs"

// Member describes one public, non-constructor method of a class.
type Member struct {
	Name  string
	Arity int
	Doc   string
}

// Descriptor is everything the mount manager and the binder need to know
// about a class: its public members with their documentation, its
// constructor, and how to create instances and call methods on them.
type Descriptor interface {
	// Name identifies the class in keys, logs and catalogs.
	Name() string
	// Members lists public, non-constructor methods ordered by name.
	Members() []Member
	// Method looks up one member by name.
	Method(name string) (Member, bool)
	// Constructor reports the constructor's parameter count, if any.
	Constructor() (arity int, ok bool)
	// Instance returns the bound receiver, or nil for an unbound class.
	Instance() any
	// New creates an instance, passing args to the constructor.
	New(args ...any) (any, error)
	// Invoke calls method on instance with args.
	Invoke(instance any, method string, args ...any) (any, error)
}

// HookDocumenter lets a type carry documentation for its methods, since Go
// does not keep doc comments at run time. Keys are method names.
type HookDocumenter interface {
	HookDocs() map[string]string
}

// Class is a reflection-backed Descriptor.
type Class struct {
	name     string
	typ      reflect.Type
	instance any
	ctor     reflect.Value
	members  []Member
	byName   map[string]int
}

var _ Descriptor = (*Class)(nil)

// DescribeOption configures Describe.
type DescribeOption func(*describeConfig)

type describeConfig struct {
	name string
	docs map[string]string
	ctor any
}

// WithName overrides the class name, which defaults to the Go type name.
func WithName(name string) DescribeOption {
	return func(c *describeConfig) { c.name = name }
}

// WithDocs supplies method documentation, merged over HookDocs.
func WithDocs(docs map[string]string) DescribeOption {
	return func(c *describeConfig) { c.docs = docs }
}

// WithConstructor registers a factory function. It must return the
// described type, optionally followed by an error.
func WithConstructor(fn any) DescribeOption {
	return func(c *describeConfig) { c.ctor = fn }
}

// Describe builds a Class from a pointer value. A non-nil pointer is also
// the bound instance; a typed nil pointer describes the class alone.
func Describe(v any, opts ...DescribeOption) (*Class, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrInvalidTarget)
	}
	typ := reflect.TypeOf(v)
	if typ.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("%w: %s is not a pointer", ErrInvalidTarget, typ)
	}

	cfg := describeConfig{name: typ.Elem().String()}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Class{
		name:   cfg.name,
		typ:    typ,
		byName: make(map[string]int),
	}
	if !reflect.ValueOf(v).IsNil() {
		c.instance = v
	}

	if cfg.ctor != nil {
		ctor := reflect.ValueOf(cfg.ctor)
		if err := checkConstructor(ctor.Type(), typ); err != nil {
			return nil, err
		}
		c.ctor = ctor
	}

	docs := make(map[string]string)
	if d, ok := reflect.New(typ.Elem()).Interface().(HookDocumenter); ok {
		for k, doc := range d.HookDocs() {
			docs[k] = doc
		}
	}
	for k, doc := range cfg.docs {
		docs[k] = doc
	}

	// reflect lists methods in lexicographic order.
	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if m.Name == docsMethod {
			continue
		}
		c.byName[m.Name] = len(c.members)
		c.members = append(c.members, Member{
			Name:  m.Name,
			Arity: m.Type.NumIn() - 1,
			Doc:   docs[m.Name],
		})
	}
	return c, nil
}

func checkConstructor(ft, want reflect.Type) error {
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("%w: constructor for %s is %s, not a function", ErrInvalidTarget, want, ft)
	}
	switch {
	case ft.NumOut() == 1 && ft.Out(0).AssignableTo(want):
	case ft.NumOut() == 2 && ft.Out(0).AssignableTo(want) && ft.Out(1) == errorType:
	default:
		return fmt.Errorf("%w: constructor %s must return %s", ErrInvalidTarget, ft, want)
	}
	return nil
}

// Name implements Descriptor.
func (c *Class) Name() string { return c.name }

// Members implements Descriptor.
func (c *Class) Members() []Member {
	out := make([]Member, len(c.members))
	copy(out, c.members)
	return out
}

// Method implements Descriptor.
func (c *Class) Method(name string) (Member, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Member{}, false
	}
	return c.members[i], true
}

// Constructor implements Descriptor.
func (c *Class) Constructor() (int, bool) {
	if !c.ctor.IsValid() {
		return 0, false
	}
	return c.ctor.Type().NumIn(), true
}

// Instance implements Descriptor.
func (c *Class) Instance() any { return c.instance }

// New implements Descriptor. Without a constructor only the parameterless
// zero instance can be created.
func (c *Class) New(args ...any) (any, error) {
	if !c.ctor.IsValid() {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: %s has no constructor accepting %d arguments",
				ErrMissingEntryPoint, c.name, len(args))
		}
		return reflect.New(c.typ.Elem()).Interface(), nil
	}
	return callFunc(c.ctor, args)
}

// Invoke implements Descriptor.
func (c *Class) Invoke(instance any, method string, args ...any) (any, error) {
	if instance == nil {
		return nil, fmt.Errorf("%w: nil %s instance", ErrInvalidTarget, c.name)
	}
	m := reflect.ValueOf(instance).MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %T has no method %s", ErrInvalidTarget, instance, method)
	}
	return callFunc(m, args)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// callFunc calls fn with args converted to its parameter types. Missing
// trailing arguments are passed as zero values.
func callFunc(fn reflect.Value, args []any) (any, error) {
	in, err := convertArgs(fn.Type(), args)
	if err != nil {
		return nil, err
	}
	return collapse(fn.Call(in))
}

func convertArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	} else if len(args) > fixed {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidTarget, ft, fixed, len(args))
	}

	n := max(fixed, len(args))
	in := make([]reflect.Value, n)
	for i := 0; i < n; i++ {
		var pt reflect.Type
		if i < fixed {
			pt = ft.In(i)
		} else {
			pt = ft.In(ft.NumIn() - 1).Elem()
		}
		if i >= len(args) {
			in[i] = reflect.Zero(pt)
			continue
		}
		v, err := convertArg(args[i], pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func convertArg(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(pt), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if (isNumeric(v.Kind()) && isNumeric(pt.Kind())) || v.Kind() == pt.Kind() {
		if v.Type().ConvertibleTo(pt) {
			return v.Convert(pt), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrInvalidTarget, arg, pt)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// collapse folds call results into (value, error). A trailing error result is
// split off; a single remaining value is returned as is, several as []any.
func collapse(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if e := out[n-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	}
	vals := make([]any, len(out))
	for i, v := range out {
		vals[i] = v.Interface()
	}
	return vals, err
}

// Catalog maps class names to descriptors, standing in for construction by
// name.
type Catalog struct {
	mu      sync.RWMutex
	classes map[string]Descriptor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{classes: make(map[string]Descriptor)}
}

// Add registers a descriptor under its name.
func (c *Catalog) Add(d Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.classes[d.Name()]; exists {
		return fmt.Errorf("class already registered: %s", d.Name())
	}
	c.classes[d.Name()] = d
	return nil
}

// Get returns the descriptor registered under name.
func (c *Catalog) Get(name string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.classes[name]
	return d, ok
}

// Names returns all registered class names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.classes))
	for name := range c.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
