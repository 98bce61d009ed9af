package hook

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"unsafe"
)

// Ref identifies the underlying callable of a registration. Two refs to
// the same function, or to the same method of the same receiver, have equal
// identities no matter how many times they are built.
type Ref interface {
	Identity() string
}

type ref string

func (r ref) Identity() string { return string(r) }

// FuncRef identifies a function value by its code pointer and its
// context. For a method value such as a.Handle the context is the receiver,
// so a.Handle and b.Handle differ while two evaluations of a.Handle agree.
// For a closure it is the closure itself: the same value keeps its
// identity, separately created closures do not share one.
func FuncRef(fn Func) Ref {
	if fn == nil {
		return ref("func:<nil>")
	}
	pc := reflect.ValueOf(fn).Pointer()
	name := "?"
	if f := runtime.FuncForPC(pc); f != nil {
		name = f.Name()
	}
	return ref(fmt.Sprintf("func:%s@%#x/%#x", name, pc, funcContext(fn, name)))
}

// funcContext reads the closure context a func value points to. A method
// value's context holds the receiver right after the code pointer.
func funcContext(fn Func, name string) uintptr {
	ctx := *(*unsafe.Pointer)(unsafe.Pointer(&fn))
	if strings.HasSuffix(name, "-fm") {
		return *(*uintptr)(unsafe.Add(ctx, unsafe.Sizeof(uintptr(0))))
	}
	return uintptr(ctx)
}

// StaticRef identifies a function registered under a class-qualified name.
func StaticRef(class, name string) Ref {
	return ref("static:" + class + "::" + name)
}

// MethodRef identifies a method of class. When the class is bound to an
// instance the receiver's address is part of the identity.
func MethodRef(class Descriptor, method string) Ref {
	return ref("method:" + classIdentity(class) + "->" + method)
}

// ConstructorRef identifies a constructor binding.
func ConstructorRef(class Descriptor) Ref {
	return ref("new:" + classIdentity(class))
}

// InitRef identifies an Init method binding.
func InitRef(class Descriptor) Ref {
	return ref("init:" + classIdentity(class) + "->" + InitMethod)
}

func classIdentity(class Descriptor) string {
	if class == nil {
		return "<nil>"
	}
	inst := class.Instance()
	if inst == nil {
		return class.Name()
	}
	if v := reflect.ValueOf(inst); v.Kind() == reflect.Pointer {
		return fmt.Sprintf("%s@%#x", class.Name(), v.Pointer())
	}
	return fmt.Sprintf("%s@%v", class.Name(), inst)
}

// BuildKey computes the identity key of a registration of ref on hook. The
// hook name is length-prefixed so no hook/identity pair can collide with
// another.
func BuildKey(hook string, r Ref) string {
	return strconv.Itoa(len(hook)) + ":" + hook + "|" + r.Identity()
}

// Registry maps identity keys to the wrapper that was registered, which is
// what the bus needs to unregister. Last record wins.
type Registry struct {
	entries map[string]Registered
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registered)}
}

// Record stores reg under key, replacing any previous entry.
func (r *Registry) Record(key string, reg Registered) {
	reg.Key = key
	r.entries[key] = reg
}

// Lookup returns the entry stored under key.
func (r *Registry) Lookup(key string) (Registered, bool) {
	reg, ok := r.entries[key]
	return reg, ok
}

// Evict removes key. Evicting an absent key does nothing.
func (r *Registry) Evict(key string) {
	delete(r.entries, key)
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Keys returns all keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns all entries ordered by key.
func (r *Registry) Entries() []Registered {
	out := make([]Registered, 0, len(r.entries))
	for _, k := range r.Keys() {
		out = append(out, r.entries[k])
	}
	return out
}
