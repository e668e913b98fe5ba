package instantiator

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/ZenLiuCN/fn"
)

type (
	// Types is a registry of named types and their no-argument constructors.
	//
	// It stands in for the runtime type services other platforms provide:
	// lookup of a type descriptor by name, location of its constructor and
	// creation of a default instance.
	Types struct {
		sync.RWMutex
		named map[string]reflect.Type
		ctors map[reflect.Type]entry
	}
	entry struct {
		ctor reflect.Value
		call func() any
	}
)

// TargetName is the name Target is registered under in the default registry.
const TargetName = "Target"

var types = NewTypes()

func init() {
	fn.Panic(types.Register(TargetName, NewTarget))
}

// DefaultTypes returns the process-wide registry, which holds Target.
func DefaultTypes() *Types {
	return types
}

// NewTypes create an empty registry
func NewTypes() *Types {
	return &Types{
		named: make(map[string]reflect.Type),
		ctors: make(map[reflect.Type]entry),
	}
}

// Register a constructor of shape func() *T under name. The registered type is T.
func (r *Types) Register(name string, ctor any) error {
	v := reflect.ValueOf(ctor)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("%s: %w", name, ErrConstructor)
	}
	ft := v.Type()
	if ft.NumIn() != 0 || ft.NumOut() != 1 || ft.Out(0).Kind() != reflect.Pointer {
		return fmt.Errorf("%s %s: %w", name, ft, ErrConstructor)
	}
	t := ft.Out(0).Elem()
	r.Lock()
	defer r.Unlock()
	if _, ok := r.named[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrAlreadyRegistered)
	}
	r.named[name] = t
	call := func() any { return v.Call(nil)[0].Interface() }
	if c, ok := ctor.(func() *Target); ok {
		call = func() any { return c() }
	}
	r.ctors[t] = entry{ctor: v, call: call}
	return nil
}

// Lookup a type descriptor by name
func (r *Types) Lookup(name string) (t reflect.Type, ok bool) {
	r.RLock()
	t, ok = r.named[name]
	r.RUnlock()
	return
}

// MustLookup a type descriptor by name, panics with ErrUnknownType.
func (r *Types) MustLookup(name string) reflect.Type {
	t, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Errorf("%s: %w", name, ErrUnknownType))
	}
	return t
}

// Constructor locates the registered no-argument constructor of t.
func (r *Types) Constructor(t reflect.Type) (v reflect.Value, ok bool) {
	r.RLock()
	var e entry
	e, ok = r.ctors[t]
	r.RUnlock()
	return e.ctor, ok
}

// Create a default instance of t: the registered constructor runs when there
// is one, otherwise a zeroed value is allocated.
func (r *Types) Create(t reflect.Type) any {
	r.RLock()
	e, ok := r.ctors[t]
	r.RUnlock()
	if ok {
		return e.call()
	}
	return reflect.New(t).Interface()
}

// Names of registered types, sorted.
func (r *Types) Names() []string {
	r.RLock()
	n := fn.MapKeys(r.named)
	r.RUnlock()
	slices.Sort(n)
	return n
}
