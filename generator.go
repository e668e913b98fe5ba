package instantiator

import (
	"fmt"
	"reflect"
)

type (
	// Factory produces a fresh Target on each call.
	Factory func() *Target
	// Generator builds a Factory for a type at runtime.
	Generator interface {
		Generate(t reflect.Type, ctor reflect.Value) (Factory, error)
	}
	// MakeFunc generates factories with [reflect.MakeFunc]: the produced function
	// allocates through the located constructor, or allocates zeroed storage when
	// the constructor is absent.
	MakeFunc struct{}
	// Denied refuses every generation, as a process without the capability would.
	Denied struct{}
)

var factoryType = reflect.TypeOf((*Factory)(nil)).Elem()

func (MakeFunc) Generate(t reflect.Type, ctor reflect.Value) (f Factory, err error) {
	if t != factoryType.Out(0).Elem() {
		return nil, fmt.Errorf("generate %s: %w", t, ErrUnexpectedType)
	}
	var body func([]reflect.Value) []reflect.Value
	if ctor.IsValid() {
		body = func([]reflect.Value) []reflect.Value {
			return ctor.Call(nil)
		}
	} else {
		body = func([]reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.New(t)}
		}
	}
	return reflect.MakeFunc(factoryType, body).Interface().(Factory), nil
}

func (Denied) Generate(t reflect.Type, _ reflect.Value) (Factory, error) {
	return nil, fmt.Errorf("generate %s: %w", t, ErrCodegenDenied)
}
