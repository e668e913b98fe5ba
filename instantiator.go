package instantiator

import (
	"fmt"
	"reflect"
	"sync"
)

type (
	// Family groups strategies sharing one construction mechanism.
	Family string
	// Strategy is one named way to produce a Target.
	Strategy struct {
		Name     string
		Family   Family
		Cached   bool // reuses a handle built before measuring
		Baseline bool // the reference all others are compared to
		Func     func() *Target
	}
	// Instantiator holds the strategies and the handles the cached ones share.
	//
	// Every strategy returns a new Target with default values. Failures of the
	// underlying mechanism panic and are not recovered.
	Instantiator struct {
		types   *Types
		gen     Generator
		handles *Handles
		extra   []Strategy
		closers []func()
	}
	// Option configures [New].
	Option func(*Instantiator)
	// extension contributes extra strategies built at setup, with an optional closer.
	extension func(i *Instantiator) (s []Strategy, closer func(), err error)
)

const (
	FamilyActivator    Family = "activator"
	FamilyConstructor  Family = "constructor"
	FamilyDynamic      Family = "dynamic-method"
	FamilyUninit       Family = "uninitialized"
	FamilyExpression   Family = "expression"
	FamilyNew          Family = "new"
	FamilyLinkedModule Family = "linked-module"
)

var extensions []extension

// WithGenerator replace the runtime code generator, [MakeFunc] by default.
func WithGenerator(g Generator) Option {
	return func(i *Instantiator) {
		i.gen = g
	}
}

// WithTypes replace the type registry, [DefaultTypes] by default. It must hold Target.
func WithTypes(r *Types) Option {
	return func(i *Instantiator) {
		i.types = r
	}
}

// New create an Instantiator and build its handles. An error here is a setup
// failure: none of the cached strategies can run.
func New(opts ...Option) (i *Instantiator, err error) {
	i = &Instantiator{types: types, gen: MakeFunc{}}
	for _, opt := range opts {
		opt(i)
	}
	if i.handles, err = NewHandles(i.types, i.gen); err != nil {
		return nil, err
	}
	for _, ext := range extensions {
		s, closer, err := ext(i)
		if closer != nil {
			i.closers = append(i.closers, closer)
		}
		if err != nil {
			i.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
		i.extra = append(i.extra, s...)
	}
	return
}

var (
	defaultOnce sync.Once
	defaulted   *Instantiator
)

// Default returns the process-wide Instantiator, built on first use.
// It panics when the setup fails.
func Default() *Instantiator {
	defaultOnce.Do(func() {
		defaulted = must(New())
	})
	return defaulted
}

// Handles used by the cached strategies
func (i *Instantiator) Handles() *Handles {
	return i.handles
}

// Close releases resources held by extension strategies.
func (i *Instantiator) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
	i.closers = nil
}

// Strategies in declaration order, the baseline last.
func (i *Instantiator) Strategies() []Strategy {
	s := []Strategy{
		{Name: "UsingActivator", Family: FamilyActivator, Func: i.UsingActivator},
		{Name: "UsingActivatorWithCache", Family: FamilyActivator, Cached: true, Func: i.UsingActivatorWithCache},
		{Name: "UsingConstructor", Family: FamilyConstructor, Func: i.UsingConstructor},
		{Name: "UsingConstructorWithCache", Family: FamilyConstructor, Cached: true, Func: i.UsingConstructorWithCache},
		{Name: "UsingDynamicMethod", Family: FamilyDynamic, Func: i.UsingDynamicMethod},
		{Name: "UsingDynamicMethodWithCache", Family: FamilyDynamic, Cached: true, Func: i.UsingDynamicMethodWithCache},
		{Name: "UsingRuntimeHelpers", Family: FamilyUninit, Func: i.UsingRuntimeHelpers},
		{Name: "UsingRuntimeHelpersWithCache", Family: FamilyUninit, Cached: true, Func: i.UsingRuntimeHelpersWithCache},
		{Name: "UsingExpression", Family: FamilyExpression, Func: i.UsingExpression},
		{Name: "UsingExpressionWithCache", Family: FamilyExpression, Cached: true, Func: i.UsingExpressionWithCache},
	}
	s = append(s, i.extra...)
	return append(s, Strategy{Name: "UsingNew", Family: FamilyNew, Baseline: true, Func: i.UsingNew})
}

// must panics with err unwrapped.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func as(v any) *Target {
	t, ok := v.(*Target)
	if !ok {
		panic(fmt.Errorf("%T: %w", v, ErrUnexpectedType))
	}
	return t
}

func (i *Instantiator) constructor(t reflect.Type) reflect.Value {
	c, ok := i.types.Constructor(t)
	if !ok {
		panic(fmt.Errorf("%s: %w", t, ErrMissingConstructor))
	}
	return c
}

// UsingActivator looks the type up by name and asks the registry for a default instance.
func (i *Instantiator) UsingActivator() *Target {
	t := i.types.MustLookup(TargetName)
	return as(i.types.Create(t))
}

func (i *Instantiator) UsingActivatorWithCache() *Target {
	return as(i.types.Create(i.handles.Type))
}

// UsingConstructor looks the type up, locates its constructor and invokes it reflectively.
func (i *Instantiator) UsingConstructor() *Target {
	t := i.types.MustLookup(TargetName)
	return as(i.constructor(t).Call(nil)[0].Interface())
}

func (i *Instantiator) UsingConstructorWithCache() *Target {
	return as(i.handles.Constructor.Call(nil)[0].Interface())
}

// UsingDynamicMethod generates a factory on every call and invokes it once.
func (i *Instantiator) UsingDynamicMethod() *Target {
	t := i.types.MustLookup(TargetName)
	f := must(i.gen.Generate(t, i.constructor(t)))
	return f()
}

func (i *Instantiator) UsingDynamicMethodWithCache() *Target {
	return i.handles.Factory()
}

// UsingRuntimeHelpers allocates zeroed storage of the type without running its constructor.
func (i *Instantiator) UsingRuntimeHelpers() *Target {
	t := i.types.MustLookup(TargetName)
	return as(reflect.New(t).Interface())
}

func (i *Instantiator) UsingRuntimeHelpersWithCache() *Target {
	return as(reflect.New(i.handles.Type).Interface())
}

// UsingExpression compiles the expression tree on every call and runs it.
func (i *Instantiator) UsingExpression() *Target {
	p := must(CompileExpression())
	return must(RunExpression(p))
}

func (i *Instantiator) UsingExpressionWithCache() *Target {
	return must(RunExpression(i.handles.Program))
}

// UsingNew is the baseline.
func (i *Instantiator) UsingNew() *Target {
	return &Target{}
}
