package instantiator

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ZenLiuCN/fn"
	"github.com/davecgh/go-spew/spew"
	"github.com/expr-lang/expr"
)

var debugging = false

func recovered(f func()) (err error) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case error:
			err = r
		default:
			err = fmt.Errorf("%v", r)
		}
	}()
	f()
	return
}

func TestStrategiesDefault(t *testing.T) {
	i := fn.Panic1(New())
	for _, s := range i.Strategies() {
		t.Run(s.Name, func(t *testing.T) {
			v := s.Func()
			if v == nil {
				t.Fatalf("%s returned nil", s.Name)
			}
			if !v.IsDefault() {
				t.Errorf("%s = %+v, want default values", s.Name, *v)
			}
			if debugging {
				t.Log(spew.Sdump(v))
			}
		})
	}
}

func TestStrategiesTable(t *testing.T) {
	s := fn.Panic1(New()).Strategies()
	baselines := 0
	names := make(map[string]bool)
	for _, x := range s {
		if x.Baseline {
			baselines++
			if x.Cached {
				t.Errorf("baseline %s marked cached", x.Name)
			}
		}
		if names[x.Name] {
			t.Errorf("duplicate strategy %s", x.Name)
		}
		names[x.Name] = true
	}
	if baselines != 1 {
		t.Errorf("baselines = %d, want 1", baselines)
	}
	if last := s[len(s)-1]; last.Name != "UsingNew" || !last.Baseline {
		t.Errorf("last strategy = %s, want baseline UsingNew", last.Name)
	}
	for name := range names {
		if len(name) > 9 && name[len(name)-9:] == "WithCache" && !names[name[:len(name)-9]] {
			t.Errorf("%s has no uncached counterpart", name)
		}
	}
}

func TestCachedMatchesUncached(t *testing.T) {
	i := fn.Panic1(New())
	byName := make(map[string]Strategy)
	for _, s := range i.Strategies() {
		byName[s.Name] = s
	}
	for name, s := range byName {
		if !s.Cached {
			continue
		}
		u, ok := byName[name[:len(name)-len("WithCache")]]
		if !ok {
			t.Fatalf("missing uncached variant of %s", name)
		}
		if a, b := s.Func(), u.Func(); *a != *b {
			t.Errorf("%s = %+v, %s = %+v", name, *a, u.Name, *b)
		}
	}
}

func TestNoAliasing(t *testing.T) {
	i := fn.Panic1(New())
	for _, s := range i.Strategies() {
		t.Run(s.Name, func(t *testing.T) {
			v := make([]*Target, 8)
			for n := range v {
				v[n] = s.Func()
			}
			v[0].A = 42
			v[0].B = "changed"
			for n, x := range v[1:] {
				if x == v[0] {
					t.Fatalf("call %d returned the same instance", n+1)
				}
				if !x.IsDefault() {
					t.Errorf("call %d = %+v after mutating the first", n+1, *x)
				}
			}
		})
	}
}

func TestHandlesBuiltOnce(t *testing.T) {
	d := Default()
	n := Built()
	h := d.Handles()
	for range 100 {
		Default().UsingActivatorWithCache()
		Default().UsingConstructorWithCache()
		Default().UsingDynamicMethodWithCache()
		Default().UsingRuntimeHelpersWithCache()
		Default().UsingExpressionWithCache()
	}
	if Default() != d {
		t.Error("Default returned another instantiator")
	}
	if Default().Handles() != h {
		t.Error("handles replaced")
	}
	if Built() != n {
		t.Errorf("handles built %d times during cached calls", Built()-n)
	}

	n = Built()
	i := fn.Panic1(New())
	for range 10 {
		i.UsingDynamicMethodWithCache()
		i.UsingExpressionWithCache()
	}
	if Built() != n+1 {
		t.Errorf("New built handles %d times, want 1", Built()-n)
	}
}

func TestScenario(t *testing.T) {
	i := Default()
	for _, f := range []func() *Target{i.UsingNew, i.UsingRuntimeHelpersWithCache, i.UsingDynamicMethod} {
		var v *Target
		if err := recovered(func() { v = f() }); err != nil {
			t.Fatal(err)
		}
		if v.A != 0 || v.B != "" {
			t.Errorf("got %+v", *v)
		}
	}
}

func TestCodegenDenied(t *testing.T) {
	if _, err := New(WithGenerator(Denied{})); !errors.Is(err, ErrCodegenDenied) {
		t.Fatalf("New with denied generator: %v, want %v", err, ErrCodegenDenied)
	}
	i := fn.Panic1(New())
	i.gen = Denied{}
	if err := recovered(func() { i.UsingDynamicMethod() }); !errors.Is(err, ErrCodegenDenied) {
		t.Errorf("UsingDynamicMethod: %v, want %v", err, ErrCodegenDenied)
	}
	for _, f := range []func() *Target{
		i.UsingNew,
		i.UsingActivator, i.UsingActivatorWithCache,
		i.UsingConstructor, i.UsingConstructorWithCache,
		i.UsingRuntimeHelpers, i.UsingRuntimeHelpersWithCache,
	} {
		if err := recovered(func() { f() }); err != nil {
			t.Errorf("reflection strategy failed without codegen: %v", err)
		}
	}
}

func TestMissingRegistration(t *testing.T) {
	if _, err := New(WithTypes(NewTypes())); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("New with empty registry: %v, want %v", err, ErrUnknownType)
	}
	i := fn.Panic1(New())
	i.types = NewTypes()
	if err := recovered(func() { i.UsingActivator() }); !errors.Is(err, ErrUnknownType) {
		t.Errorf("UsingActivator: %v, want %v", err, ErrUnknownType)
	}
	if err := recovered(func() { i.UsingActivatorWithCache() }); err != nil {
		t.Errorf("UsingActivatorWithCache: %v", err)
	}
}

func TestMakeFunc(t *testing.T) {
	h := Default().Handles()
	f := fn.Panic1(MakeFunc{}.Generate(h.Type, h.Constructor))
	if !f().IsDefault() {
		t.Error("generated factory returned non default target")
	}
	zero := fn.Panic1(MakeFunc{}.Generate(h.Type, reflect.Value{}))
	if a, b := zero(), zero(); a == b || !a.IsDefault() {
		t.Errorf("zero allocating factory: %p %p", a, b)
	}
	if _, err := (MakeFunc{}).Generate(factoryType, h.Constructor); !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("generate for foreign type: %v", err)
	}
}

func TestStrategyPanicsUnwrapped(t *testing.T) {
	i := fn.Panic1(New())
	h := *i.Handles()
	h.Program = fn.Panic1(expr.Compile("1"))
	i.handles = &h
	if err := recovered(func() { i.UsingExpressionWithCache() }); !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("UsingExpressionWithCache: %v, want %v", err, ErrUnexpectedType)
	}
	i.gen = Denied{}
	for name, f := range map[string]func() *Target{
		"UsingDynamicMethod": i.UsingDynamicMethod,
		"Generate": func() *Target {
			return must(i.gen.Generate(h.Type, h.Constructor))()
		},
	} {
		err := recovered(func() { f() })
		if !errors.Is(err, ErrCodegenDenied) {
			t.Errorf("%s: %v, want %v", name, err, ErrCodegenDenied)
		}
		if _, ok := err.(interface{ Unwrap() error }); !ok {
			t.Errorf("%s panicked with %T, want a wrapped error", name, err)
		}
	}
}
