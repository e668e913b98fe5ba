//go:build goloader

package instantiator

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ZenLiuCN/fn"
	"github.com/davecgh/go-spew/spew"
)

func compiled(t *testing.T) string {
	dir := t.TempDir()
	src := filepath.Join(dir, "factory.go")
	fn.Panic(os.WriteFile(src, linkedSource, 0o644))
	obj := filepath.Join(dir, "factory.o")
	if err := Compile(linkedPkg, obj, src); err != nil {
		t.Skipf("go toolchain unavailable: %v", err)
	}
	return obj
}

func TestInspect(t *testing.T) {
	obj := compiled(t)
	names := fn.Panic1(Inspect(obj, linkedPkg))
	if !slices.Contains(names, linkedSym) {
		t.Errorf("symbols %v miss %s", names, linkedSym)
	}
}

func TestModule(t *testing.T) {
	obj := compiled(t)
	m := NewModule(fn.Panic1(RuntimeSymbols()))
	if err := m.Link(); !errors.Is(err, ErrUninitialized) {
		t.Errorf("Link before Initialize: %v", err)
	}
	fn.Panic(m.Initialize(obj, linkedPkg))
	if err := m.Initialize(obj, linkedPkg); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Initialize: %v", err)
	}
	fn.Panic(m.Link())
	defer m.Free()
	if err := m.Link(); !errors.Is(err, ErrLinked) {
		t.Errorf("second Link: %v", err)
	}
	if _, ok := m.Fetch("linked.Missing"); ok {
		t.Error("fetched a missing symbol")
	}
	if err := recovered(func() { m.MustFetch("linked.Missing") }); !errors.Is(err, ErrMissingSymbol) {
		t.Errorf("MustFetch missing: %v", err)
	}
	p := As[linkedFactory](m.MustFetch(linkedSym))()
	if v := (*Target)(p); !v.IsDefault() {
		t.Errorf("linked factory = %s", spew.Sdump(v))
	}
}

func TestLinkedStrategies(t *testing.T) {
	compiled(t)
	i := fn.Panic1(New())
	defer i.Close()
	var found int
	for _, s := range i.Strategies() {
		if s.Family != FamilyLinkedModule {
			continue
		}
		found++
		for range 3 {
			if v := s.Func(); !v.IsDefault() {
				t.Errorf("%s = %+v", s.Name, *v)
			}
		}
	}
	if found != 2 {
		t.Errorf("linked strategies = %d, want 2", found)
	}
}
