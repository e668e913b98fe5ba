//go:build goloader

package instantiator

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/pkujhd/goloader"
)

// The linked module allocates an anonymous struct with the layout of Target and
// hands it back as an unsafe.Pointer, so the object needs no import of this package.
// The anonymous type is registered from the host, so instances never refer to
// type data inside unloaded code.
//
//go:embed testdata/linked/factory.go
var linkedSource []byte

const (
	linkedPkg = "linked"
	linkedSym = linkedPkg + ".NewTarget"
)

type (
	// Sym is a simple alias of uintptr.
	Sym uintptr
	// Module is a relocatable object linked into the running process.
	//
	// Use Steps:
	//
	//	1. Initialize or InitializeSerialized.
	//	2. [Module.Link] against the runtime symbols.
	//	3. Fetch symbols.
	//	4. [Module.Free] to unload the code.
	Module struct {
		symbols map[string]uintptr
		linker  *goloader.Linker
		module  *goloader.CodeModule
	}
	linkedFactory = func() unsafe.Pointer
	linkedShape   = struct {
		A int
		B string
	}
)

func init() {
	extensions = append(extensions, linkedStrategies)
}

// NewModule create a Module resolving against the symbols of the host executable.
func NewModule(symbols map[string]uintptr) *Module {
	return &Module{symbols: symbols}
}

// RuntimeSymbols collects the symbols of the host executable.
func RuntimeSymbols() (map[string]uintptr, error) {
	s := make(map[string]uintptr)
	if err := goloader.RegSymbol(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Module) Initialize(file, pkg string) (err error) {
	if s.linker != nil {
		return ErrAlreadyInitialized
	}
	if s.linker, err = goloader.ReadObj(file, pkg); err != nil {
		return
	}
	log.Debug("create linker", "file", file, "pkg", pkg)
	return
}

func (s *Module) InitializeSerialized(in io.Reader) (err error) {
	if s.linker != nil {
		return ErrAlreadyInitialized
	}
	s.linker, err = goloader.UnSerialize(in)
	return
}

// Serialize the linker, which may be loaded again by InitializeSerialized.
func (s *Module) Serialize() ([]byte, error) {
	if s.linker == nil {
		return nil, ErrUninitialized
	}
	b := new(bytes.Buffer)
	if err := goloader.Serialize(s.linker, b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (s *Module) Link() (err error) {
	if s.linker == nil {
		return ErrUninitialized
	}
	if s.module != nil {
		return ErrLinked
	}
	if s.module, err = goloader.Load(s.linker, s.symbols); err != nil {
		return
	}
	log.Debug("linked module", "symbols", len(s.module.Syms))
	return
}

func (s *Module) Fetch(sym string) (u Sym, ok bool) {
	if s.module == nil {
		return
	}
	var p uintptr
	if p, ok = s.module.Syms[sym]; !ok {
		return
	}
	return Sym(p), true
}

func (s *Module) MustFetch(sym string) Sym {
	if s.module == nil {
		panic(ErrUninitialized)
	}
	u, ok := s.Fetch(sym)
	if !ok {
		panic(fmt.Errorf("%s: %w", sym, ErrMissingSymbol))
	}
	return u
}

// Free unloads the linked code. Functions fetched from it must not be called afterwards.
func (s *Module) Free() {
	if s.module != nil {
		s.module.Unload()
		s.module = nil
	}
	s.linker = nil
}

// As convert a fetched function Sym to its Go function type.
func As[T any](p Sym) T {
	container := new(uintptr)
	*container = uintptr(p)
	return *(*T)(unsafe.Pointer(&container))
}

// linkedStrategies compiles the factory object, links one long-lived module for
// the cached strategy and keeps the serialized linker for the uncached one.
func linkedStrategies(_ *Instantiator) (s []Strategy, closer func(), err error) {
	dir, err := os.MkdirTemp("", "instantiator-linked")
	if err != nil {
		return
	}
	defer os.RemoveAll(dir)
	src := filepath.Join(dir, "factory.go")
	if err = os.WriteFile(src, linkedSource, 0o644); err != nil {
		return
	}
	obj := filepath.Join(dir, "factory.o")
	if err = Compile(linkedPkg, obj, src); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCodegenDenied, err)
	}
	if log.GetLevel() <= log.DebugLevel {
		names, err := Inspect(obj, linkedPkg)
		log.Debug("compiled linked factory", "object", obj, "symbols", names, "err", err)
	}
	symbols, err := RuntimeSymbols()
	if err != nil {
		return
	}
	goloader.RegTypes(symbols, new(linkedShape))
	cached := NewModule(symbols)
	closer = cached.Free
	if err = cached.Initialize(obj, linkedPkg); err != nil {
		return
	}
	serialized, err := cached.Serialize()
	if err != nil {
		return
	}
	if err = cached.Link(); err != nil {
		return
	}
	factory := As[linkedFactory](cached.MustFetch(linkedSym))
	uncached := func() *Target {
		m := NewModule(symbols)
		defer m.Free()
		if err := m.InitializeSerialized(bytes.NewReader(serialized)); err != nil {
			panic(err)
		}
		if err := m.Link(); err != nil {
			panic(err)
		}
		return (*Target)(As[linkedFactory](m.MustFetch(linkedSym))())
	}
	s = []Strategy{
		{Name: "UsingLinker", Family: FamilyLinkedModule, Func: uncached},
		{Name: "UsingLinkerWithCache", Family: FamilyLinkedModule, Cached: true, Func: func() *Target {
			return (*Target)(factory())
		}},
	}
	return
}
