package instantiator

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/expr-lang/expr/vm"
)

// Handles are the process-wide lookups the cached strategies reuse.
// They are built once by [NewHandles] and must not be mutated afterwards.
type Handles struct {
	Type        reflect.Type  // descriptor of Target
	Constructor reflect.Value // registered no-argument constructor
	Program     *vm.Program   // compiled TargetExpression
	Factory     Factory       // runtime generated factory
}

var built atomic.Int64

// Built reports how many times handles have been built in this process.
func Built() int64 {
	return built.Load()
}

// NewHandles resolves every handle for Target from the registry, compiling the
// expression program and generating the factory with g.
func NewHandles(r *Types, g Generator) (h *Handles, err error) {
	h = new(Handles)
	var ok bool
	if h.Type, ok = r.Lookup(TargetName); !ok {
		return nil, fmt.Errorf("handles %s: %w", TargetName, ErrUnknownType)
	}
	if h.Constructor, ok = r.Constructor(h.Type); !ok {
		return nil, fmt.Errorf("handles %s: %w", TargetName, ErrMissingConstructor)
	}
	if h.Program, err = CompileExpression(); err != nil {
		return nil, fmt.Errorf("handles: %w", err)
	}
	if h.Factory, err = g.Generate(h.Type, h.Constructor); err != nil {
		return nil, fmt.Errorf("handles: %w", err)
	}
	built.Add(1)
	return
}
