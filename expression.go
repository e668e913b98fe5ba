package instantiator

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// TargetExpression is the expression tree compiled by the expression strategies.
const TargetExpression = "NewTarget()"

var expressionEnv = map[string]any{
	"NewTarget": NewTarget,
}

// CompileExpression compiles [TargetExpression] into an executable program.
func CompileExpression() (*vm.Program, error) {
	p, err := expr.Compile(TargetExpression, expr.Env(expressionEnv))
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", TargetExpression, err)
	}
	return p, nil
}

// RunExpression executes a program compiled by [CompileExpression].
func RunExpression(p *vm.Program) (*Target, error) {
	out, err := expr.Run(p, expressionEnv)
	if err != nil {
		return nil, err
	}
	t, ok := out.(*Target)
	if !ok {
		return nil, fmt.Errorf("%T: %w", out, ErrUnexpectedType)
	}
	return t, nil
}
