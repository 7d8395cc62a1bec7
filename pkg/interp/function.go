package interp

import (
	"github.com/agenthands/pyworker/pkg/compiler/ast"
	"github.com/agenthands/pyworker/pkg/core/value"
)

// Function is an interpreted closure: a def (Body) or a lambda (Expr)
// together with the scope it was created in.
type Function struct {
	Name    string
	Params  []string
	Body    []ast.Stmt
	Expr    ast.Expr
	Closure *Scope

	interp *Interpreter
}

func (f *Function) FuncName() string { return f.Name }

// Call binds args positionally in a fresh scope parented to the closure.
// Missing trailing arguments are undefined; extra ones are ignored.
func (f *Function) Call(args []value.Value) (value.Value, error) {
	in := f.interp
	if in.depth >= in.maxDepth {
		return value.None, ErrRecursionDepth
	}
	in.depth++
	defer func() { in.depth-- }()

	in.log.Debug("call", "func", f.Name, "args", len(args), "depth", in.depth)

	scope := NewScope(f.Closure)
	for i, name := range f.Params {
		if i < len(args) {
			scope.Set(name, args[i])
		} else {
			scope.Set(name, value.Undefined)
		}
	}

	if f.Expr != nil {
		return in.eval(f.Expr, scope)
	}
	fl, err := in.execBlock(f.Body, scope)
	if err != nil {
		return value.None, err
	}
	if fl.kind == flowReturn {
		return fl.value, nil
	}
	return value.None, nil
}
