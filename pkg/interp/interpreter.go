// Package interp evaluates parsed programs against a chain of scopes.
package interp

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/compiler/ast"
	"github.com/agenthands/pyworker/pkg/compiler/lexer"
	"github.com/agenthands/pyworker/pkg/compiler/parser"
	"github.com/agenthands/pyworker/pkg/core/value"
)

const DefaultMaxCallDepth = 1000

type flowKind uint8

const (
	flowNormal flowKind = iota
	flowReturn
)

// flow is the control signal threaded through block execution.
type flow struct {
	kind  flowKind
	value value.Value
	line  int
}

type Option func(*Interpreter)

func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) { in.log = l }
}

func WithMaxCallDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// WithStrictLexing controls whether a lexer halt fails Run. When false the
// truncated token stream is parsed and evaluated.
func WithStrictLexing(strict bool) Option {
	return func(in *Interpreter) { in.strict = strict }
}

// Interpreter is single-threaded: one evaluation at a time.
type Interpreter struct {
	registry *bridge.Registry
	log      *slog.Logger
	maxDepth int
	strict   bool
	depth    int
}

func New(reg *bridge.Registry, opts ...Option) *Interpreter {
	if reg == nil {
		reg = bridge.NewRegistry()
	}
	in := &Interpreter{
		registry: reg,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: DefaultMaxCallDepth,
		strict:   true,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func (in *Interpreter) Registry() *bridge.Registry {
	return in.registry
}

// NewGlobalScope returns a program scope whose parent holds the builtins.
func (in *Interpreter) NewGlobalScope() *Scope {
	builtins := NewScope(nil)
	builtins.Set("True", value.True)
	builtins.Set("False", value.False)
	builtins.Set("None", value.None)
	ns := in.registry.Builtins()
	for _, name := range ns.Names() {
		v, _ := ns.Get(name)
		builtins.Set(name, v)
	}
	return NewScope(builtins)
}

// Run tokenizes, parses and evaluates src in scope. A nil scope gets a
// fresh global scope. The scope is returned even on failure and keeps
// whatever the statements before the failure assigned.
func (in *Interpreter) Run(src string, scope *Scope) (*Scope, error) {
	if scope == nil {
		scope = in.NewGlobalScope()
	}
	nodes, err := in.Parse(src)
	if err != nil {
		return scope, err
	}
	return in.Evaluate(nodes, scope)
}

// Parse tokenizes and parses src under the interpreter's lexing policy.
// Without strict lexing a lexer failure truncates the program instead of
// failing it.
func (in *Interpreter) Parse(src string) ([]ast.Stmt, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		if in.strict {
			return nil, err
		}
		in.log.Warn("lexer halted, evaluating truncated program", "err", err)
	}
	return parser.Parse(tokens)
}

// Evaluate executes nodes in order against scope.
func (in *Interpreter) Evaluate(nodes []ast.Stmt, scope *Scope) (*Scope, error) {
	fl, err := in.execBlock(nodes, scope)
	if err != nil {
		return scope, err
	}
	if fl.kind == flowReturn {
		return scope, &RuntimeError{Line: fl.line, Op: "return", Err: ErrReturnOutsideFunction}
	}
	return scope, nil
}

// EvalExpr evaluates a single expression node.
func (in *Interpreter) EvalExpr(e ast.Expr, scope *Scope) (value.Value, error) {
	return in.eval(e, scope)
}

func (in *Interpreter) execBlock(stmts []ast.Stmt, scope *Scope) (flow, error) {
	for _, s := range stmts {
		fl, err := in.exec(s, scope)
		if err != nil || fl.kind == flowReturn {
			return fl, err
		}
	}
	return flow{}, nil
}

func (in *Interpreter) exec(stmt ast.Stmt, scope *Scope) (flow, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := in.eval(s.X, scope)
		return flow{}, err

	case *ast.Assign:
		v, err := in.eval(s.Value, scope)
		if err != nil {
			return flow{}, err
		}
		return flow{}, in.assign(s.Target, v, scope)

	case *ast.If:
		for branch := s; branch != nil; branch = branch.Else {
			if branch.Cond != nil {
				cond, err := in.eval(branch.Cond, scope)
				if err != nil {
					return flow{}, err
				}
				if !cond.Truthy() {
					continue
				}
			}
			return in.execBlock(branch.Body, scope)
		}
		return flow{}, nil

	case *ast.While:
		for {
			cond, err := in.eval(s.Cond, scope)
			if err != nil {
				return flow{}, err
			}
			if !cond.Truthy() {
				return flow{}, nil
			}
			fl, err := in.execBlock(s.Body, scope)
			if err != nil || fl.kind == flowReturn {
				return fl, err
			}
		}

	case *ast.For:
		iterable, err := in.eval(s.Iter, scope)
		if err != nil {
			return flow{}, err
		}
		it, err := value.Iterate(iterable)
		if err != nil {
			return flow{}, wrap(s.Line, "for", err)
		}
		for {
			item, ok, err := it.Next()
			if err != nil {
				return flow{}, wrap(s.Line, "for", err)
			}
			if !ok {
				return flow{}, nil
			}
			scope.Set(s.Var, item)
			fl, err := in.execBlock(s.Body, scope)
			if err != nil || fl.kind == flowReturn {
				return fl, err
			}
		}

	case *ast.FuncDef:
		fn := &Function{Name: s.Name, Params: s.Params, Body: s.Body, Closure: scope, interp: in}
		scope.Set(s.Name, value.Func(fn))
		return flow{}, nil

	case *ast.Return:
		v := value.None
		if s.Value != nil {
			var err error
			if v, err = in.eval(s.Value, scope); err != nil {
				return flow{}, err
			}
		}
		return flow{kind: flowReturn, value: v, line: s.Line}, nil

	case *ast.Import:
		ns, err := in.registry.Lookup(s.Name)
		if err != nil {
			return flow{}, wrap(s.Line, "import", err)
		}
		in.log.Debug("import", "module", s.Name)
		scope.Set(s.Name, value.FromModule(ns))
		return flow{}, nil
	}
	return flow{}, fmt.Errorf("interp: unknown statement %T", stmt)
}

func (in *Interpreter) assign(target ast.Expr, v value.Value, scope *Scope) error {
	switch t := target.(type) {
	case *ast.Name:
		scope.Set(t.ID, v)
		return nil
	case *ast.Index:
		holder, err := in.eval(t.X, scope)
		if err != nil {
			return err
		}
		key, err := in.eval(t.Key, scope)
		if err != nil {
			return err
		}
		return wrap(t.Line, "assign", setIndex(holder, key, v))
	}
	return fmt.Errorf("interp: cannot assign to %T", target)
}

func (in *Interpreter) eval(expr ast.Expr, scope *Scope) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Constant:
		return e.Value, nil

	case *ast.Name:
		if v, ok := scope.Lookup(e.ID); ok {
			return v, nil
		}
		return value.None, undefinedName(e.Line, e.ID, scope)

	case *ast.Index:
		holder, err := in.eval(e.X, scope)
		if err != nil {
			return value.None, err
		}
		key, err := in.eval(e.Key, scope)
		if err != nil {
			return value.None, err
		}
		v, err := getIndex(holder, key, e.Attr)
		if err != nil {
			return value.None, wrap(e.Line, "index", err)
		}
		return v, nil

	case *ast.Call:
		return in.evalCall(e, scope)

	case *ast.Binary:
		return in.evalBinary(e, scope)

	case *ast.Unary:
		x, err := in.eval(e.X, scope)
		if err != nil {
			return value.None, err
		}
		v, err := unaryOp(e.Op, x)
		if err != nil {
			return value.None, wrap(e.Line, e.Op.String(), err)
		}
		return v, nil

	case *ast.ListLiteral:
		items := make([]value.Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := in.eval(el, scope)
			if err != nil {
				return value.None, err
			}
			items[i] = v
		}
		return value.FromList(value.NewList(items...)), nil

	case *ast.ListComp:
		iterable, err := in.eval(e.Iter, scope)
		if err != nil {
			return value.None, err
		}
		it, err := value.Iterate(iterable)
		if err != nil {
			return value.None, wrap(e.Line, "comprehension", err)
		}
		out := value.NewList()
		for {
			item, ok, err := it.Next()
			if err != nil {
				return value.None, wrap(e.Line, "comprehension", err)
			}
			if !ok {
				return value.FromList(out), nil
			}
			inner := NewScope(scope)
			inner.Set(e.Var, item)
			v, err := in.eval(e.Elem, inner)
			if err != nil {
				return value.None, err
			}
			out.Append(v)
		}

	case *ast.DictLiteral:
		d := value.NewDict()
		for i := range e.Keys {
			k, err := in.eval(e.Keys[i], scope)
			if err != nil {
				return value.None, err
			}
			v, err := in.eval(e.Values[i], scope)
			if err != nil {
				return value.None, err
			}
			if err := d.Set(k, v); err != nil {
				return value.None, wrap(e.Line, "dict", err)
			}
		}
		return value.FromDict(d), nil

	case *ast.Lambda:
		fn := &Function{Name: "<lambda>", Params: e.Params, Expr: e.Body, Closure: scope, interp: in}
		return value.Func(fn), nil
	}
	return value.None, fmt.Errorf("interp: unknown expression %T", expr)
}

func (in *Interpreter) evalBinary(e *ast.Binary, scope *Scope) (value.Value, error) {
	l, err := in.eval(e.Left, scope)
	if err != nil {
		return value.None, err
	}
	switch e.Op {
	case ast.OpAnd:
		if !l.Truthy() {
			return l, nil
		}
		return in.eval(e.Right, scope)
	case ast.OpOr:
		if l.Truthy() {
			return l, nil
		}
		return in.eval(e.Right, scope)
	}
	r, err := in.eval(e.Right, scope)
	if err != nil {
		return value.None, err
	}
	v, err := binaryOp(e.Op, l, r)
	if err != nil {
		return value.None, wrap(e.Line, e.Op.String(), err)
	}
	return v, nil
}

// evalCall evaluates the callee, then the arguments left to right. A
// callee reached through attribute access receives its holder first.
func (in *Interpreter) evalCall(e *ast.Call, scope *Scope) (value.Value, error) {
	var fn value.Value
	var args []value.Value

	if attr, ok := e.Func.(*ast.Index); ok && attr.Attr {
		holder, err := in.eval(attr.X, scope)
		if err != nil {
			return value.None, err
		}
		key, err := in.eval(attr.Key, scope)
		if err != nil {
			return value.None, err
		}
		if fn, err = getIndex(holder, key, true); err != nil {
			return value.None, wrap(attr.Line, "index", err)
		}
		args = make([]value.Value, 0, len(e.Args)+1)
		if holder.Type != value.TypeModule || !value.IsStatic(fn) {
			args = append(args, holder)
		}
	} else {
		var err error
		if fn, err = in.eval(e.Func, scope); err != nil {
			return value.None, err
		}
		args = make([]value.Value, 0, len(e.Args))
	}

	for _, a := range e.Args {
		v, err := in.eval(a, scope)
		if err != nil {
			return value.None, err
		}
		args = append(args, v)
	}

	if fn.Type != value.TypeFunction {
		return value.None, &RuntimeError{Line: e.Line, Op: "call", Err: fmt.Errorf("%w: '%s'", ErrNotCallable, fn.TypeName())}
	}
	v, err := fn.Callable().Call(args)
	if err != nil {
		return value.None, wrap(e.Line, "call "+fn.Format(), err)
	}
	return v, nil
}
