// Package compat cross-checks a program against the CPython grammar so
// authors can tell which constructs depend on dialect behavior.
package compat

import (
	"fmt"
	"strings"

	pyast "github.com/go-python/gpython/ast"
	pyparser "github.com/go-python/gpython/parser"
	"github.com/go-python/gpython/py"

	"github.com/agenthands/pyworker/pkg/compiler/ast"
	"github.com/agenthands/pyworker/pkg/compiler/lexer"
	"github.com/agenthands/pyworker/pkg/compiler/parser"
)

// Report holds the top-level statement kinds seen by each parser.
type Report struct {
	Engine     []string
	CPython    []string
	EngineErr  error
	CPythonErr error
}

// Agree reports whether both parsers accepted the source and produced the
// same top-level statement sequence.
func (r *Report) Agree() bool {
	if r.EngineErr != nil || r.CPythonErr != nil {
		return false
	}
	if len(r.Engine) != len(r.CPython) {
		return false
	}
	for i := range r.Engine {
		if r.Engine[i] != r.CPython[i] {
			return false
		}
	}
	return true
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "engine:  %s", strings.Join(r.Engine, " "))
	if r.EngineErr != nil {
		fmt.Fprintf(&b, " (error: %v)", r.EngineErr)
	}
	fmt.Fprintf(&b, "\ncpython: %s", strings.Join(r.CPython, " "))
	if r.CPythonErr != nil {
		fmt.Fprintf(&b, " (error: %v)", r.CPythonErr)
	}
	return b.String()
}

// Check parses src with both the engine and gpython.
func Check(src string) *Report {
	r := &Report{}

	tokens, err := lexer.Tokenize(src)
	if err == nil {
		var stmts []ast.Stmt
		stmts, err = parser.Parse(tokens)
		for _, s := range stmts {
			r.Engine = append(r.Engine, engineKind(s))
		}
	}
	r.EngineErr = err

	mod, err := pyparser.Parse(strings.NewReader(src), "<string>", py.ExecMode)
	if err != nil {
		r.CPythonErr = err
		return r
	}
	module, ok := mod.(*pyast.Module)
	if !ok {
		r.CPythonErr = fmt.Errorf("compat: expected *ast.Module, got %T", mod)
		return r
	}
	for _, s := range module.Body {
		r.CPython = append(r.CPython, cpythonKind(s))
	}
	return r
}

func engineKind(s ast.Stmt) string {
	switch s.(type) {
	case *ast.Assign:
		return "assign"
	case *ast.If:
		return "if"
	case *ast.While:
		return "while"
	case *ast.For:
		return "for"
	case *ast.FuncDef:
		return "def"
	case *ast.Return:
		return "return"
	case *ast.Import:
		return "import"
	case *ast.ExprStmt:
		return "expr"
	}
	return fmt.Sprintf("%T", s)
}

func cpythonKind(s pyast.Stmt) string {
	switch s.(type) {
	case *pyast.Assign:
		return "assign"
	case *pyast.If:
		return "if"
	case *pyast.While:
		return "while"
	case *pyast.For:
		return "for"
	case *pyast.FunctionDef:
		return "def"
	case *pyast.Return:
		return "return"
	case *pyast.Import:
		return "import"
	case *pyast.ExprStmt:
		return "expr"
	}
	return strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", s), "*ast."))
}
