package ast

import (
	"github.com/agenthands/pyworker/pkg/core/value"
)

// Node represents any node in the Abstract Syntax Tree.
type Node interface {
	Pos() int
}

// Expr represents an expression that yields a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a standalone unit of execution.
type Stmt interface {
	Node
	stmtNode()
}

// Operator identifies a unary or binary operation.
type Operator uint8

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpShl
	OpShr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpIn
	OpNotIn
	OpIs
	OpIsNot
	OpAnd
	OpOr
	OpNot
	OpNeg
	OpPos
)

var opSymbols = [...]string{
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpMod:       "%",
	OpPow:       "**",
	OpShl:       "<<",
	OpShr:       ">>",
	OpBitAnd:    "&",
	OpBitOr:     "|",
	OpBitXor:    "^",
	OpEq:        "==",
	OpNotEq:     "!=",
	OpLess:      "<",
	OpLessEq:    "<=",
	OpGreater:   ">",
	OpGreaterEq: ">=",
	OpIn:        "in",
	OpNotIn:     "not in",
	OpIs:        "is",
	OpIsNot:     "is not",
	OpAnd:       "and",
	OpOr:        "or",
	OpNot:       "not",
	OpNeg:       "-",
	OpPos:       "+",
}

func (o Operator) String() string {
	if int(o) < len(opSymbols) {
		return opSymbols[o]
	}
	return "?"
}

// Statements

// Assign binds Value to Target. Target is a *Name or an *Index.
type Assign struct {
	Line   int
	Target Expr
	Value  Expr
}

func (a *Assign) Pos() int  { return a.Line }
func (a *Assign) stmtNode() {}

// If is one link of an if/elif/else chain. A plain else is an If with a
// nil Cond.
type If struct {
	Line int
	Cond Expr
	Body []Stmt
	Else *If
}

func (i *If) Pos() int  { return i.Line }
func (i *If) stmtNode() {}

type While struct {
	Line int
	Cond Expr
	Body []Stmt
}

func (w *While) Pos() int  { return w.Line }
func (w *While) stmtNode() {}

// For binds Var to each element drawn from Iter.
type For struct {
	Line int
	Var  string
	Iter Expr
	Body []Stmt
}

func (f *For) Pos() int  { return f.Line }
func (f *For) stmtNode() {}

type FuncDef struct {
	Line   int
	Name   string
	Params []string
	Body   []Stmt
}

func (f *FuncDef) Pos() int  { return f.Line }
func (f *FuncDef) stmtNode() {}

// Return carries an optional result; Value is nil for a bare return.
type Return struct {
	Line  int
	Value Expr
}

func (r *Return) Pos() int  { return r.Line }
func (r *Return) stmtNode() {}

type Import struct {
	Line int
	Name string
}

func (i *Import) Pos() int  { return i.Line }
func (i *Import) stmtNode() {}

type ExprStmt struct {
	Line int
	X    Expr
}

func (e *ExprStmt) Pos() int  { return e.Line }
func (e *ExprStmt) stmtNode() {}

// Expressions

// Constant holds an evaluated literal. A list value held here is already
// materialized and evaluates to the same instance each time.
type Constant struct {
	Line  int
	Value value.Value
}

func (c *Constant) Pos() int  { return c.Line }
func (c *Constant) exprNode() {}

type Name struct {
	Line int
	ID   string
}

func (n *Name) Pos() int  { return n.Line }
func (n *Name) exprNode() {}

// Index covers both subscripting and attribute access. Attribute access
// carries a string Constant key with Attr set.
type Index struct {
	Line int
	X    Expr
	Key  Expr
	Attr bool
}

func (i *Index) Pos() int  { return i.Line }
func (i *Index) exprNode() {}

type Call struct {
	Line int
	Func Expr
	Args []Expr
}

func (c *Call) Pos() int  { return c.Line }
func (c *Call) exprNode() {}

type ListLiteral struct {
	Line  int
	Elems []Expr
}

func (l *ListLiteral) Pos() int  { return l.Line }
func (l *ListLiteral) exprNode() {}

// ListComp is [Elem for Var in Iter].
type ListComp struct {
	Line int
	Elem Expr
	Var  string
	Iter Expr
}

func (l *ListComp) Pos() int  { return l.Line }
func (l *ListComp) exprNode() {}

type DictLiteral struct {
	Line   int
	Keys   []Expr
	Values []Expr
}

func (d *DictLiteral) Pos() int  { return d.Line }
func (d *DictLiteral) exprNode() {}

type Binary struct {
	Line  int
	Op    Operator
	Left  Expr
	Right Expr
}

func (b *Binary) Pos() int  { return b.Line }
func (b *Binary) exprNode() {}

type Unary struct {
	Line int
	Op   Operator
	X    Expr
}

func (u *Unary) Pos() int  { return u.Line }
func (u *Unary) exprNode() {}

type Lambda struct {
	Line   int
	Params []string
	Body   Expr
}

func (l *Lambda) Pos() int  { return l.Line }
func (l *Lambda) exprNode() {}
