package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/agenthands/pyworker/pkg/compiler/ast"
	"github.com/agenthands/pyworker/pkg/compiler/lexer"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var ErrSyntax = errors.New("parser: syntax error")

// SyntaxError reports the first structural mismatch. No partial tree is
// returned with it.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: syntax error: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// binaryLevels lists the binary operator levels from lowest to highest
// binding power. The nil entry is the unary not level.
var binaryLevels = []map[lexer.Kind]ast.Operator{
	{lexer.KindOr: ast.OpOr},
	{lexer.KindAnd: ast.OpAnd},
	nil,
	{
		lexer.KindLess:      ast.OpLess,
		lexer.KindLessEq:    ast.OpLessEq,
		lexer.KindGreater:   ast.OpGreater,
		lexer.KindGreaterEq: ast.OpGreaterEq,
		lexer.KindEq:        ast.OpEq,
		lexer.KindNotEq:     ast.OpNotEq,
		lexer.KindIn:        ast.OpIn,
		lexer.KindIs:        ast.OpIs,
	},
	{lexer.KindBitOr: ast.OpBitOr},
	{lexer.KindBitXor: ast.OpBitXor},
	{lexer.KindBitAnd: ast.OpBitAnd},
	{lexer.KindShiftLeft: ast.OpShl},
	{lexer.KindShiftRight: ast.OpShr},
	{lexer.KindPlus: ast.OpAdd, lexer.KindMinus: ast.OpSub},
	{lexer.KindStar: ast.OpMul, lexer.KindSlash: ast.OpDiv, lexer.KindPercent: ast.OpMod},
	{lexer.KindPower: ast.OpPow},
}

const (
	notLevel        = 2
	comparisonLevel = 3
	powerLevel      = 11
)

type Parser struct {
	tokens []lexer.Token
	pos    int
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse builds the statement list for a whole program.
func Parse(tokens []lexer.Token) ([]ast.Stmt, error) {
	return NewParser(tokens).Parse()
}

func (p *Parser) Parse() ([]ast.Stmt, error) {
	stmts, err := p.block(0)
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf("unexpected %v", p.cur())
	}
	return stmts, nil
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// cur returns the current token; past the end it is a synthetic EOS.
func (p *Parser) cur() lexer.Token {
	return p.peek(0)
}

func (p *Parser) peek(n int) lexer.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	line := 1
	if len(p.tokens) > 0 {
		line = p.tokens[len(p.tokens)-1].Line
	}
	return lexer.Token{Kind: lexer.KindEOS, Line: line}
}

func (p *Parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.cur().Line, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok := p.cur()
	if tok.Kind != kind {
		return tok, p.errorf("expected '%v', got %v", kind, tok)
	}
	p.pos++
	return tok, nil
}

// skipLayout drops newline markers inside brackets so literals and calls
// may span lines.
func (p *Parser) skipLayout() {
	for !p.atEnd() {
		switch p.cur().Kind {
		case lexer.KindEOS, lexer.KindIndent:
			p.pos++
		default:
			return
		}
	}
}

// block parses statements indented exactly expected units. A shallower
// line ends the block without being consumed.
func (p *Parser) block(expected int) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.atEnd() {
		tok := p.cur()
		if tok.Kind != lexer.KindIndent {
			return nil, p.errorf("unexpected %v", tok)
		}
		if p.peek(1).Kind == lexer.KindEOS {
			p.pos += 2 // blank line
			continue
		}
		n := tok.Indent()
		if n < expected {
			return stmts, nil
		}
		if n > expected {
			return nil, p.errorf("unexpected indent")
		}
		p.pos++
		stmt, err := p.statement(expected)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) statement(indent int) (ast.Stmt, error) {
	switch p.cur().Kind {
	case lexer.KindIf:
		return p.ifStmt(indent)
	case lexer.KindWhile:
		return p.whileStmt(indent)
	case lexer.KindFor:
		return p.forStmt(indent)
	case lexer.KindDef:
		return p.funcDef(indent)
	case lexer.KindElif, lexer.KindElse:
		return nil, p.errorf("'%v' without matching if", p.cur().Kind)
	}
	return p.simpleStatement()
}

// simpleStatement parses a one-line statement including its EOS.
func (p *Parser) simpleStatement() (ast.Stmt, error) {
	var stmt ast.Stmt
	var err error
	switch p.cur().Kind {
	case lexer.KindReturn:
		stmt, err = p.returnStmt()
	case lexer.KindImport:
		stmt, err = p.importStmt()
	default:
		stmt, err = p.assignOrExpr()
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindEOS); err != nil {
		return nil, err
	}
	return stmt, nil
}

// body parses ':' followed by either an inline simple statement or a
// newline and a block one unit deeper than indent.
func (p *Parser) body(indent int) ([]ast.Stmt, error) {
	if _, err := p.expect(lexer.KindColon); err != nil {
		return nil, err
	}
	if p.cur().Kind != lexer.KindEOS {
		stmt, err := p.simpleStatement()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{stmt}, nil
	}
	p.pos++
	stmts, err := p.block(indent + 1)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, p.errorf("expected an indented block")
	}
	return stmts, nil
}

// continues reports whether the next non-blank line sits at indent and
// opens with kind. On a match the blank lines before it are consumed.
func (p *Parser) continues(indent int, kind lexer.Kind) bool {
	n := 0
	for p.peek(n).Kind == lexer.KindIndent && p.peek(n+1).Kind == lexer.KindEOS {
		n += 2
	}
	tok := p.peek(n)
	if tok.Kind == lexer.KindIndent && tok.Indent() == indent && p.peek(n+1).Kind == kind {
		p.pos += n
		return true
	}
	return false
}

func (p *Parser) ifStmt(indent int) (*ast.If, error) {
	line := p.cur().Line
	p.pos++ // if / elif
	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.body(indent)
	if err != nil {
		return nil, err
	}
	node := &ast.If{Line: line, Cond: cond, Body: body}

	switch {
	case p.continues(indent, lexer.KindElif):
		p.pos++
		if node.Else, err = p.ifStmt(indent); err != nil {
			return nil, err
		}
	case p.continues(indent, lexer.KindElse):
		p.pos++
		elseLine := p.cur().Line
		p.pos++
		elseBody, err := p.body(indent)
		if err != nil {
			return nil, err
		}
		node.Else = &ast.If{Line: elseLine, Body: elseBody}
	}
	return node, nil
}

func (p *Parser) whileStmt(indent int) (ast.Stmt, error) {
	line := p.cur().Line
	p.pos++
	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.body(indent)
	if err != nil {
		return nil, err
	}
	return &ast.While{Line: line, Cond: cond, Body: body}, nil
}

func (p *Parser) forStmt(indent int) (ast.Stmt, error) {
	line := p.cur().Line
	p.pos++
	name, err := p.expect(lexer.KindName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindIn); err != nil {
		return nil, err
	}
	iter, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.body(indent)
	if err != nil {
		return nil, err
	}
	return &ast.For{Line: line, Var: name.Value, Iter: iter, Body: body}, nil
}

func (p *Parser) funcDef(indent int) (ast.Stmt, error) {
	line := p.cur().Line
	p.pos++
	name, err := p.expect(lexer.KindName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindLParen); err != nil {
		return nil, err
	}
	params, err := p.params(lexer.KindRParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindRParen); err != nil {
		return nil, err
	}
	body, err := p.body(indent)
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Line: line, Name: name.Value, Params: params, Body: body}, nil
}

// params reads a comma separated name list up to (not including) end.
func (p *Parser) params(end lexer.Kind) ([]string, error) {
	var names []string
	for p.cur().Kind != end {
		name, err := p.expect(lexer.KindName)
		if err != nil {
			return nil, err
		}
		names = append(names, name.Value)
		if p.cur().Kind != lexer.KindComma {
			break
		}
		p.pos++
	}
	return names, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	line := p.cur().Line
	p.pos++
	if p.cur().Kind == lexer.KindEOS {
		return &ast.Return{Line: line}, nil
	}
	v, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Return{Line: line, Value: v}, nil
}

func (p *Parser) importStmt() (ast.Stmt, error) {
	line := p.cur().Line
	p.pos++
	name, err := p.expect(lexer.KindName)
	if err != nil {
		return nil, err
	}
	return &ast.Import{Line: line, Name: name.Value}, nil
}

func (p *Parser) assignOrExpr() (ast.Stmt, error) {
	line := p.cur().Line
	lhs, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != lexer.KindAssign {
		return &ast.ExprStmt{Line: line, X: lhs}, nil
	}
	switch lhs.(type) {
	case *ast.Name, *ast.Index:
	default:
		return nil, p.errorf("cannot assign to expression")
	}
	p.pos++
	rhs, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Line: line, Target: lhs, Value: rhs}, nil
}

// expr parses the operator level at index level of binaryLevels.
func (p *Parser) expr(level int) (ast.Expr, error) {
	if level == notLevel {
		if tok := p.cur(); tok.Kind == lexer.KindNot {
			p.pos++
			x, err := p.expr(level)
			if err != nil {
				return nil, err
			}
			return &ast.Unary{Line: tok.Line, Op: ast.OpNot, X: x}, nil
		}
		return p.expr(level + 1)
	}

	left, err := p.operand(level)
	if err != nil {
		return nil, err
	}
	for {
		op, width, ok := p.binaryOp(level)
		if !ok {
			return left, nil
		}
		line := p.cur().Line
		p.pos += width
		right, err := p.operand(level)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Line: line, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) operand(level int) (ast.Expr, error) {
	if level == powerLevel {
		return p.unary()
	}
	return p.expr(level + 1)
}

// binaryOp matches an operator of the given level at the cursor and
// returns how many tokens it spans.
func (p *Parser) binaryOp(level int) (ast.Operator, int, bool) {
	tok := p.cur()
	if level == comparisonLevel {
		switch {
		case tok.Kind == lexer.KindNot && p.peek(1).Kind == lexer.KindIn:
			return ast.OpNotIn, 2, true
		case tok.Kind == lexer.KindIs && p.peek(1).Kind == lexer.KindNot:
			return ast.OpIsNot, 2, true
		}
	}
	op, ok := binaryLevels[level][tok.Kind]
	return op, 1, ok
}

// unary binds looser than ** so -x**2 is -(x**2).
func (p *Parser) unary() (ast.Expr, error) {
	tok := p.cur()
	var op ast.Operator
	switch tok.Kind {
	case lexer.KindMinus:
		op = ast.OpNeg
	case lexer.KindPlus:
		op = ast.OpPos
	default:
		return p.postfix()
	}
	p.pos++
	x, err := p.expr(powerLevel)
	if err != nil {
		return nil, err
	}
	return &ast.Unary{Line: tok.Line, Op: op, X: x}, nil
}

func (p *Parser) postfix() (ast.Expr, error) {
	x, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		switch tok.Kind {
		case lexer.KindLBracket:
			p.pos++
			p.skipLayout()
			key, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			p.skipLayout()
			if _, err := p.expect(lexer.KindRBracket); err != nil {
				return nil, err
			}
			x = &ast.Index{Line: tok.Line, X: x, Key: key}
		case lexer.KindDot:
			p.pos++
			name, err := p.expect(lexer.KindName)
			if err != nil {
				return nil, err
			}
			key := &ast.Constant{Line: name.Line, Value: value.String(name.Value)}
			x = &ast.Index{Line: tok.Line, X: x, Key: key, Attr: true}
		case lexer.KindLParen:
			p.pos++
			args, _, err := p.exprList(lexer.KindRParen)
			if err != nil {
				return nil, err
			}
			x = &ast.Call{Line: tok.Line, Func: x, Args: args}
		default:
			return x, nil
		}
	}
}

// exprList reads comma separated expressions and the closing token. It
// reports whether a trailing comma was present.
func (p *Parser) exprList(end lexer.Kind) ([]ast.Expr, bool, error) {
	var items []ast.Expr
	trailing := false
	p.skipLayout()
	for p.cur().Kind != end {
		item, err := p.expr(0)
		if err != nil {
			return nil, false, err
		}
		items = append(items, item)
		p.skipLayout()
		trailing = false
		if p.cur().Kind != lexer.KindComma {
			break
		}
		p.pos++
		trailing = true
		p.skipLayout()
	}
	if _, err := p.expect(end); err != nil {
		return nil, false, err
	}
	return items, trailing, nil
}

func (p *Parser) factor() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.KindName:
		p.pos++
		return &ast.Name{Line: tok.Line, ID: tok.Value}, nil
	case lexer.KindNumber:
		p.pos++
		v, err := parseNumber(tok.Value)
		if err != nil {
			return nil, &SyntaxError{Line: tok.Line, Msg: fmt.Sprintf("invalid number %s", tok.Value)}
		}
		return &ast.Constant{Line: tok.Line, Value: v}, nil
	case lexer.KindString:
		p.pos++
		return &ast.Constant{Line: tok.Line, Value: value.String(tok.Value)}, nil
	case lexer.KindLParen:
		p.pos++
		items, trailing, err := p.exprList(lexer.KindRParen)
		if err != nil {
			return nil, err
		}
		if len(items) == 1 && !trailing {
			return items[0], nil
		}
		return &ast.ListLiteral{Line: tok.Line, Elems: items}, nil
	case lexer.KindLBracket:
		return p.listOrComp()
	case lexer.KindLBrace:
		return p.dict()
	case lexer.KindLambda:
		return p.lambda()
	}
	return nil, p.errorf("unexpected %v", tok)
}

func parseNumber(lit string) (value.Value, error) {
	for i := 0; i < len(lit); i++ {
		if lit[i] == '.' {
			f, err := strconv.ParseFloat(lit, 64)
			return value.Float(f), err
		}
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	return value.Int(i), err
}

func (p *Parser) listOrComp() (ast.Expr, error) {
	open := p.cur()
	p.pos++
	p.skipLayout()
	if p.cur().Kind == lexer.KindRBracket {
		p.pos++
		return &ast.ListLiteral{Line: open.Line}, nil
	}
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	p.skipLayout()
	if p.cur().Kind != lexer.KindFor {
		elems := []ast.Expr{first}
		if p.cur().Kind == lexer.KindComma {
			p.pos++
			rest, _, err := p.exprList(lexer.KindRBracket)
			if err != nil {
				return nil, err
			}
			elems = append(elems, rest...)
		} else if _, err := p.expect(lexer.KindRBracket); err != nil {
			return nil, err
		}
		return &ast.ListLiteral{Line: open.Line, Elems: elems}, nil
	}

	p.pos++ // for
	name, err := p.expect(lexer.KindName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindIn); err != nil {
		return nil, err
	}
	iter, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	p.skipLayout()
	if _, err := p.expect(lexer.KindRBracket); err != nil {
		return nil, err
	}
	return &ast.ListComp{Line: open.Line, Elem: first, Var: name.Value, Iter: iter}, nil
}

func (p *Parser) dict() (ast.Expr, error) {
	open := p.cur()
	p.pos++
	node := &ast.DictLiteral{Line: open.Line}
	p.skipLayout()
	for p.cur().Kind != lexer.KindRBrace {
		k, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindColon); err != nil {
			return nil, err
		}
		p.skipLayout()
		v, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		node.Keys = append(node.Keys, k)
		node.Values = append(node.Values, v)
		p.skipLayout()
		if p.cur().Kind != lexer.KindComma {
			break
		}
		p.pos++
		p.skipLayout()
	}
	if _, err := p.expect(lexer.KindRBrace); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) lambda() (ast.Expr, error) {
	tok := p.cur()
	p.pos++
	params, err := p.params(lexer.KindColon)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindColon); err != nil {
		return nil, err
	}
	body, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Line: tok.Line, Params: params, Body: body}, nil
}
