package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/agenthands/pyworker/pkg/compiler/ast"
	"github.com/agenthands/pyworker/pkg/core/value"
)

type binaryFunc func(op ast.Operator, l, r value.Value) (value.Value, error)

type unaryFunc func(x value.Value) (value.Value, error)

// anyOps apply to every pair of variants.
var anyOps = map[ast.Operator]binaryFunc{
	ast.OpEq:    func(_ ast.Operator, l, r value.Value) (value.Value, error) { return value.Bool(value.Equal(l, r)), nil },
	ast.OpNotEq: func(_ ast.Operator, l, r value.Value) (value.Value, error) { return value.Bool(!value.Equal(l, r)), nil },
	ast.OpIs:    func(_ ast.Operator, l, r value.Value) (value.Value, error) { return value.Bool(value.Identical(l, r)), nil },
	ast.OpIsNot: func(_ ast.Operator, l, r value.Value) (value.Value, error) { return value.Bool(!value.Identical(l, r)), nil },
	ast.OpIn:    membership,
	ast.OpNotIn: membership,
}

// binaryOps is keyed by operator, then by the left operand's variant.
var binaryOps = map[ast.Operator]map[value.Type]binaryFunc{}

var unaryOps = map[ast.Operator]map[value.Type]unaryFunc{
	ast.OpNeg: {
		value.TypeInt:   negate,
		value.TypeBool:  negate,
		value.TypeFloat: func(x value.Value) (value.Value, error) { return value.Float(-x.Float()), nil },
	},
	ast.OpPos: {
		value.TypeInt:   func(x value.Value) (value.Value, error) { return x, nil },
		value.TypeBool:  func(x value.Value) (value.Value, error) { return value.Int(x.Int()), nil },
		value.TypeFloat: func(x value.Value) (value.Value, error) { return x, nil },
	},
}

func negate(x value.Value) (value.Value, error) {
	if x.Int() == math.MinInt64 {
		return value.Float(-float64(x.Int())), nil
	}
	return value.Int(-x.Int()), nil
}

var numberTypes = []value.Type{value.TypeInt, value.TypeFloat, value.TypeBool}

func register(op ast.Operator, fn binaryFunc, types ...value.Type) {
	row, ok := binaryOps[op]
	if !ok {
		row = make(map[value.Type]binaryFunc)
		binaryOps[op] = row
	}
	for _, t := range types {
		row[t] = fn
	}
}

func init() {
	for _, op := range []ast.Operator{ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow} {
		register(op, arithmetic, numberTypes...)
	}
	for _, op := range []ast.Operator{ast.OpShl, ast.OpShr, ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor} {
		register(op, bitwise, value.TypeInt, value.TypeBool)
	}
	for _, op := range []ast.Operator{ast.OpLess, ast.OpLessEq, ast.OpGreater, ast.OpGreaterEq} {
		register(op, ordering, value.TypeInt, value.TypeFloat, value.TypeBool, value.TypeString, value.TypeList)
	}
	register(ast.OpAdd, concat, value.TypeString, value.TypeList)
	register(ast.OpMul, repeat, value.TypeString, value.TypeList)
	register(ast.OpMod, formatString, value.TypeString)
}

func unsupported(op ast.Operator, l, r value.Value) error {
	return fmt.Errorf("%w for %s: '%s' and '%s'", ErrUnsupportedOperand, op, l.TypeName(), r.TypeName())
}

// binaryOp applies op to two evaluated operands. and/or never reach here.
func binaryOp(op ast.Operator, l, r value.Value) (value.Value, error) {
	if fn, ok := anyOps[op]; ok {
		return fn(op, l, r)
	}
	if fn, ok := binaryOps[op][l.Type]; ok {
		return fn(op, l, r)
	}
	return value.None, unsupported(op, l, r)
}

func unaryOp(op ast.Operator, x value.Value) (value.Value, error) {
	if op == ast.OpNot {
		return value.Bool(!x.Truthy()), nil
	}
	if fn, ok := unaryOps[op][x.Type]; ok {
		return fn(x)
	}
	return value.None, fmt.Errorf("%w for unary %s: '%s'", ErrUnsupportedOperand, op, x.TypeName())
}

func isInt(v value.Value) bool {
	return v.Type == value.TypeInt || v.Type == value.TypeBool
}

func arithmetic(op ast.Operator, l, r value.Value) (value.Value, error) {
	if !r.IsNumber() {
		if op == ast.OpMul && isInt(l) && (r.Type == value.TypeString || r.Type == value.TypeList) {
			return repeat(op, r, l)
		}
		return value.None, unsupported(op, l, r)
	}
	if isInt(l) && isInt(r) {
		return intArithmetic(op, l.Int(), r.Int())
	}
	a, b := l.Float(), r.Float()
	switch op {
	case ast.OpAdd:
		return value.Float(a + b), nil
	case ast.OpSub:
		return value.Float(a - b), nil
	case ast.OpMul:
		return value.Float(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return value.None, ErrDivisionByZero
		}
		return value.Float(a / b), nil
	case ast.OpMod:
		if b == 0 {
			return value.None, ErrDivisionByZero
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return value.Float(m), nil
	case ast.OpPow:
		return value.Float(math.Pow(a, b)), nil
	}
	return value.None, unsupported(op, l, r)
}

// intArithmetic keeps integer results exact while they fit in int64 and
// falls back to float otherwise.
func intArithmetic(op ast.Operator, a, b int64) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		c := a + b
		if (c > a) != (b > 0) {
			return value.Float(float64(a) + float64(b)), nil
		}
		return value.Int(c), nil
	case ast.OpSub:
		c := a - b
		if (c < a) != (b > 0) {
			return value.Float(float64(a) - float64(b)), nil
		}
		return value.Int(c), nil
	case ast.OpMul:
		if c, ok := mulInt(a, b); ok {
			return value.Int(c), nil
		}
		return value.Float(float64(a) * float64(b)), nil
	case ast.OpDiv:
		if b == 0 {
			return value.None, ErrDivisionByZero
		}
		return value.Float(float64(a) / float64(b)), nil
	case ast.OpMod:
		if b == 0 {
			return value.None, ErrDivisionByZero
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return value.Int(m), nil
	case ast.OpPow:
		if b < 0 {
			return value.Float(math.Pow(float64(a), float64(b))), nil
		}
		if r, ok := powInt(a, b); ok {
			return value.Int(r), nil
		}
		return value.Float(math.Pow(float64(a), float64(b))), nil
	}
	return value.None, fmt.Errorf("%w: %s", ErrUnsupportedOperand, op)
}

// mulInt reports false when a*b does not fit in int64.
func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

func powInt(base, exp int64) (int64, bool) {
	result := int64(1)
	for ok := true; exp > 0; exp >>= 1 {
		if exp&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		if exp > 1 {
			if base, ok = mulInt(base, base); !ok {
				return 0, false
			}
		}
	}
	return result, true
}

func bitwise(op ast.Operator, l, r value.Value) (value.Value, error) {
	if !isInt(r) {
		return value.None, unsupported(op, l, r)
	}
	a, b := l.Int(), r.Int()
	bothBool := l.Type == value.TypeBool && r.Type == value.TypeBool
	switch op {
	case ast.OpShl, ast.OpShr:
		if b < 0 {
			return value.None, fmt.Errorf("%w: negative shift count", ErrUnsupportedOperand)
		}
		if op == ast.OpShl {
			return value.Int(a << uint64(b)), nil
		}
		return value.Int(a >> uint64(b)), nil
	case ast.OpBitAnd:
		a &= b
	case ast.OpBitOr:
		a |= b
	case ast.OpBitXor:
		a ^= b
	}
	if bothBool {
		return value.Bool(a != 0), nil
	}
	return value.Int(a), nil
}

// compare orders two values: numbers numerically, strings and lists
// lexicographically.
func compare(op ast.Operator, l, r value.Value) (int, error) {
	c, err := value.Compare(l, r)
	if err != nil {
		return 0, unsupported(op, l, r)
	}
	return c, nil
}

func ordering(op ast.Operator, l, r value.Value) (value.Value, error) {
	c, err := compare(op, l, r)
	if err != nil {
		return value.None, err
	}
	switch op {
	case ast.OpLess:
		return value.Bool(c < 0), nil
	case ast.OpLessEq:
		return value.Bool(c <= 0), nil
	case ast.OpGreater:
		return value.Bool(c > 0), nil
	}
	return value.Bool(c >= 0), nil
}

func concat(op ast.Operator, l, r value.Value) (value.Value, error) {
	if l.Type != r.Type {
		return value.None, unsupported(op, l, r)
	}
	if l.Type == value.TypeString {
		return value.String(l.Str() + r.Str()), nil
	}
	a, b := l.List().Items, r.List().Items
	items := make([]value.Value, 0, len(a)+len(b))
	items = append(items, a...)
	items = append(items, b...)
	return value.FromList(value.NewList(items...)), nil
}

// maxRepeatLen caps the length of a repeated string or list.
const maxRepeatLen = 1 << 28

func repeat(op ast.Operator, l, r value.Value) (value.Value, error) {
	if !isInt(r) {
		return value.None, unsupported(op, l, r)
	}
	n := r.Int()
	if n < 0 {
		n = 0
	}
	size := len(l.Str())
	if l.Type == value.TypeList {
		size = l.List().Len()
	}
	if size > 0 && n > maxRepeatLen/int64(size) {
		return value.None, fmt.Errorf("%w: %d", ErrRepeatTooLarge, n)
	}
	if l.Type == value.TypeString {
		return value.String(strings.Repeat(l.Str(), int(n))), nil
	}
	src := l.List().Items
	items := make([]value.Value, 0, size*int(n))
	for i := int64(0); i < n; i++ {
		items = append(items, src...)
	}
	return value.FromList(value.NewList(items...)), nil
}
