package interp

import (
	"errors"
	"fmt"
)

var (
	ErrUndefinedName         = errors.New("interp: name is not defined")
	ErrNotCallable           = errors.New("interp: object is not callable")
	ErrNotIndexable          = errors.New("interp: object is not subscriptable")
	ErrNoAttribute           = errors.New("interp: no such attribute")
	ErrUnsupportedOperand    = errors.New("interp: unsupported operand type")
	ErrDivisionByZero        = errors.New("interp: division by zero")
	ErrReturnOutsideFunction = errors.New("interp: 'return' outside function")
	ErrRecursionDepth        = errors.New("interp: maximum recursion depth exceeded")
	ErrRepeatTooLarge        = errors.New("interp: repeat count too large")
)

// RuntimeError aborts an evaluation. It records the innermost failing
// operation; errors raised further up the call chain pass it through
// unchanged.
type RuntimeError struct {
	Line int
	Op   string
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// wrap attaches a position to err unless it already carries one.
func wrap(line int, op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return &RuntimeError{Line: line, Op: op, Err: err}
}
