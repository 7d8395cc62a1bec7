package stdlib

import (
	"fmt"
	"math"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

func unary(name string, fn func(float64) float64) value.Value {
	return bridge.Func(name, func(args []value.Value) (value.Value, error) {
		if err := bridge.CheckArgs(name, args, 1, 1); err != nil {
			return value.None, err
		}
		x, err := bridge.NumberArg(name, args, 0)
		if err != nil {
			return value.None, err
		}
		return value.Float(fn(x)), nil
	})
}

// integral is like unary but returns an int, as floor and ceil do.
func integral(name string, fn func(float64) float64) value.Value {
	return bridge.Func(name, func(args []value.Value) (value.Value, error) {
		if err := bridge.CheckArgs(name, args, 1, 1); err != nil {
			return value.None, err
		}
		x, err := bridge.NumberArg(name, args, 0)
		if err != nil {
			return value.None, err
		}
		return value.Int(int64(fn(x))), nil
	})
}

func MathModule() map[string]value.Value {
	return map[string]value.Value{
		"pi":    value.Float(math.Pi),
		"e":     value.Float(math.E),
		"inf":   value.Float(math.Inf(1)),
		"sin":   unary("sin", math.Sin),
		"cos":   unary("cos", math.Cos),
		"tan":   unary("tan", math.Tan),
		"atan":  unary("atan", math.Atan),
		"exp":   unary("exp", math.Exp),
		"fabs":  unary("fabs", math.Abs),
		"floor": integral("floor", math.Floor),
		"ceil":  integral("ceil", math.Ceil),
		"sqrt": bridge.Func("sqrt", func(args []value.Value) (value.Value, error) {
			x, err := bridge.NumberArg("sqrt", args, 0)
			if err != nil {
				return value.None, err
			}
			if x < 0 {
				return value.None, fmt.Errorf("%w: math domain error", ErrValue)
			}
			return value.Float(math.Sqrt(x)), nil
		}),
		"log": bridge.Func("log", func(args []value.Value) (value.Value, error) {
			x, err := bridge.NumberArg("log", args, 0)
			if err != nil {
				return value.None, err
			}
			if x <= 0 {
				return value.None, fmt.Errorf("%w: math domain error", ErrValue)
			}
			if len(args) > 1 {
				base, err := bridge.NumberArg("log", args, 1)
				if err != nil {
					return value.None, err
				}
				return value.Float(math.Log(x) / math.Log(base)), nil
			}
			return value.Float(math.Log(x)), nil
		}),
		"pow": bridge.Func("pow", func(args []value.Value) (value.Value, error) {
			if err := bridge.CheckArgs("pow", args, 2, 2); err != nil {
				return value.None, err
			}
			x, err := bridge.NumberArg("pow", args, 0)
			if err != nil {
				return value.None, err
			}
			y, err := bridge.NumberArg("pow", args, 1)
			if err != nil {
				return value.None, err
			}
			return value.Float(math.Pow(x, y)), nil
		}),
		"atan2": bridge.Func("atan2", func(args []value.Value) (value.Value, error) {
			y, err := bridge.NumberArg("atan2", args, 0)
			if err != nil {
				return value.None, err
			}
			x, err := bridge.NumberArg("atan2", args, 1)
			if err != nil {
				return value.None, err
			}
			return value.Float(math.Atan2(y, x)), nil
		}),
	}
}
