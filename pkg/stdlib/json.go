package stdlib

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var ErrJSON = errors.New("stdlib/json: invalid document")

// JSONModule returns the members of the json module. Objects decode into
// dicts with keys in sorted order.
func JSONModule() map[string]value.Value {
	return map[string]value.Value{
		"loads": bridge.Func("loads", Loads),
		"dumps": bridge.Func("dumps", Dumps),
	}
}

// Loads: loads(text) -> value
func Loads(args []value.Value) (value.Value, error) {
	if err := bridge.CheckArgs("loads", args, 1, 1); err != nil {
		return value.None, err
	}
	text, err := bridge.StringArg("loads", args, 0)
	if err != nil {
		return value.None, err
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return value.None, fmt.Errorf("%w: %v", ErrJSON, err)
	}
	if dec.More() {
		return value.None, fmt.Errorf("%w: trailing data", ErrJSON)
	}
	return bridge.FromGo(doc)
}

const maxIndent = 64

// Dumps: dumps(value[, indent]) -> text
func Dumps(args []value.Value) (value.Value, error) {
	if err := bridge.CheckArgs("dumps", args, 1, 2); err != nil {
		return value.None, err
	}
	doc, err := bridge.ToGo(args[0])
	if err != nil {
		return value.None, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if ind := bridge.Arg(args, 1, value.None); ind.Type != value.TypeNone {
		n, err := bridge.IntArg("dumps", args, 1)
		if err != nil {
			return value.None, err
		}
		if n < 0 || n > maxIndent {
			return value.None, fmt.Errorf("%w: dumps() indent must be between 0 and %d, got %d", ErrValue, maxIndent, n)
		}
		enc.SetIndent("", strings.Repeat(" ", int(n)))
	}
	if err := enc.Encode(doc); err != nil {
		return value.None, err
	}
	return value.String(strings.TrimSuffix(buf.String(), "\n")), nil
}
