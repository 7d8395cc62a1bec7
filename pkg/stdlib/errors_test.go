package stdlib_test

import (
	"errors"
	"testing"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/stdlib"
)

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"LenErr", "len(1)", bridge.ErrArgType},
		{"LenArity", "len()", bridge.ErrArgCount},
		{"RangeType", "range('a')", bridge.ErrArgType},
		{"RangeZeroStep", "range(0, 5, 0)", stdlib.ErrValue},
		{"MapNotCallable", "map(1, [1])", bridge.ErrArgType},
		{"MapNotIterable", "map(len, 1)", bridge.ErrArgType},
		{"MapCallFails", "list(map(len, [1]))", bridge.ErrArgType},
		{"MaxEmpty", "max([])", stdlib.ErrValue},
		{"MinUnordered", "min(['a', 1])", nil},
		{"SumStrings", "sum(['a'])", bridge.ErrArgType},
		{"IntParse", "int('abc')", stdlib.ErrValue},
		{"FloatParse", "float('x')", stdlib.ErrValue},
		{"AbsType", "abs('x')", bridge.ErrArgType},
		{"ChrRange", "chr(-1)", stdlib.ErrValue},
		{"OrdLength", "ord('ab')", stdlib.ErrValue},
		{"HexType", "hex('a')", bridge.ErrArgType},
		{"NextExhausted", "next(iter([]))", stdlib.ErrValue},
		{"NextNotIterator", "next([1])", bridge.ErrArgType},
		{"DictBadPairs", "dict([1])", stdlib.ErrValue},
		{"FormatSpec", "format(1, 'zz')", stdlib.ErrValue},
		{"FormatNonNumber", "format('a', ',')", stdlib.ErrValue},
		{"JSONInvalid", "import json\njson.loads('{')", stdlib.ErrJSON},
		{"JSONTrailing", "import json\njson.loads('1 2')", stdlib.ErrJSON},
		{"JSONNegativeIndent", "import json\njson.dumps([1], -1)", stdlib.ErrValue},
		{"JSONHugeIndent", "import json\njson.dumps([1], 9223372036854775807)", stdlib.ErrValue},
		{"JSONNotPortable", "import json\njson.dumps(len)", bridge.ErrNotPortable},
		{"MathDomain", "import math\nmath.sqrt(-1)", stdlib.ErrValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runScript(t, tt.src, stdlib.Options{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
