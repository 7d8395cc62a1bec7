package stdlib_test

import (
	"testing"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/interp"
	"github.com/agenthands/pyworker/pkg/stdlib"
)

// runScript evaluates src with the stdlib installed and returns the final
// scope together with the printed lines.
func runScript(t *testing.T, src string, opts stdlib.Options) (*interp.Scope, []string, error) {
	t.Helper()
	var lines []string
	opts.Print = func(line string) { lines = append(lines, line) }
	reg := bridge.NewRegistry()
	stdlib.Install(reg, opts)
	scope, err := interp.New(reg).Run(src, nil)
	return scope, lines, err
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // repr of r
	}{
		{"Map", "r = list(map(lambda x: x * 2, [1, 2, 3]))", "[2, 4, 6]"},
		{"FilterNone", "r = list(filter(None, [0, 1, '', 2]))", "[1, 2]"},
		{"FilterFn", "r = list(filter(lambda x: x > 1, range(4)))", "[2, 3]"},
		{"Enumerate", "r = list(enumerate(['a', 'b'], 1))", `[[1, "a"], [2, "b"]]`},
		{"Zip", "r = list(zip([1, 2, 3], ['a', 'b']))", `[[1, "a"], [2, "b"]]`},
		{"RangeStep", "r = list(range(10, 0, -3))", "[10, 7, 4, 1]"},
		{"RangeNearMaxInt", "r = list(range(9223372036854775806, 9223372036854775807, 5))", "[9223372036854775806]"},
		{"RangeNearMinInt", "r = list(range(-9223372036854775807, -9223372036854775807 - 1, -3))", "[-9223372036854775807]"},
		{"RangeStartStop", "r = [i for i in range(2, 5)]", "[2, 3, 4]"},
		{"Sorted", "r = sorted([3, 1, 2])", "[1, 2, 3]"},
		{"SortedKey", "r = sorted(['bb', 'a', 'ccc'], len)", `["a", "bb", "ccc"]`},
		{"SortedReverse", "r = sorted([1, 3, 2], None, True)", "[3, 2, 1]"},
		{"Reversed", "r = reversed([1, 2, 3])", "[3, 2, 1]"},
		{"SumInts", "r = sum([1, 2, 3])", "6"},
		{"SumFloat", "r = sum([1, 2.5])", "3.5"},
		{"MinArgs", "r = min(3, 1, 2)", "1"},
		{"MaxIterable", "r = max([1, 5, 2])", "5"},
		{"LenRunes", "r = len('héllo')", "5"},
		{"LenDict", "r = len({'a': 1})", "1"},
		{"IntParse", "r = int(' 42 ')", "42"},
		{"IntTruncate", "r = int(3.9)", "3"},
		{"FloatParse", "r = float('2.5')", "2.5"},
		{"Str", "r = str(1.0)", `"1.0"`},
		{"Repr", "r = repr('a')", `"\"a\""`},
		{"Type", "r = [type([]), type(1.5), type(None)]", `["list", "float", "NoneType"]`},
		{"ChrOrd", "r = [chr(65), ord('A')]", `["A", 65]`},
		{"Radix", "r = [hex(255), bin(5), oct(8), hex(-1)]", `["0xff", "0b101", "0o10", "-0x1"]`},
		{"RoundHalfAway", "r = round(2.5)", "3"},
		{"RoundDigits", "r = round(3.14159, 2)", "3.14"},
		{"AllAny", "r = [all([1, True]), any([0, ''])]", "[True, False]"},
		{"DictPairs", "r = dict([['a', 1], ['b', 2]])", `{"a": 1, "b": 2}`},
		{"DictCopy", "d = {'a': 1}\nr = dict(d)\nr['a'] = 2\nr = [d['a'], r['a']]", "[1, 2]"},
		{"NextDefault", "it = iter([1])\nr = [next(it), next(it, 'done')]", `[1, "done"]`},
		{"Callable", "r = [callable(len), callable(3)]", "[True, False]"},
		{"Abs", "r = [abs(-3), abs(-2.5)]", "[3, 2.5]"},
		{"Bool", "r = [bool([]), bool('x')]", "[False, True]"},
		{"FormatGrouped", "r = format(1234567, ',')", `"1,234,567"`},
		{"FormatFixed", "r = format(3.14159, '.2f')", `"3.14"`},
		{"FormatGroupedFixed", "r = format(1234.5, ',.2f')", `"1,234.50"`},
		{"JSONLoads", "import json\nr = json.loads('{\"b\": [1, 2.5, true, null], \"a\": \"x\"}')", `{"a": "x", "b": [1, 2.5, True, None]}`},
		{"JSONDumps", "import json\nr = json.dumps({'a': [1, None]})", `"{\"a\":[1,null]}"`},
		{"Math", "import math\nr = math.floor(2.7) + math.sqrt(16)", "6.0"},
		{"MathLogBase", "import math\nr = math.log(8, 2)", "3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, _, err := runScript(t, tt.src, stdlib.Options{})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			r, ok := scope.Lookup("r")
			if !ok {
				t.Fatal("r is not bound")
			}
			if got := r.Repr(); got != tt.want {
				t.Errorf("r = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	_, lines, err := runScript(t, "print('a', 1, [2], None)\nprint()\nfor i in range(2): print(i)", stdlib.Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{`a 1 [2] None`, "", "0", "1"}
	if len(lines) != len(want) {
		t.Fatalf("printed %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestMapIsLazy(t *testing.T) {
	_, lines, err := runScript(t, "def show(x):\n    print(x)\n    return x\nm = map(show, [1, 2, 3])\nfirst = next(m)", stdlib.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "1" {
		t.Errorf("map must call fn on demand, printed %q", lines)
	}
}

func TestSandboxModulesOptional(t *testing.T) {
	reg := bridge.NewRegistry()
	stdlib.Install(reg, stdlib.Options{})
	names := reg.Names()
	if len(names) != 2 || names[0] != "json" || names[1] != "math" {
		t.Errorf("Names() = %v, want [json math]", names)
	}
}
