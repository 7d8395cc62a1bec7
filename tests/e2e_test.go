package main_test

import (
	"strings"
	"testing"

	"github.com/agenthands/pyworker/pkg/worker"
)

// runProgram evaluates src on a fresh worker and returns the printed lines
// and any error events.
func runProgram(t *testing.T, src string, opts ...worker.Option) ([]string, []worker.Event) {
	t.Helper()
	var (
		printed []string
		errs    []worker.Event
	)
	w := worker.New(func(ev worker.Event) {
		switch ev.Type {
		case worker.EventPrint:
			printed = append(printed, ev.Get("str").(string))
		case worker.EventError:
			errs = append(errs, ev)
		}
	}, opts...)
	if err := w.Post(worker.Request{Source: src}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	w.Close()
	return printed, errs
}

// TestComprehensive runs whole programs through the public worker API.
func TestComprehensive(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Factorial (While Loop)",
			src: `
n = 5
res = 1
while n > 0:
    res = res * n
    n = n - 1
print(res)
`,
			want: "120",
		},
		{
			name: "Nested If/Else",
			src: `
val = 50
res = 0
if val > 10:
    if val > 40:
        res = 2
    else:
        res = 1
else:
    res = 0
print(res)
`,
			want: "2",
		},
		{
			name: "Fibonacci (Recursive)",
			src: `
def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)
print(fib(15))
`,
			want: "610",
		},
		{
			name: "String Building",
			src: `
words = ["alpha", "beta", "gamma"]
out = ""
for w in words:
    out = out + w[0]
print(out.upper(), len(out))
`,
			want: "ABG 3",
		},
		{
			name: "Closures Share State",
			src: `
def counter():
    state = {"n": 0}
    def step():
        state["n"] = state["n"] + 1
        return state["n"]
    return step
c = counter()
c()
c()
print(c())
`,
			want: "3",
		},
		{
			name: "Lazy Pipeline",
			src: `
evens = filter(lambda x: x % 2 == 0, range(10))
squares = map(lambda x: x * x, evens)
print(sum(squares))
`,
			want: "120",
		},
		{
			name: "Comprehension And Sorting",
			src: `
people = [{"name": "bo", "age": 31}, {"name": "al", "age": 25}, {"name": "cy", "age": 40}]
names = [p["name"] for p in sorted(people, lambda p: p["age"])]
print(names)
`,
			want: `["al", "bo", "cy"]`,
		},
		{
			name: "JSON Round Trip",
			src: `
import json
doc = json.loads('{"items": [1, 2, 3], "ok": true}')
doc["total"] = sum(doc["items"])
print(json.dumps(doc))
`,
			want: `{"items":[1,2,3],"ok":true,"total":6}`,
		},
		{
			name: "Math Module",
			src: `
import math
print(math.floor(math.sqrt(50)), round(math.pi, 2))
`,
			want: "7 3.14",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			printed, errs := runProgram(t, tt.src)
			if len(errs) > 0 {
				t.Fatalf("program failed: %v", errs[0].Get("error"))
			}
			if got := strings.Join(printed, "\n"); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgramErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
		line     int
	}{
		{"UndefinedName", "total = 1\nprint(totl)", "did you mean 'total'", 2},
		{"TypeMismatch", "x = 1\ny = 2\nz = x + 'a'", "unsupported", 3},
		{"SyntaxError", "if x\n    y = 1", "syntax", 1},
		{"MissingModule", "import nope", "nope", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := runProgram(t, tt.src)
			if len(errs) != 1 {
				t.Fatalf("error events = %d, want 1", len(errs))
			}
			msg, _ := errs[0].Get("error").(string)
			if !strings.Contains(strings.ToLower(msg), strings.ToLower(tt.contains)) {
				t.Errorf("error = %q, want it to mention %q", msg, tt.contains)
			}
			if line, _ := errs[0].Get("line").(int); line != tt.line {
				t.Errorf("line = %v, want %d", errs[0].Get("line"), tt.line)
			}
		})
	}
}

func TestModulesAcrossRequests(t *testing.T) {
	var printed []string
	w := worker.New(func(ev worker.Event) {
		if ev.Type == worker.EventPrint {
			printed = append(printed, ev.Get("str").(string))
		}
	})
	requests := []worker.Request{
		{Module: "shapes", Source: "def area(w, h):\n    return w * h\nunit = 'cm'"},
		{Module: "report", Source: "import shapes\ndef line(w, h):\n    return str(shapes.area(w, h)) + shapes.unit\n"},
		{Source: "import report\nprint(report.line(3, 4))"},
	}
	for _, req := range requests {
		if err := w.Post(req); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()
	if len(printed) != 1 || printed[0] != "12cm" {
		t.Errorf("printed = %q, want [12cm]", printed)
	}
}
