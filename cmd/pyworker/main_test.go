package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/compiler/lexer"
	"github.com/agenthands/pyworker/pkg/config"
	"github.com/agenthands/pyworker/pkg/core/value"
)

func testSession(t *testing.T, strict bool) (*session, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Sandbox.Root = t.TempDir()
	cfg.Engine.StrictLexing = strict
	var out bytes.Buffer
	return newSession(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), &out), &out
}

func TestSessionEval(t *testing.T) {
	sess, out := testSession(t, true)
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Assignment", "x = [1, 2]", ""},
		{"ExpressionEcho", "x", "[1, 2]"},
		{"StringEcho", "'a' + 'b'", `"ab"`},
		{"NoneIsQuiet", "None", ""},
		{"Block", "for i in x:\n    y = i", ""},
		{"StatePersists", "y * 10", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sess.eval(tt.src)
			if err != nil {
				t.Fatalf("eval(%q): %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("eval(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}

	if _, err := sess.eval("print('hi')"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hi\n" {
		t.Errorf("print wrote %q", out.String())
	}
}

func TestSessionLexingPolicy(t *testing.T) {
	src := "a = 1\nb = 2 $ 3"

	strict, _ := testSession(t, true)
	if _, err := strict.eval(src); !errors.Is(err, lexer.ErrUnexpectedChar) {
		t.Fatalf("strict session: got %v, want ErrUnexpectedChar", err)
	}

	lenient, _ := testSession(t, false)
	if _, err := lenient.eval(src); err != nil {
		t.Fatalf("lenient session: %v", err)
	}
	if got, err := lenient.eval("b"); err != nil || got != "2" {
		t.Errorf("b = %q, %v; want 2", got, err)
	}
}

func TestSessionSurvivesHostPanic(t *testing.T) {
	sess, _ := testSession(t, true)
	sess.in.Registry().RegisterModule("boom", map[string]value.Value{
		"now": bridge.Func("now", func([]value.Value) (value.Value, error) {
			panic("host failure")
		}),
	})

	_, err := sess.eval("import boom\nboom.now()")
	if err == nil || !strings.Contains(err.Error(), "host failure") {
		t.Fatalf("eval error = %v, want the panic message", err)
	}
	if got, err := sess.eval("1 + 1"); err != nil || got != "2" {
		t.Errorf("session unusable after panic: %q, %v", got, err)
	}
}

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"if x:", true},
		{"def f(a):  ", true},
		{"    y = 1", true},
		{"\tpass", true},
		{"x = 1", false},
		{"d = {'a': 1}", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := needsMore(tt.line); got != tt.want {
				t.Errorf("needsMore(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
