package stdlib_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agenthands/pyworker/pkg/stdlib"
)

func TestFSSandbox(t *testing.T) {
	dir := t.TempDir()
	sandbox := stdlib.NewFSSandbox(dir, 1024)

	src := `import fs
fs.write('notes/test.txt', 'hello pyworker')
content = fs.read('notes/test.txt')
present = [fs.exists('notes/test.txt'), fs.exists('missing.txt')]
listing = fs.listdir('notes')`
	scope, _, err := runScript(t, src, stdlib.Options{FS: sandbox})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "notes", "test.txt")); err != nil {
		t.Errorf("file was not created: %v", err)
	}
	checks := map[string]string{
		"content": `"hello pyworker"`,
		"present": "[True, False]",
		"listing": `["test.txt"]`,
	}
	for name, want := range checks {
		v, _ := scope.Lookup(name)
		if got := v.Repr(); got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}
}

func TestFSSandboxErrors(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", 64)
	if err := os.WriteFile(filepath.Join(dir, "big.txt"), []byte(big), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		src      string
		readOnly bool
		want     error
	}{
		{"WriteEscape", "import fs\nfs.write('../../etc/passwd', 'x')", false, stdlib.ErrPathEscape},
		{"ReadEscape", "import fs\nfs.read('../outside.txt')", false, stdlib.ErrPathEscape},
		{"WriteTooLarge", "import fs\nfs.write('a.txt', '" + big + "')", false, stdlib.ErrFileTooLarge},
		{"ReadTooLarge", "import fs\nfs.read('big.txt')", false, stdlib.ErrFileTooLarge},
		{"ReadOnly", "import fs\nfs.write('a.txt', 'x')", true, stdlib.ErrPermissionDenied},
		{"Missing", "import fs\nfs.read('nope.txt')", false, os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sandbox := stdlib.NewFSSandbox(dir, 32)
			sandbox.ReadOnly = tt.readOnly
			_, _, err := runScript(t, tt.src, stdlib.Options{FS: sandbox})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFSResolve(t *testing.T) {
	dir := t.TempDir()
	sandbox := stdlib.NewFSSandbox(dir, 1024)

	tests := []struct {
		path string
		ok   bool
	}{
		{"a.txt", true},
		{"sub/../a.txt", true},
		{"/abs/inside.txt", true},
		{"..", false},
		{"../" + filepath.Base(dir) + "x/a.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			full, err := sandbox.Resolve(tt.path)
			if tt.ok {
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if !strings.HasPrefix(full, sandbox.Root) {
					t.Errorf("Resolve() = %s, outside %s", full, sandbox.Root)
				}
				return
			}
			if !errors.Is(err, stdlib.ErrPathEscape) {
				t.Errorf("expected ErrPathEscape, got %v", err)
			}
		})
	}
}
