package config_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agenthands/pyworker/pkg/config"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name:  "EmptyDocumentYieldsDefaults",
			input: "",
			check: func(t *testing.T, cfg *config.Config) {
				def := config.Default()
				if cfg.Engine != def.Engine || cfg.Transport != def.Transport || cfg.Logging != def.Logging {
					t.Errorf("got %+v, want defaults %+v", cfg, def)
				}
			},
		},
		{
			name:  "PartialSectionKeepsOtherDefaults",
			input: "engine:\n  max_call_depth: 50\n",
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Engine.MaxCallDepth != 50 {
					t.Errorf("max_call_depth = %d, want 50", cfg.Engine.MaxCallDepth)
				}
				if !cfg.Engine.StrictLexing {
					t.Error("strict_lexing default was lost")
				}
				if cfg.Transport.Path != "/ws" {
					t.Errorf("transport.path = %q, want /ws", cfg.Transport.Path)
				}
			},
		},
		{
			name: "FullDocument",
			input: `
engine: { strict_lexing: false, max_call_depth: 10 }
sandbox: { root: /srv/data, max_file_size: 1024, read_only: true, allowed_domains: [example.com], allow_localhost: false, http: true }
transport: { addr: "127.0.0.1:9000", path: /python }
logging: { level: debug, format: json }
`,
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Engine.StrictLexing {
					t.Error("strict_lexing should be false")
				}
				if cfg.Sandbox.Root != "/srv/data" || !cfg.Sandbox.ReadOnly || !cfg.Sandbox.HTTP {
					t.Errorf("sandbox = %+v", cfg.Sandbox)
				}
				if len(cfg.Sandbox.AllowedDomains) != 1 || cfg.Sandbox.AllowedDomains[0] != "example.com" {
					t.Errorf("allowed_domains = %v", cfg.Sandbox.AllowedDomains)
				}
				if cfg.Transport.Addr != "127.0.0.1:9000" || cfg.Logging.Format != "json" {
					t.Errorf("transport/logging = %+v %+v", cfg.Transport, cfg.Logging)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		issues int
	}{
		{"UnknownKey", "engine:\n  turbo: true\n", 0},
		{"BadDepth", "engine:\n  max_call_depth: 0\n", 1},
		{"BadPathAndFormat", "transport:\n  path: ws\nlogging:\n  format: xml\n", 2},
		{"BadLevel", "logging:\n  level: loud\n", 1},
		{"EmptyDomain", "sandbox:\n  allowed_domains: [\"\"]\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			var verr *config.ValidationError
			if tt.issues == 0 {
				if errors.As(err, &verr) {
					t.Fatalf("expected a decode error, got validation error %v", err)
				}
				return
			}
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if len(verr.Issues) != tt.issues {
				t.Errorf("issues = %q, want %d", verr.Issues, tt.issues)
			}
		})
	}
}

func TestLoadResolvesRootRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyworker.yml")
	if err := os.WriteFile(path, []byte("sandbox:\n  root: assets\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "assets"); cfg.Sandbox.Root != want {
		t.Errorf("root = %q, want %q", cfg.Sandbox.Root, want)
	}

	if _, err := config.Load(filepath.Join(dir, "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want os.ErrNotExist", err)
	}
}

func TestSandboxes(t *testing.T) {
	cfg := config.Default()
	if cfg.Sandbox.HTTPClient() != nil {
		t.Error("http should be disabled by default")
	}
	cfg.Sandbox.HTTP = true
	cfg.Sandbox.AllowLocalhost = false
	h := cfg.Sandbox.HTTPClient()
	if h == nil || h.AllowLocalhost {
		t.Fatalf("http sandbox = %+v", h)
	}

	cfg.Sandbox.Root = ""
	if cfg.Sandbox.FS() != nil {
		t.Error("empty root should disable the fs sandbox")
	}
	cfg.Sandbox.Root = t.TempDir()
	cfg.Sandbox.ReadOnly = true
	if fs := cfg.Sandbox.FS(); fs == nil || !fs.ReadOnly {
		t.Errorf("fs sandbox = %+v", fs)
	}
	if n := len(cfg.WorkerOptions(slog.Default())); n != 4 {
		t.Errorf("worker options = %d, want 4", n)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := config.Logging{Level: "warn", Format: "json"}.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record passed a warn-level logger: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":1`) {
		t.Errorf("unexpected json output: %s", out)
	}
}
