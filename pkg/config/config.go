// Package config loads the YAML settings shared by the CLI and the
// websocket server.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/pyworker/pkg/interp"
	"github.com/agenthands/pyworker/pkg/stdlib"
	"github.com/agenthands/pyworker/pkg/worker"
)

type Config struct {
	Engine    Engine    `yaml:"engine"`
	Sandbox   Sandbox   `yaml:"sandbox"`
	Transport Transport `yaml:"transport"`
	Logging   Logging   `yaml:"logging"`
}

type Engine struct {
	// StrictLexing makes an unexpected character fail the run instead of
	// silently truncating the program.
	StrictLexing bool `yaml:"strict_lexing"`
	MaxCallDepth int  `yaml:"max_call_depth"`
}

type Sandbox struct {
	// Root confines the fs module and pygame.image.load. Empty disables both.
	Root           string   `yaml:"root"`
	MaxFileSize    int64    `yaml:"max_file_size"`
	ReadOnly       bool     `yaml:"read_only"`
	AllowedDomains []string `yaml:"allowed_domains"`
	AllowLocalhost bool     `yaml:"allow_localhost"`
	// HTTP enables the http module.
	HTTP bool `yaml:"http"`
}

type Transport struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Engine: Engine{StrictLexing: true, MaxCallDepth: 1000},
		Sandbox: Sandbox{
			Root:           ".",
			MaxFileSize:    5 << 20,
			AllowedDomains: []string{"localhost"},
			AllowLocalhost: true,
		},
		Transport: Transport{Addr: ":8080", Path: "/ws"},
		Logging:   Logging{Level: "info", Format: "text"},
	}
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	if cfg.Sandbox.Root != "" && !filepath.IsAbs(cfg.Sandbox.Root) {
		cfg.Sandbox.Root = filepath.Join(filepath.Dir(absPath), cfg.Sandbox.Root)
	}
	return cfg, nil
}

// Parse decodes and validates YAML from r. An empty document yields the
// defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	errs := &ValidationError{}
	if c.Engine.MaxCallDepth <= 0 {
		errs.Issues = append(errs.Issues, "engine.max_call_depth must be positive")
	}
	if c.Sandbox.MaxFileSize < 0 {
		errs.Issues = append(errs.Issues, "sandbox.max_file_size must not be negative")
	}
	for i, d := range c.Sandbox.AllowedDomains {
		if strings.TrimSpace(d) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("sandbox.allowed_domains[%d] must be a non-empty string", i))
		}
	}
	if c.Transport.Addr == "" {
		errs.Issues = append(errs.Issues, "transport.addr must be provided")
	}
	if !strings.HasPrefix(c.Transport.Path, "/") {
		errs.Issues = append(errs.Issues, fmt.Sprintf("transport.path %q must start with '/'", c.Transport.Path))
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs.Issues = append(errs.Issues, err.Error())
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("logging.format %q must be text or json", c.Logging.Format))
	}
	if len(errs.Issues) > 0 {
		return errs
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging.level %q must be debug, info, warn or error", s)
}

// NewLogger builds the process logger writing to w.
func (l Logging) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (e Engine) InterpreterOptions() []interp.Option {
	return []interp.Option{
		interp.WithStrictLexing(e.StrictLexing),
		interp.WithMaxCallDepth(e.MaxCallDepth),
	}
}

// FS returns the file sandbox, or nil when no root is configured.
func (s Sandbox) FS() *stdlib.FSSandbox {
	if s.Root == "" {
		return nil
	}
	fs := stdlib.NewFSSandbox(s.Root, s.MaxFileSize)
	fs.ReadOnly = s.ReadOnly
	return fs
}

// HTTPClient returns the http sandbox, or nil when http is disabled.
func (s Sandbox) HTTPClient() *stdlib.HTTPSandbox {
	if !s.HTTP {
		return nil
	}
	h := stdlib.NewHTTPSandbox(s.AllowedDomains)
	h.AllowLocalhost = s.AllowLocalhost
	return h
}

// WorkerOptions collects everything a worker needs from the configuration.
func (c *Config) WorkerOptions(log *slog.Logger) []worker.Option {
	opts := []worker.Option{
		worker.WithLogger(log),
		worker.WithInterpreterOptions(c.Engine.InterpreterOptions()...),
	}
	if fs := c.Sandbox.FS(); fs != nil {
		opts = append(opts, worker.WithFS(fs))
	}
	if h := c.Sandbox.HTTPClient(); h != nil {
		opts = append(opts, worker.WithHTTP(h))
	}
	return opts
}
