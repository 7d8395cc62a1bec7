package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/compiler/ast"
	"github.com/agenthands/pyworker/pkg/compiler/compat"
	"github.com/agenthands/pyworker/pkg/config"
	"github.com/agenthands/pyworker/pkg/core/value"
	"github.com/agenthands/pyworker/pkg/interp"
	"github.com/agenthands/pyworker/pkg/pygame"
	"github.com/agenthands/pyworker/pkg/stdlib"
	"github.com/agenthands/pyworker/pkg/worker"
)

const (
	historyFile = ".pyworker_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

const usage = `usage: pyworker <command> [arguments]

commands:
  run <file.py> [-config path] [-module name]   evaluate a program
  repl [-config path]                           interactive session
  serve [-config path] [-addr :8080]            websocket worker endpoint
  check <file.py>                               compare with the CPython grammar`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	args := os.Args[2:]
	var code int
	switch os.Args[1] {
	case "run":
		code = cmdRun(args)
	case "repl":
		code = cmdRepl(args)
	case "serve":
		code = cmdServe(args)
	case "check":
		code = cmdCheck(args)
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", os.Args[1], usage)
		code = 2
	}
	os.Exit(code)
}

// loadConfig falls back to the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// splitFile accepts the source file either before or after the flags.
func splitFile(fs *flag.FlagSet, args []string) (string, error) {
	var file string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		file, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if file == "" && fs.NArg() > 0 {
		file = fs.Arg(0)
	}
	if file == "" {
		return "", errors.New("missing source file")
	}
	return file, nil
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a YAML configuration file")
	module := fs.String("module", "", "register the program as this module")
	file, err := splitFile(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return 1
	}
	log := cfg.Logging.NewLogger(os.Stderr)

	failed := false
	events := json.NewEncoder(os.Stderr)
	w := worker.New(func(ev worker.Event) {
		switch ev.Type {
		case worker.EventReady, worker.EventDone:
		case worker.EventPrint:
			fmt.Println(ev.Get("str"))
		default:
			if ev.Type == worker.EventError {
				failed = true
			}
			_ = events.Encode(ev)
		}
	}, cfg.WorkerOptions(log)...)

	name := "__main__"
	if *module != "" {
		name = *module
	}
	if err := w.Post(worker.Request{Source: string(src), Module: *module, Name: name}); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return 1
	}
	w.Close()
	if failed {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

// session keeps one global scope alive across REPL inputs.
type session struct {
	in    *interp.Interpreter
	scope *interp.Scope
}

type stderrEmitter struct{ enc *json.Encoder }

func (e stderrEmitter) Emit(kind string, payload map[string]any) {
	_ = e.enc.Encode(worker.Event{Type: kind, Fields: payload})
}

func newSession(cfg *config.Config, log *slog.Logger, out io.Writer) *session {
	reg := bridge.NewRegistry()
	fsb := cfg.Sandbox.FS()
	stdlib.Install(reg, stdlib.Options{Stdout: out, FS: fsb, HTTP: cfg.Sandbox.HTTPClient()})
	var files pygame.Loader
	if fsb != nil {
		files = fsb
	}
	pygame.New(stderrEmitter{json.NewEncoder(os.Stderr)}, files).Install(reg)

	opts := append([]interp.Option{interp.WithLogger(log)}, cfg.Engine.InterpreterOptions()...)
	in := interp.New(reg, opts...)
	scope := in.NewGlobalScope()
	scope.Set("__name__", value.String("__main__"))
	return &session{in: in, scope: scope}
}

// eval runs one chunk of input. A lone expression is echoed like the
// CPython prompt does. A panic in host code comes back as an error.
func (s *session) eval(src string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	nodes, err := s.in.Parse(src)
	if err != nil {
		return "", err
	}
	if len(nodes) == 1 {
		if st, ok := nodes[0].(*ast.ExprStmt); ok {
			v, err := s.in.EvalExpr(st.X, s.scope)
			if err != nil {
				return "", err
			}
			if v.Type == value.TypeNone || v.Type == value.TypeUndefined {
				return "", nil
			}
			return v.Repr(), nil
		}
	}
	_, err = s.in.Evaluate(nodes, s.scope)
	return "", err
}

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sess := newSession(cfg, cfg.Logging.NewLogger(os.Stderr), os.Stdout)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		src, ok := readChunk(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		out, err := sess.eval(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

// readChunk reads one statement. Input continues while the first line
// opens a block or the latest line is indented; an empty line ends it.
func readChunk(ln *liner.State) (string, bool) {
	var lines []string
	for {
		prompt := promptMain
		if len(lines) > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if len(lines) > 0 && strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
		if !needsMore(line) && len(lines) == 1 {
			break
		}
	}
	return strings.Join(lines, "\n"), true
}

func needsMore(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	return strings.HasSuffix(trimmed, ":") || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a YAML configuration file")
	addr := fs.String("addr", "", "listen address (overrides transport.addr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *addr != "" {
		cfg.Transport.Addr = *addr
	}
	log := cfg.Logging.NewLogger(os.Stderr)

	mux := http.NewServeMux()
	mux.Handle(cfg.Transport.Path, worker.NewHandler(log, cfg.WorkerOptions(log)...))
	srv := &http.Server{
		Addr:              cfg.Transport.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("listening", "addr", cfg.Transport.Addr, "path", cfg.Transport.Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "err", err)
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// check
// -----------------------------------------------------------------------------

func cmdCheck(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: pyworker check <file.py>")
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "check: %v\n", err)
		return 1
	}
	report := compat.Check(string(src))
	fmt.Println(report)
	if report.EngineErr != nil {
		return 1
	}
	if !report.Agree() {
		fmt.Println("note: the program relies on dialect behavior")
	}
	return 0
}
