// Package worker hosts one interpreter on its own goroutine. The host
// posts evaluation requests without waiting; the worker answers with a
// stream of events.
package worker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/compiler/lexer"
	"github.com/agenthands/pyworker/pkg/compiler/parser"
	"github.com/agenthands/pyworker/pkg/core/value"
	"github.com/agenthands/pyworker/pkg/interp"
	"github.com/agenthands/pyworker/pkg/pygame"
	"github.com/agenthands/pyworker/pkg/stdlib"
)

var ErrClosed = errors.New("worker: closed")

// Sink receives outbound events in order, always on the worker goroutine.
type Sink func(Event)

type Option func(*Worker)

func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.log = l }
}

func WithFS(fs *stdlib.FSSandbox) Option {
	return func(w *Worker) { w.fs = fs }
}

func WithHTTP(h *stdlib.HTTPSandbox) Option {
	return func(w *Worker) { w.http = h }
}

// WithRegistry lets the host pre-register native modules.
func WithRegistry(reg *bridge.Registry) Option {
	return func(w *Worker) { w.reg = reg }
}

func WithInterpreterOptions(opts ...interp.Option) Option {
	return func(w *Worker) { w.interpOpts = append(w.interpOpts, opts...) }
}

// Worker owns one interpreter. Requests are handled one at a time in the
// order they were posted.
type Worker struct {
	log        *slog.Logger
	sink       Sink
	reg        *bridge.Registry
	fs         *stdlib.FSSandbox
	http       *stdlib.HTTPSandbox
	interpOpts []interp.Option
	interp     *interp.Interpreter

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Request
	closed bool
	done   chan struct{}
}

// New starts a worker. The first event delivered to sink is EventReady.
func New(sink Sink, opts ...Option) *Worker {
	w := &Worker{
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		sink: sink,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.reg == nil {
		w.reg = bridge.NewRegistry()
	}
	w.cond = sync.NewCond(&w.mu)

	stdlib.Install(w.reg, stdlib.Options{
		Print: func(line string) { w.send(EventPrint, map[string]any{"str": line}) },
		FS:    w.fs,
		HTTP:  w.http,
	})
	var files pygame.Loader
	if w.fs != nil {
		files = w.fs
	}
	pygame.New(w, files).Install(w.reg)

	iopts := append([]interp.Option{interp.WithLogger(w.log)}, w.interpOpts...)
	w.interp = interp.New(w.reg, iopts...)

	go w.loop()
	return w
}

func (w *Worker) Registry() *bridge.Registry {
	return w.reg
}

// Emit forwards a native payload, such as a pygame draw call, to the sink.
func (w *Worker) Emit(kind string, payload map[string]any) {
	w.send(kind, payload)
}

func (w *Worker) send(kind string, fields map[string]any) {
	if w.sink != nil {
		w.sink(Event{Type: kind, Fields: fields})
	}
}

// Post enqueues req and returns immediately. There is no acknowledgement;
// results arrive as events.
func (w *Worker) Post(req Request) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.queue = append(w.queue, req)
	w.cond.Signal()
	return nil
}

// PostJSON decodes and enqueues one inbound message.
func (w *Worker) PostJSON(data []byte) error {
	req, err := DecodeRequest(data)
	if err != nil {
		return err
	}
	return w.Post(req)
}

// Close stops accepting requests and waits until the queue has drained.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		w.cond.Broadcast()
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)
	w.send(EventReady, nil)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		req := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.handle(req)
	}
}

// handle evaluates one request. Failures, including panics raised by
// native code, become error events; the worker keeps running.
func (w *Worker) handle(req Request) {
	name := req.Name
	if name == "" {
		name = "__main__"
	}
	log := w.log.With("module", req.Module, "name", name)
	log.Info("request started", "bytes", len(req.Source))

	defer func() {
		if r := recover(); r != nil {
			log.Error("request panicked", "panic", r)
			w.send(EventError, map[string]any{
				"module": req.Module,
				"error":  fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	scope := w.interp.NewGlobalScope()
	scope.Set("__name__", value.String(name))
	scope, err := w.interp.Run(req.Source, scope)
	if err != nil {
		log.Warn("request failed", "err", err)
		fields := map[string]any{"module": req.Module, "error": err.Error()}
		if line := errorLine(err); line > 0 {
			fields["line"] = line
		}
		w.send(EventError, fields)
		return
	}

	if req.Module != "" {
		w.reg.Register(req.Module, interp.ScopeToModule(req.Module, scope))
	}
	log.Info("request finished")
	w.send(EventDone, map[string]any{"module": req.Module})
}

func errorLine(err error) int {
	var (
		re *interp.RuntimeError
		se *parser.SyntaxError
		le *lexer.Error
	)
	switch {
	case errors.As(err, &re):
		return re.Line
	case errors.As(err, &se):
		return se.Line
	case errors.As(err, &le):
		return le.Line
	}
	return 0
}
