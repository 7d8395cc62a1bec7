package worker_test

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
	"github.com/agenthands/pyworker/pkg/worker"
)

type collector struct {
	mu     sync.Mutex
	events []worker.Event
}

func (c *collector) sink(ev worker.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Type
		if ev.Type == worker.EventPrint {
			out[i] += ":" + ev.Get("str").(string)
		}
	}
	return out
}

func runRequests(t *testing.T, reqs []worker.Request, opts ...worker.Option) *collector {
	t.Helper()
	c := &collector{}
	w := worker.New(c.sink, opts...)
	for _, req := range reqs {
		if err := w.Post(req); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
	}
	w.Close()
	return c
}

func TestWorkerEvents(t *testing.T) {
	tests := []struct {
		name string
		reqs []worker.Request
		want []string
	}{
		{
			name: "ReadyFirst",
			reqs: nil,
			want: []string{"python.ready"},
		},
		{
			name: "PrintAndDone",
			reqs: []worker.Request{{Source: "print('hi')", Module: "test"}},
			want: []string{"python.ready", "print:hi", "done"},
		},
		{
			name: "ModuleRegistration",
			reqs: []worker.Request{
				{Source: "x = 41\ndef inc(n): return n + 1", Module: "lib"},
				{Source: "import lib\nprint(lib.inc(lib.x))"},
			},
			want: []string{"python.ready", "done", "print:42", "done"},
		},
		{
			name: "DunderName",
			reqs: []worker.Request{
				{Source: "print(__name__)"},
				{Source: "print(__name__)", Name: "game"},
			},
			want: []string{"python.ready", "print:__main__", "done", "print:game", "done"},
		},
		{
			name: "FailureDoesNotStopWorker",
			reqs: []worker.Request{
				{Source: "print('a')\ny = nope", Module: "bad"},
				{Source: "print('b')"},
			},
			want: []string{"python.ready", "print:a", "error", "print:b", "done"},
		},
		{
			name: "PygameThroughWorker",
			reqs: []worker.Request{{Source: "import pygame\npygame.display.set_mode([8, 8])"}},
			want: []string{"python.ready", "create_canvas", "done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runRequests(t, tt.reqs).types()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("events = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorEventFields(t *testing.T) {
	c := runRequests(t, []worker.Request{{Source: "x = 1\ny = nope", Module: "bad"}})
	ev := c.events[len(c.events)-1]
	if ev.Type != worker.EventError {
		t.Fatalf("last event = %s, want error", ev.Type)
	}
	if ev.Get("line") != 2 {
		t.Errorf("line = %v, want 2", ev.Get("line"))
	}
	if ev.Get("module") != "bad" {
		t.Errorf("module = %v, want bad", ev.Get("module"))
	}
	if msg, _ := ev.Get("error").(string); !strings.Contains(msg, "nope") {
		t.Errorf("error = %q", msg)
	}
}

func TestFailedModuleIsNotRegistered(t *testing.T) {
	c := &collector{}
	w := worker.New(c.sink)
	_ = w.Post(worker.Request{Source: "x = 1\nboom()", Module: "half"})
	w.Close()
	if _, err := w.Registry().Lookup("half"); !errors.Is(err, bridge.ErrModuleNotFound) {
		t.Errorf("failed module must not be registered, got %v", err)
	}
}

func TestPanicRecovery(t *testing.T) {
	reg := bridge.NewRegistry()
	reg.RegisterModule("danger", map[string]value.Value{
		"explode": bridge.Func("explode", func(args []value.Value) (value.Value, error) {
			panic("boom")
		}),
	})
	c := runRequests(t, []worker.Request{
		{Source: "import danger\ndanger.explode()"},
		{Source: "print('still alive')"},
	}, worker.WithRegistry(reg))

	got := c.types()
	want := []string{"python.ready", "error", "print:still alive", "done"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if msg := c.events[1].Get("error"); msg != "panic: boom" {
		t.Errorf("error = %v", msg)
	}
}

func TestPostNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	reg := bridge.NewRegistry()
	reg.RegisterModule("gate", map[string]value.Value{
		"wait": bridge.Func("wait", func(args []value.Value) (value.Value, error) {
			<-release
			return value.None, nil
		}),
	})
	c := &collector{}
	w := worker.New(c.sink, worker.WithRegistry(reg))

	_ = w.Post(worker.Request{Source: "import gate\ngate.wait()"})
	for i := 0; i < 100; i++ {
		if err := w.Post(worker.Request{Source: "x = 1"}); err != nil {
			t.Fatal(err)
		}
	}
	close(release)
	w.Close()

	done := 0
	for _, typ := range c.types() {
		if typ == worker.EventDone {
			done++
		}
	}
	if done != 101 {
		t.Errorf("done events = %d, want 101", done)
	}
}

func TestPostAfterClose(t *testing.T) {
	w := worker.New(nil)
	w.Close()
	w.Close()
	if err := w.Post(worker.Request{Source: "x = 1"}); !errors.Is(err, worker.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestPostJSON(t *testing.T) {
	c := &collector{}
	w := worker.New(c.sink)
	if err := w.PostJSON([]byte(`{"src": "print(1)", "module": "m", "__name__": "__main__"}`)); err != nil {
		t.Fatal(err)
	}
	err := w.PostJSON([]byte(`{"src": `))
	w.Close()
	if !errors.Is(err, worker.ErrBadMessage) {
		t.Errorf("expected ErrBadMessage, got %v", err)
	}
	if got := strings.Join(c.types(), ","); got != "python.ready,print:1,done" {
		t.Errorf("events = %s", got)
	}
}

func TestEventWireFormat(t *testing.T) {
	data, err := json.Marshal(worker.Event{Type: worker.EventPrint, Fields: map[string]any{"str": "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"str":"hi","type":"print"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var ev worker.Event
	if err := json.Unmarshal([]byte(`{"type":"drawImg","x":3}`), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "drawImg" || ev.Get("x") != float64(3) {
		t.Errorf("Unmarshal() = %+v", ev)
	}
	if err := json.Unmarshal([]byte(`{"x":3}`), &ev); !errors.Is(err, worker.ErrBadMessage) {
		t.Errorf("expected ErrBadMessage, got %v", err)
	}
}
