package worker

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event types sent to the host.
const (
	EventReady = "python.ready"
	EventPrint = "print"
	EventError = "error"
	EventDone  = "done"
)

var ErrBadMessage = errors.New("worker: malformed message")

// Request asks the worker to evaluate Source and register the resulting
// scope as module Module.
type Request struct {
	Source string `json:"src"`
	Module string `json:"module,omitempty"`
	Name   string `json:"__name__,omitempty"`
}

// DecodeRequest parses one inbound message.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return req, nil
}

// Event is an outbound message. Fields are flattened next to "type" on
// the wire: {"type": "print", "str": "hi"}.
type Event struct {
	Type   string
	Fields map[string]any
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["type"] = e.Type
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, ok := raw["type"].(string)
	if !ok {
		return fmt.Errorf("%w: event without a type", ErrBadMessage)
	}
	delete(raw, "type")
	e.Type, e.Fields = kind, raw
	return nil
}

// Get returns a field by name.
func (e Event) Get(key string) any {
	return e.Fields[key]
}
