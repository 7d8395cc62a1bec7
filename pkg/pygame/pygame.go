// Package pygame is a drawing shim. Scripts call a small subset of the
// pygame API; every call that changes what is on screen becomes an
// outbound event for the rendering host. Nothing is drawn locally.
package pygame

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var (
	ErrNoLoader = errors.New("pygame: image loading is not available")
	ErrBlit     = errors.New("pygame: cannot blit object")
)

// Event kinds understood by the rendering host.
const (
	EventCreateCanvas = "create_canvas"
	EventDrawImage    = "drawImg"
	EventDrawText     = "drawText"
)

const defaultBackground = "#00000000"

// Emitter receives outbound drawing events.
type Emitter interface {
	Emit(kind string, payload map[string]any)
}

// Loader reads image bytes. *stdlib.FSSandbox satisfies it.
type Loader interface {
	ReadFile(path string) ([]byte, error)
}

// Shim holds the per-worker drawing state. Canvas ids are assigned in
// creation order starting at 0.
type Shim struct {
	emit   Emitter
	files  Loader
	nextID int
}

func New(emit Emitter, files Loader) *Shim {
	return &Shim{emit: emit, files: files}
}

// Install registers the pygame module into reg.
func (s *Shim) Install(reg *bridge.Registry) *value.Module {
	return reg.RegisterModule("pygame", s.Members())
}

func submodule(name string, members map[string]value.Value) value.Value {
	return value.FromModule(value.NewModule(name, members))
}

// Members returns the pygame namespace.
func (s *Shim) Members() map[string]value.Value {
	return map[string]value.Value{
		"init": bridge.Func("init", func(args []value.Value) (value.Value, error) {
			return value.None, nil
		}),
		"display": submodule("pygame.display", map[string]value.Value{
			"set_mode": bridge.Func("set_mode", s.setMode),
		}),
		"image": submodule("pygame.image", map[string]value.Value{
			"load": bridge.Func("load", s.loadImage),
		}),
		"transform": submodule("pygame.transform", map[string]value.Value{
			"scale": bridge.Func("scale", scale),
		}),
		"font": submodule("pygame.font", map[string]value.Value{
			"Font": bridge.Func("Font", newFont),
		}),
	}
}

// pair reads a [w, h] or [x, y] list.
func pair(name string, v value.Value) (value.Value, value.Value, error) {
	if v.Type != value.TypeList || v.List().Len() < 2 {
		return value.None, value.None, fmt.Errorf("%w: %s() expects a [width, height] list, not %s", bridge.ErrArgType, name, v.Repr())
	}
	items := v.List().Items
	return items[0], items[1], nil
}

func (s *Shim) setMode(args []value.Value) (value.Value, error) {
	if err := bridge.CheckArgs("set_mode", args, 1, -1); err != nil {
		return value.None, err
	}
	w, h, err := pair("set_mode", args[0])
	if err != nil {
		return value.None, err
	}
	c := &Canvas{shim: s, id: s.nextID, width: w, height: h}
	s.nextID++
	s.emit.Emit(EventCreateCanvas, map[string]any{
		"id":     c.id,
		"width":  goValue(w),
		"height": goValue(h),
	})
	return value.FromObject(c), nil
}

// loadImage reads path through the loader and wraps it as a data URL.
func (s *Shim) loadImage(args []value.Value) (value.Value, error) {
	path, err := bridge.StringArg("load", args, 0)
	if err != nil {
		return value.None, err
	}
	if s.files == nil {
		return value.None, ErrNoLoader
	}
	data, err := s.files.ReadFile(path)
	if err != nil {
		return value.None, err
	}
	return value.FromObject(&Image{
		box: box{x: value.Int(0), y: value.Int(0), width: value.Undefined, height: value.Undefined},
		src: dataURL(path, data),
	}), nil
}

func dataURL(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	kind := mime.TypeByExtension(ext)
	if kind == "" {
		kind = "image/" + strings.TrimPrefix(ext, ".")
	}
	return "data:" + kind + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// scale returns a resized copy of an image; other drawables are resized
// in place.
func scale(args []value.Value) (value.Value, error) {
	if err := bridge.CheckArgs("scale", args, 2, 2); err != nil {
		return value.None, err
	}
	w, h, err := pair("scale", args[1])
	if err != nil {
		return value.None, err
	}
	switch obj := objectOf(args[0]).(type) {
	case *Image:
		cp := *obj
		cp.width, cp.height = w, h
		return value.FromObject(&cp), nil
	case *Text:
		obj.width, obj.height = w, h
		return args[0], nil
	}
	return value.None, fmt.Errorf("%w: scale() cannot resize '%s'", bridge.ErrArgType, args[0].TypeName())
}

func newFont(args []value.Value) (value.Value, error) {
	if err := bridge.CheckArgs("Font", args, 2, 2); err != nil {
		return value.None, err
	}
	path := bridge.Arg(args, 0, value.None)
	if path.Type != value.TypeString && path.Type != value.TypeNone {
		return value.None, fmt.Errorf("%w: Font() path must be str or None", bridge.ErrArgType)
	}
	if !args[1].IsNumber() {
		return value.None, fmt.Errorf("%w: Font() size must be a number", bridge.ErrArgType)
	}
	return value.FromObject(&Font{path: path, size: args[1]}), nil
}

func objectOf(v value.Value) value.Object {
	if v.Type != value.TypeObject {
		return nil
	}
	return v.Object()
}

// goValue converts a script value for an event payload. Values without a
// host form are rendered as text.
func goValue(v value.Value) any {
	x, err := bridge.ToGo(v)
	if err != nil {
		return v.Format()
	}
	return x
}
