package pygame

import (
	"errors"
	"fmt"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var ErrAttribute = errors.New("pygame: no such attribute")

func noAttr(typ, name string) error {
	return fmt.Errorf("%w: '%s' object has no attribute '%s'", ErrAttribute, typ, name)
}

// box is the position and size shared by everything that can be blitted.
type box struct {
	x, y, width, height value.Value
}

func (b *box) get(name string) (value.Value, bool) {
	switch name {
	case "x":
		return b.x, true
	case "y":
		return b.y, true
	case "width":
		return b.width, true
	case "height":
		return b.height, true
	}
	return value.None, false
}

func (b *box) set(name string, v value.Value) error {
	switch name {
	case "x":
		b.x = v
	case "y":
		b.y = v
	case "width":
		b.width = v
	case "height":
		b.height = v
	case "topleft":
		x, y, err := pair("topleft", v)
		if err != nil {
			return err
		}
		b.x, b.y = x, y
	default:
		return errUnknownGeometry
	}
	return nil
}

var errUnknownGeometry = errors.New("unknown geometry attribute")

func (b *box) rect() value.Value {
	return value.FromObject(&Rect{target: b})
}

// Canvas is a surface created by display.set_mode.
type Canvas struct {
	shim          *Shim
	id            int
	width, height value.Value
}

func (c *Canvas) TypeName() string { return "Canvas" }

func (c *Canvas) String() string {
	return fmt.Sprintf("<Canvas id=%d width=%s height=%s>", c.id, c.width.Format(), c.height.Format())
}

func (c *Canvas) GetAttr(name string) (value.Value, error) {
	switch name {
	case "id":
		return value.Int(int64(c.id)), nil
	case "width":
		return c.width, nil
	case "height":
		return c.height, nil
	case "blit":
		return bridge.Method("blit", c.blit), nil
	}
	return value.None, noAttr(c.TypeName(), name)
}

func (c *Canvas) SetAttr(name string, v value.Value) error {
	return noAttr(c.TypeName(), name)
}

// blit emits a draw event for obj placed by rect. rect may be a dict, a
// [x, y] or [x, y, width, height] list, or any object with geometry
// attributes; missing fields fall back to the object's own.
func (c *Canvas) blit(recv value.Value, args []value.Value) (value.Value, error) {
	if err := bridge.CheckArgs("blit", args, 1, 2); err != nil {
		return value.None, err
	}
	var geom *box
	switch obj := objectOf(args[0]).(type) {
	case *Image:
		geom = &obj.box
	case *Text:
		geom = &obj.box
	default:
		return value.None, fmt.Errorf("%w: '%s'", ErrBlit, args[0].TypeName())
	}
	place := *geom
	if err := overlay(&place, bridge.Arg(args, 1, value.None)); err != nil {
		return value.None, err
	}

	payload := map[string]any{
		"id":     c.id,
		"x":      goValue(place.x),
		"y":      goValue(place.y),
		"width":  goValue(place.width),
		"height": goValue(place.height),
	}
	switch obj := objectOf(args[0]).(type) {
	case *Image:
		payload["img"] = obj.src
		c.shim.emit.Emit(EventDrawImage, payload)
	case *Text:
		payload["text"] = obj.text
		payload["font"] = map[string]any{"path": goValue(obj.font.path), "size": goValue(obj.font.size)}
		payload["color"] = map[string]any{"front": goValue(obj.color), "bg": goValue(obj.background)}
		c.shim.emit.Emit(EventDrawText, payload)
	}
	return value.None, nil
}

func overlay(place *box, rect value.Value) error {
	names := []string{"x", "y", "width", "height"}
	switch rect.Type {
	case value.TypeNone, value.TypeUndefined:
		return nil
	case value.TypeList:
		for i, item := range rect.List().Items {
			if i < len(names) {
				_ = place.set(names[i], item)
			}
		}
		return nil
	case value.TypeDict:
		for _, name := range names {
			if v, ok := rect.Dict().Get(value.String(name)); ok {
				_ = place.set(name, v)
			}
		}
		return nil
	case value.TypeObject:
		for _, name := range names {
			if v, err := rect.Object().GetAttr(name); err == nil && v.Type != value.TypeUndefined {
				_ = place.set(name, v)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: rect must be a list, dict or object, not '%s'", bridge.ErrArgType, rect.TypeName())
}

// Image holds a loaded picture as a data URL.
type Image struct {
	box
	src string
}

func (im *Image) TypeName() string { return "Image" }

func (im *Image) String() string {
	return fmt.Sprintf("<Image x=%s y=%s width=%s height=%s>", im.x.Format(), im.y.Format(), im.width.Format(), im.height.Format())
}

func (im *Image) GetAttr(name string) (value.Value, error) {
	if v, ok := im.get(name); ok {
		return v, nil
	}
	switch name {
	case "convert_alpha", "convert":
		return bridge.Method(name, func(recv value.Value, args []value.Value) (value.Value, error) {
			return recv, nil
		}), nil
	case "get_rect":
		return bridge.Method(name, func(recv value.Value, args []value.Value) (value.Value, error) {
			return im.rect(), nil
		}), nil
	}
	return value.None, noAttr(im.TypeName(), name)
}

func (im *Image) SetAttr(name string, v value.Value) error {
	if err := im.set(name, v); err != nil {
		return noAttr(im.TypeName(), name)
	}
	return nil
}

// Font is a font face reference; the host resolves path.
type Font struct {
	path, size value.Value
}

func (f *Font) TypeName() string { return "Font" }

func (f *Font) String() string {
	return fmt.Sprintf("<Font path=%s size=%s>", f.path.Format(), f.size.Format())
}

func (f *Font) GetAttr(name string) (value.Value, error) {
	switch name {
	case "path":
		return f.path, nil
	case "size":
		return f.size, nil
	case "render":
		return bridge.Method("render", f.render), nil
	}
	return value.None, noAttr(f.TypeName(), name)
}

func (f *Font) SetAttr(name string, v value.Value) error {
	return noAttr(f.TypeName(), name)
}

// render(text, antialias, color[, background]) -> Text
func (f *Font) render(recv value.Value, args []value.Value) (value.Value, error) {
	if err := bridge.CheckArgs("render", args, 3, 4); err != nil {
		return value.None, err
	}
	text, err := bridge.StringArg("render", args, 0)
	if err != nil {
		return value.None, err
	}
	return value.FromObject(&Text{
		box:        box{x: value.Int(0), y: value.Int(0), width: value.Undefined, height: value.Undefined},
		font:       f,
		text:       text,
		color:      args[2],
		background: bridge.Arg(args, 3, value.String(defaultBackground)),
	}), nil
}

// Text is a rendered string waiting to be blitted.
type Text struct {
	box
	font       *Font
	text       string
	color      value.Value
	background value.Value
}

func (t *Text) TypeName() string { return "Text" }

func (t *Text) String() string {
	return fmt.Sprintf("<Text x=%s y=%s text=%s>", t.x.Format(), t.y.Format(), t.text)
}

func (t *Text) GetAttr(name string) (value.Value, error) {
	if v, ok := t.get(name); ok {
		return v, nil
	}
	switch name {
	case "text":
		return value.String(t.text), nil
	case "get_rect":
		return bridge.Method(name, func(recv value.Value, args []value.Value) (value.Value, error) {
			return t.rect(), nil
		}), nil
	}
	return value.None, noAttr(t.TypeName(), name)
}

func (t *Text) SetAttr(name string, v value.Value) error {
	if err := t.set(name, v); err != nil {
		return noAttr(t.TypeName(), name)
	}
	return nil
}

// Rect is a live view of a drawable's geometry: assigning to it moves or
// resizes the drawable.
type Rect struct {
	target *box
}

func (r *Rect) TypeName() string { return "Rect" }

func (r *Rect) GetAttr(name string) (value.Value, error) {
	if v, ok := r.target.get(name); ok {
		return v, nil
	}
	if name == "topleft" {
		return value.FromList(value.NewList(r.target.x, r.target.y)), nil
	}
	return value.None, noAttr(r.TypeName(), name)
}

func (r *Rect) SetAttr(name string, v value.Value) error {
	if err := r.target.set(name, v); err != nil {
		if errors.Is(err, errUnknownGeometry) {
			return noAttr(r.TypeName(), name)
		}
		return err
	}
	return nil
}
