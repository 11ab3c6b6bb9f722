package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ErrMalformedOperation is returned for payloads that are missing required
// fields or carry values of the wrong type or range for their tag.
var ErrMalformedOperation = errors.New("malformed operation")

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type wirePoint struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Color *string  `json:"color"`
	Width *float64 `json:"width"`
}

// wireOperation is the flat JSON shape shared by every tag.
type wireOperation struct {
	Type        Kind        `json:"type"`
	Points      []wirePoint `json:"points,omitempty"`
	X           *float64    `json:"x,omitempty"`
	Y           *float64    `json:"y,omitempty"`
	Width       *float64    `json:"width,omitempty"`
	Height      *float64    `json:"height,omitempty"`
	Radius      *float64    `json:"radius,omitempty"`
	StartX      *float64    `json:"startX,omitempty"`
	StartY      *float64    `json:"startY,omitempty"`
	EndX        *float64    `json:"endX,omitempty"`
	EndY        *float64    `json:"endY,omitempty"`
	Color       *string     `json:"color,omitempty"`
	StrokeWidth *float64    `json:"strokeWidth,omitempty"`
	LineStyle   *string     `json:"lineStyle,omitempty"`
}

func malformed(kind Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedOperation, kind, fmt.Sprintf(format, args...))
}

// NormalizeColor accepts #rgb or #rrggbb and returns lowercase #rrggbb.
func NormalizeColor(s string) (string, bool) {
	if !hexColor.MatchString(s) {
		return "", false
	}
	s = strings.ToLower(s)
	if len(s) == 4 {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s, true
}

func number(kind Kind, name string, v *float64) (float64, error) {
	if v == nil {
		return 0, malformed(kind, "missing %s", name)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, malformed(kind, "%s is not finite", name)
	}
	return *v, nil
}

func positive(kind Kind, name string, v *float64) (float64, error) {
	n, err := number(kind, name, v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, malformed(kind, "%s must be positive", name)
	}
	return n, nil
}

func colorField(kind Kind, name string, v *string) (string, error) {
	if v == nil {
		return "", malformed(kind, "missing %s", name)
	}
	c, ok := NormalizeColor(*v)
	if !ok {
		return "", malformed(kind, "%s %q is not an RGB hex colour", name, *v)
	}
	return c, nil
}

func lineStyle(kind Kind, v *string) (LineStyle, error) {
	if v == nil || *v == "" {
		return LineSolid, nil
	}
	switch s := LineStyle(*v); s {
	case LineSolid, LineDashed, LineDotted:
		return s, nil
	}
	return "", malformed(kind, "unknown lineStyle %q", *v)
}

// shape reads the colour, width and style every outlined shape carries.
func shape(kind Kind, w *wireOperation) (string, float64, LineStyle, error) {
	c, err := colorField(kind, "color", w.Color)
	if err != nil {
		return "", 0, "", err
	}
	width, err := positive(kind, "strokeWidth", w.StrokeWidth)
	if err != nil {
		return "", 0, "", err
	}
	style, err := lineStyle(kind, w.LineStyle)
	if err != nil {
		return "", 0, "", err
	}
	return c, width, style, nil
}

// DecodeOperation validates a wire payload and returns the normalised
// Operation. Every failure wraps ErrMalformedOperation.
func DecodeOperation(data []byte) (Operation, error) {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOperation, err)
	}
	return w.operation()
}

func (w *wireOperation) operation() (Operation, error) {
	var err error
	switch w.Type {
	case KindBrush, KindEraser:
		if len(w.Points) < 2 {
			return nil, malformed(w.Type, "needs at least 2 points, got %d", len(w.Points))
		}
		s := Stroke{Tool: w.Type, Points: make([]StrokePoint, len(w.Points))}
		for i, p := range w.Points {
			field := func(name string) string { return fmt.Sprintf("points[%d].%s", i, name) }
			pt := &s.Points[i]
			if pt.X, err = number(w.Type, field("x"), p.X); err != nil {
				return nil, err
			}
			if pt.Y, err = number(w.Type, field("y"), p.Y); err != nil {
				return nil, err
			}
			if pt.Color, err = colorField(w.Type, field("color"), p.Color); err != nil {
				return nil, err
			}
			if pt.Width, err = positive(w.Type, field("width"), p.Width); err != nil {
				return nil, err
			}
		}
		return s, nil

	case KindRect:
		var r Rect
		if r.X, err = number(w.Type, "x", w.X); err != nil {
			return nil, err
		}
		if r.Y, err = number(w.Type, "y", w.Y); err != nil {
			return nil, err
		}
		if r.Width, err = number(w.Type, "width", w.Width); err != nil {
			return nil, err
		}
		if r.Height, err = number(w.Type, "height", w.Height); err != nil {
			return nil, err
		}
		if r.Color, r.StrokeWidth, r.LineStyle, err = shape(w.Type, w); err != nil {
			return nil, err
		}
		return r, nil

	case KindCircle:
		var c Circle
		if c.X, err = number(w.Type, "x", w.X); err != nil {
			return nil, err
		}
		if c.Y, err = number(w.Type, "y", w.Y); err != nil {
			return nil, err
		}
		if c.Radius, err = number(w.Type, "radius", w.Radius); err != nil {
			return nil, err
		}
		if c.Radius < 0 {
			return nil, malformed(w.Type, "radius must not be negative")
		}
		if c.Color, c.StrokeWidth, c.LineStyle, err = shape(w.Type, w); err != nil {
			return nil, err
		}
		return c, nil

	case KindLine:
		var l Line
		if l.StartX, err = number(w.Type, "startX", w.StartX); err != nil {
			return nil, err
		}
		if l.StartY, err = number(w.Type, "startY", w.StartY); err != nil {
			return nil, err
		}
		if l.EndX, err = number(w.Type, "endX", w.EndX); err != nil {
			return nil, err
		}
		if l.EndY, err = number(w.Type, "endY", w.EndY); err != nil {
			return nil, err
		}
		if l.Color, l.StrokeWidth, l.LineStyle, err = shape(w.Type, w); err != nil {
			return nil, err
		}
		return l, nil

	case KindFill:
		var f Fill
		if f.X, err = number(w.Type, "x", w.X); err != nil {
			return nil, err
		}
		if f.Y, err = number(w.Type, "y", w.Y); err != nil {
			return nil, err
		}
		if f.Color, err = colorField(w.Type, "color", w.Color); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedOperation, w.Type)
}

func ptr[T any](v T) *T { return &v }

func wire(op Operation) (wireOperation, error) {
	switch o := op.(type) {
	case Stroke:
		w := wireOperation{Type: o.Tool, Points: make([]wirePoint, len(o.Points))}
		for i, p := range o.Points {
			w.Points[i] = wirePoint{X: ptr(p.X), Y: ptr(p.Y), Color: ptr(p.Color), Width: ptr(p.Width)}
		}
		return w, nil
	case Rect:
		return wireOperation{
			Type: KindRect, X: ptr(o.X), Y: ptr(o.Y), Width: ptr(o.Width), Height: ptr(o.Height),
			Color: ptr(o.Color), StrokeWidth: ptr(o.StrokeWidth), LineStyle: ptr(string(o.LineStyle)),
		}, nil
	case Circle:
		return wireOperation{
			Type: KindCircle, X: ptr(o.X), Y: ptr(o.Y), Radius: ptr(o.Radius),
			Color: ptr(o.Color), StrokeWidth: ptr(o.StrokeWidth), LineStyle: ptr(string(o.LineStyle)),
		}, nil
	case Line:
		return wireOperation{
			Type: KindLine, StartX: ptr(o.StartX), StartY: ptr(o.StartY), EndX: ptr(o.EndX), EndY: ptr(o.EndY),
			Color: ptr(o.Color), StrokeWidth: ptr(o.StrokeWidth), LineStyle: ptr(string(o.LineStyle)),
		}, nil
	case Fill:
		return wireOperation{Type: KindFill, X: ptr(o.X), Y: ptr(o.Y), Color: ptr(o.Color)}, nil
	}
	return wireOperation{}, fmt.Errorf("cannot encode operation %T", op)
}

// EncodeOperation returns the wire JSON for op.
func EncodeOperation(op Operation) ([]byte, error) {
	w, err := wire(op)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// EncodeOperations returns a JSON array of ops in order. A nil or empty
// sequence encodes as [].
func EncodeOperations(ops []Operation) ([]byte, error) {
	out := make([]wireOperation, 0, len(ops))
	for _, op := range ops {
		w, err := wire(op)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

// DecodeOperations decodes a JSON array of operations, failing on the first
// malformed entry.
func DecodeOperations(data []byte) ([]Operation, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOperation, err)
	}
	ops := make([]Operation, 0, len(raw))
	for i, r := range raw {
		op, err := DecodeOperation(r)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// DecodeSegment validates a live segment payload.
func DecodeSegment(data []byte) (Segment, error) {
	var w struct {
		StartX, StartY, EndX, EndY *float64
		Color                      *string
		Width                      *float64
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Segment{}, fmt.Errorf("%w: %v", ErrMalformedOperation, err)
	}
	const kind Kind = "segment"
	var (
		s   Segment
		err error
	)
	if s.StartX, err = number(kind, "startX", w.StartX); err != nil {
		return Segment{}, err
	}
	if s.StartY, err = number(kind, "startY", w.StartY); err != nil {
		return Segment{}, err
	}
	if s.EndX, err = number(kind, "endX", w.EndX); err != nil {
		return Segment{}, err
	}
	if s.EndY, err = number(kind, "endY", w.EndY); err != nil {
		return Segment{}, err
	}
	if s.Color, err = colorField(kind, "color", w.Color); err != nil {
		return Segment{}, err
	}
	if s.Width, err = positive(kind, "width", w.Width); err != nil {
		return Segment{}, err
	}
	return s, nil
}
