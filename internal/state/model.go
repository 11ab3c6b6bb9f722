package state

// Kind is the wire tag of an Operation.
type Kind string

const (
	KindBrush  Kind = "brush"
	KindEraser Kind = "eraser"
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
	KindLine   Kind = "line"
	KindFill   Kind = "fill"
)

// EraserColor is what an eraser stroke paints with.
const EraserColor = "#ffffff"

type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dashed"
	LineDotted LineStyle = "dotted"
)

// Dashes returns the dash pattern for the style, nil for solid lines.
func (s LineStyle) Dashes() []float64 {
	switch s {
	case LineDashed:
		return []float64{10, 5}
	case LineDotted:
		return []float64{2, 4}
	}
	return nil
}

// Operation is one committed drawing action. The set of implementations is
// closed: Stroke, Rect, Circle, Line and Fill.
type Operation interface {
	Kind() Kind
	operation()
}

// StrokePoint is one sample of a freehand gesture. Each point carries the
// colour and width that were active when it was recorded.
type StrokePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

type Stroke struct {
	Tool   Kind // KindBrush or KindEraser
	Points []StrokePoint
}

type Rect struct {
	X, Y          float64
	Width, Height float64 // may be negative when dragged backwards
	Color         string
	StrokeWidth   float64
	LineStyle     LineStyle
}

type Circle struct {
	X, Y        float64
	Radius      float64
	Color       string
	StrokeWidth float64
	LineStyle   LineStyle
}

type Line struct {
	StartX, StartY float64
	EndX, EndY     float64
	Color          string
	StrokeWidth    float64
	LineStyle      LineStyle
}

type Fill struct {
	X, Y  float64
	Color string
}

func (s Stroke) Kind() Kind { return s.Tool }
func (Rect) Kind() Kind     { return KindRect }
func (Circle) Kind() Kind   { return KindCircle }
func (Line) Kind() Kind     { return KindLine }
func (Fill) Kind() Kind     { return KindFill }

func (Stroke) operation() {}
func (Rect) operation()   {}
func (Circle) operation() {}
func (Line) operation()   {}
func (Fill) operation()   {}

// Segment is an ephemeral point-to-point update used for live preview. It is
// never recorded in the log.
type Segment struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}
