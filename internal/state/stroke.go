package state

// StrokeObserver receives what a StrokeAccumulator produces: a live Segment
// for every movement and one committed Operation per finished gesture.
type StrokeObserver interface {
	OnSegment(Segment)
	OnCommit(Operation)
}

// StrokeFuncs adapts a pair of functions to a StrokeObserver. Nil fields are
// skipped.
type StrokeFuncs struct {
	Segment func(Segment)
	Commit  func(Operation)
}

func (f StrokeFuncs) OnSegment(s Segment) {
	if f.Segment != nil {
		f.Segment(s)
	}
}

func (f StrokeFuncs) OnCommit(op Operation) {
	if f.Commit != nil {
		f.Commit(op)
	}
}

// StrokeAccumulator buffers an in-progress freehand gesture. It is owned by a
// single input goroutine and is not safe for concurrent use.
type StrokeAccumulator struct {
	observer StrokeObserver
	tool     Kind
	points   []StrokePoint
	active   bool
}

func NewStrokeAccumulator(observer StrokeObserver) *StrokeAccumulator {
	return &StrokeAccumulator{observer: observer}
}

// Begin starts a gesture at (x, y). tool is KindBrush or KindEraser.
func (a *StrokeAccumulator) Begin(tool Kind, x, y float64, color string, width float64) {
	a.tool = tool
	a.points = append(a.points[:0], StrokePoint{X: x, Y: y, Color: color, Width: width})
	a.active = true
}

// Move records a point with the colour and width in effect right now and
// emits the segment from the previous point.
func (a *StrokeAccumulator) Move(x, y float64, color string, width float64) {
	if !a.active {
		return
	}
	last := a.points[len(a.points)-1]
	a.points = append(a.points, StrokePoint{X: x, Y: y, Color: color, Width: width})
	a.observer.OnSegment(Segment{
		StartX: last.X, StartY: last.Y,
		EndX: x, EndY: y,
		Color: color, Width: width,
	})
}

// End finishes the gesture. A gesture with fewer than two points commits
// nothing. The buffer is reset either way.
func (a *StrokeAccumulator) End() {
	if !a.active {
		return
	}
	if len(a.points) >= 2 {
		points := make([]StrokePoint, len(a.points))
		copy(points, a.points)
		a.observer.OnCommit(Stroke{Tool: a.tool, Points: points})
	}
	a.points = a.points[:0]
	a.active = false
}

// Drawing reports whether a gesture is in progress.
func (a *StrokeAccumulator) Drawing() bool { return a.active }
