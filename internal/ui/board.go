package ui

import (
	"image"
	"log"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"localboard/internal/raster"
	"localboard/internal/state"
)

// Sender is the host connection as seen by the board.
type Sender interface {
	SendSegment(state.Segment) error
	Commit(state.Operation) error
	Undo() error
	Redo() error
	Clear() error
}

// BoardWidget shows the local surface and turns pointer gestures into
// operations. Drawing happens locally first; the host is told afterwards.
type BoardWidget struct {
	widget.BaseWidget

	surface *raster.Surface
	strokes *state.StrokeAccumulator

	mu     sync.Mutex
	sender Sender

	tool      state.Kind
	color     string
	width     float64
	lineStyle state.LineStyle

	// shape previews are drawn here and composited over surface, so host
	// events landing mid-gesture are never overwritten
	overlay *raster.Surface
	shaping bool
	start   fyne.Position

	statusBar *widget.Label
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

func NewBoardWidget(width, height int) *BoardWidget {
	b := &BoardWidget{
		surface:   raster.NewSurface(width, height),
		overlay:   raster.NewSurface(width, height),
		tool:      state.KindBrush,
		color:     "#000000",
		width:     5,
		lineStyle: state.LineSolid,
		statusBar: widget.NewLabel("Not connected"),
	}
	b.strokes = state.NewStrokeAccumulator(state.StrokeFuncs{
		Segment: func(seg state.Segment) {
			b.surface.DrawSegment(seg)
			b.Refresh()
			b.send(func(s Sender) error { return s.SendSegment(seg) })
		},
		Commit: b.commit,
	})
	b.ExtendBaseWidget(b)
	return b
}

// Surface is what a Reconciler should draw host events onto.
func (b *BoardWidget) Surface() *raster.Surface { return b.surface }

// Attach sets the host connection. Until then gestures only draw locally.
func (b *BoardWidget) Attach(s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = s
}

// Changed is called from the network goroutine after the surface changed.
func (b *BoardWidget) Changed() {
	fyne.Do(b.Refresh)
}

func (b *BoardWidget) SetStatus(text string) {
	fyne.Do(func() { b.statusBar.SetText(text) })
}

func (b *BoardWidget) attached() Sender {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sender
}

func (b *BoardWidget) send(fn func(Sender) error) {
	s := b.attached()
	if s == nil {
		return
	}
	if err := fn(s); err != nil {
		log.Printf("[UI] Send failed: %v", err)
		b.SetStatus("Send failed: " + err.Error())
	}
}

func (b *BoardWidget) commit(op state.Operation) {
	b.surface.DrawOperation(op)
	b.Refresh()
	b.send(func(s Sender) error { return s.Commit(op) })
}

func (b *BoardWidget) Undo()  { b.send(Sender.Undo) }
func (b *BoardWidget) Redo()  { b.send(Sender.Redo) }
func (b *BoardWidget) Clear() { b.send(Sender.Clear) }

func (b *BoardWidget) SetTool(tool state.Kind) { b.tool = tool }
func (b *BoardWidget) SetColor(hex string)     { b.color = hex }
func (b *BoardWidget) SetStroke(w float64)     { b.width = w }
func (b *BoardWidget) SetLineStyle(s state.LineStyle) {
	b.lineStyle = s
}

// strokeColor is the colour the current tool paints with.
func (b *BoardWidget) strokeColor() string {
	if b.tool == state.KindEraser {
		return state.EraserColor
	}
	return b.color
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	// nothing drawn before the host connection exists could ever be shared
	if e.Button != desktop.MouseButtonPrimary || b.attached() == nil {
		return
	}
	x, y := float64(e.Position.X), float64(e.Position.Y)
	switch b.tool {
	case state.KindFill:
		b.commit(state.Fill{X: x, Y: y, Color: b.color})
	case state.KindBrush, state.KindEraser:
		b.strokes.Begin(b.tool, x, y, b.strokeColor(), b.width)
	default:
		b.shaping = true
		b.start = e.Position
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	switch {
	case b.strokes.Drawing():
		b.strokes.Move(float64(e.Position.X), float64(e.Position.Y), b.strokeColor(), b.width)
	case b.shaping:
		b.overlay.Clear()
		b.overlay.DrawOperation(b.shape(e.Position))
		b.Refresh()
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if b.strokes.Drawing() {
		b.strokes.End()
		return
	}
	if b.shaping {
		b.shaping = false
		b.overlay.Clear()
		b.commit(b.shape(e.Position))
	}
}

func (b *BoardWidget) DragEnd() {}

// shape builds the operation for the current shape tool dragged from the
// gesture start to end.
func (b *BoardWidget) shape(end fyne.Position) state.Operation {
	sx, sy := float64(b.start.X), float64(b.start.Y)
	ex, ey := float64(end.X), float64(end.Y)
	switch b.tool {
	case state.KindRect:
		return state.Rect{X: sx, Y: sy, Width: ex - sx, Height: ey - sy,
			Color: b.color, StrokeWidth: b.width, LineStyle: b.lineStyle}
	case state.KindCircle:
		return state.Circle{X: sx, Y: sy, Radius: math.Hypot(ex-sx, ey-sy),
			Color: b.color, StrokeWidth: b.width, LineStyle: b.lineStyle}
	default:
		return state.Line{StartX: sx, StartY: sy, EndX: ex, EndY: ey,
			Color: b.color, StrokeWidth: b.width, LineStyle: b.lineStyle}
	}
}

// frame is what the board shows: the surface with any shape preview on top.
func (b *BoardWidget) frame() *image.RGBA {
	return b.surface.Composite(b.overlay)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	img := canvas.NewImageFromImage(b.frame())
	img.FillMode = canvas.ImageFillOriginal
	img.ScaleMode = canvas.ImageScalePixels
	return &boardWidgetRenderer{board: b, image: img}
}

type boardWidgetRenderer struct {
	board *BoardWidget
	image *canvas.Image
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.image}
}

func (r *boardWidgetRenderer) Refresh() {
	r.image.Image = r.board.frame()
	r.image.Refresh()
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.image.Move(fyne.NewPos(0, 0))
	r.image.Resize(r.MinSize())
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(float32(r.board.surface.Width()), float32(r.board.surface.Height()))
}

func (r *boardWidgetRenderer) Destroy() {}
