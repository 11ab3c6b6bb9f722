package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"strconv"
	"sync"

	"github.com/fogleman/gg"

	"localboard/internal/state"
)

// Surface is a local drawing surface. Operations are rasterised by gg straight
// into the backing image, which Fill then edits in place.
type Surface struct {
	mu  sync.Mutex
	img *image.RGBA
	dc  *gg.Context
}

func NewSurface(width, height int) *Surface {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return &Surface{img: img, dc: gg.NewContextForRGBA(img)}
}

func (s *Surface) Width() int  { return s.img.Bounds().Dx() }
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// ParseColor turns #rgb or #rrggbb into an opaque colour.
func ParseColor(hex string) (color.RGBA, error) {
	norm, ok := state.NormalizeColor(hex)
	if !ok {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(norm[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.SetRGBA(0, 0, 0, 0)
	s.dc.Clear()
}

// DrawSegment renders a live preview segment.
func (s *Surface) DrawSegment(seg state.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segment(seg.StartX, seg.StartY, seg.EndX, seg.EndY, seg.Color, seg.Width)
}

// DrawOperation renders one committed operation on top of what is there.
func (s *Surface) DrawOperation(op state.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draw(op)
}

// Replay clears the surface and draws ops in order.
func (s *Surface) Replay(ops []state.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.SetRGBA(0, 0, 0, 0)
	s.dc.Clear()
	for _, op := range ops {
		s.draw(op)
	}
}

func (s *Surface) draw(op state.Operation) {
	switch o := op.(type) {
	case state.Stroke:
		for i := 1; i < len(o.Points); i++ {
			p1, p2 := o.Points[i-1], o.Points[i]
			c := p2.Color
			if o.Tool == state.KindEraser {
				c = state.EraserColor
			}
			s.segment(p1.X, p1.Y, p2.X, p2.Y, c, p2.Width)
		}
	case state.Rect:
		s.outline(o.Color, o.StrokeWidth, o.LineStyle)
		s.dc.DrawRectangle(o.X, o.Y, o.Width, o.Height)
		s.dc.Stroke()
	case state.Circle:
		if o.Radius == 0 {
			return
		}
		s.outline(o.Color, o.StrokeWidth, o.LineStyle)
		s.dc.DrawCircle(o.X, o.Y, o.Radius)
		s.dc.Stroke()
	case state.Line:
		s.outline(o.Color, o.StrokeWidth, o.LineStyle)
		s.dc.SetLineCapRound()
		s.dc.DrawLine(o.StartX, o.StartY, o.EndX, o.EndY)
		s.dc.Stroke()
	case state.Fill:
		c, err := ParseColor(o.Color)
		if err != nil {
			log.Printf("[RASTER] Skipping fill: %v", err)
			return
		}
		Fill(s.img, int(math.Floor(o.X)), int(math.Floor(o.Y)), c)
	default:
		log.Printf("[RASTER] Cannot draw operation %T", op)
	}
}

func (s *Surface) outline(hex string, width float64, style state.LineStyle) {
	s.dc.SetHexColor(hex)
	s.dc.SetLineWidth(width)
	s.dc.SetLineCapButt()
	s.dc.SetLineJoinRound()
	s.dc.SetDash(style.Dashes()...)
}

func (s *Surface) segment(x1, y1, x2, y2 float64, hex string, width float64) {
	s.dc.SetHexColor(hex)
	s.dc.SetLineWidth(width)
	s.dc.SetLineCapRound()
	s.dc.SetLineJoinRound()
	s.dc.SetDash()
	s.dc.DrawLine(x1, y1, x2, y2)
	s.dc.Stroke()
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Composite returns a copy of the current pixels with top drawn over them.
// Neither surface is modified.
func (s *Surface) Composite(top *Surface) *image.RGBA {
	out := s.Snapshot()
	top.mu.Lock()
	defer top.mu.Unlock()
	draw.Draw(out, out.Bounds(), top.img, top.img.Bounds().Min, draw.Over)
	return out
}

// Restore overwrites the surface with img, which must have the same bounds.
func (s *Surface) Restore(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img.Bounds() != s.img.Bounds() {
		log.Printf("[RASTER] Restore ignored: bounds %v do not match %v", img.Bounds(), s.img.Bounds())
		return
	}
	copy(s.img.Pix, img.Pix)
}
