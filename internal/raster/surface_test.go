package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localboard/internal/state"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#F0a")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x00, B: 0xaa, A: 0xff}, c)

	c, err = ParseColor("#102030")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, c)

	_, err = ParseColor("blue")
	assert.Error(t, err)
}

func TestFillOperationInsideRect(t *testing.T) {
	s := NewSurface(100, 100)
	s.DrawOperation(state.Rect{X: 10, Y: 10, Width: 50, Height: 50, Color: "#000000", StrokeWidth: 4, LineStyle: state.LineSolid})
	s.DrawOperation(state.Fill{X: 35.7, Y: 35.2, Color: "#ff0000"})

	img := s.Snapshot()
	assert.Equal(t, red, img.RGBAAt(35, 35))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(90, 90), "outside the rectangle stays transparent")
}

func TestFillOperationOutsideSurfaceIsNoop(t *testing.T) {
	s := NewSurface(10, 10)
	s.DrawOperation(state.Fill{X: 50, Y: 50, Color: "#ff0000"})
	assert.Equal(t, 0, count(s.Snapshot(), red))
}

func TestEraserPaintsWhite(t *testing.T) {
	s := NewSurface(40, 40)
	s.DrawOperation(state.Fill{X: 0, Y: 0, Color: "#000000"})
	s.DrawOperation(state.Stroke{Tool: state.KindEraser, Points: []state.StrokePoint{
		{X: 5, Y: 20, Color: "#123456", Width: 8},
		{X: 35, Y: 20, Color: "#123456", Width: 8},
	}})
	assert.Equal(t, white, s.Snapshot().RGBAAt(20, 20))
}

func TestReplayOrderMatters(t *testing.T) {
	s := NewSurface(20, 20)
	s.Replay([]state.Operation{
		state.Fill{X: 1, Y: 1, Color: "#ff0000"},
		state.Fill{X: 1, Y: 1, Color: "#000000"},
	})
	assert.Equal(t, 400, count(s.Snapshot(), black))

	s.Replay([]state.Operation{
		state.Fill{X: 1, Y: 1, Color: "#000000"},
		state.Fill{X: 1, Y: 1, Color: "#ff0000"},
	})
	assert.Equal(t, 400, count(s.Snapshot(), red))
}

func TestClearAndRestore(t *testing.T) {
	s := NewSurface(8, 8)
	s.DrawOperation(state.Fill{X: 0, Y: 0, Color: "#ff0000"})
	saved := s.Snapshot()

	s.Clear()
	assert.Equal(t, 64, count(s.Snapshot(), color.RGBA{}))

	s.Restore(saved)
	assert.Equal(t, 64, count(s.Snapshot(), red))
}

func TestRectWithNegativeExtent(t *testing.T) {
	backward := NewSurface(60, 60)
	backward.DrawOperation(state.Rect{X: 40, Y: 40, Width: -30, Height: -30, Color: "#ff0000", StrokeWidth: 2, LineStyle: state.LineSolid})

	img := backward.Snapshot()
	assert.Equal(t, red, img.RGBAAt(10, 30), "left edge")
	assert.Equal(t, red, img.RGBAAt(30, 10), "top edge")
	assert.Equal(t, red, img.RGBAAt(40, 25), "right edge")
	assert.Equal(t, color.RGBA{}, img.RGBAAt(25, 25), "inside stays empty")
}

func TestCompositeLeavesBaseUntouched(t *testing.T) {
	base := NewSurface(20, 20)
	preview := NewSurface(20, 20)
	preview.DrawOperation(state.Line{StartX: 0, StartY: 10, EndX: 20, EndY: 10, Color: "#000000", StrokeWidth: 4, LineStyle: state.LineSolid})

	// a host replay landing while the preview is up
	base.Replay([]state.Operation{state.Fill{X: 0, Y: 0, Color: "#00ff00"}})

	frame := base.Composite(preview)
	assert.Equal(t, black, frame.RGBAAt(10, 10), "preview on top")
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, frame.RGBAAt(0, 0), "replay underneath")
	assert.Equal(t, 400, count(base.Snapshot(), color.RGBA{G: 0xff, A: 0xff}), "base keeps only the replay")
}
