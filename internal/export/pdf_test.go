package export

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localboard/internal/state"
)

func TestPNGReplaysOperations(t *testing.T) {
	var buf bytes.Buffer
	ops := []state.Operation{state.Fill{X: 0, Y: 0, Color: "#00ff00"}}
	require.NoError(t, PNG(&buf, ops, 30, 20))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
	r, g, b, a := img.At(15, 10).RGBA()
	assert.Equal(t, color.RGBA64{G: 0xffff, A: 0xffff}, color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: uint16(a)})
}

func TestPDFHasHeader(t *testing.T) {
	var buf bytes.Buffer
	ops := []state.Operation{
		state.Rect{X: 10, Y: 10, Width: 50, Height: 50, Color: "#ff0000", StrokeWidth: 5, LineStyle: state.LineDashed},
	}
	require.NoError(t, PDF(&buf, ops, 200, 100))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFEmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, nil, 50, 50))
	assert.NotZero(t, buf.Len())
}
