package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"localboard/internal/raster"
	"localboard/internal/state"
)

// render replays ops on a fresh surface the size of the canvas.
func render(ops []state.Operation, width, height int) *raster.Surface {
	s := raster.NewSurface(width, height)
	s.Replay(ops)
	return s
}

// PNG writes the board produced by ops as a PNG image.
func PNG(w io.Writer, ops []state.Operation, width, height int) error {
	if err := png.Encode(w, render(ops, width, height).Snapshot()); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// PDF writes the board as a single-page PDF sized to the canvas, one point
// per pixel. Fills only exist as pixels, so the page embeds the rendered
// image rather than vector paths.
func PDF(w io.Writer, ops []state.Operation, width, height int) error {
	var img bytes.Buffer
	if err := PNG(&img, ops, width, height); err != nil {
		return err
	}

	wd, ht := float64(width), float64(height)
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	p.SetTitle("LocalBoard", true)
	p.SetCreator("localboard", true)
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("board", opt, &img)
	p.ImageOptions("board", 0, 0, wd, ht, false, opt, 0, "")
	p.SetFont("Helvetica", "", 8)
	p.SetTextColor(150, 150, 150)
	p.Text(4, ht-4, fmt.Sprintf("%d operations", len(ops)))

	if err := p.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
