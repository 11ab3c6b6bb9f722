package raster

import (
	"image"
	"image/color"
)

var neighbours = [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Fill recolours the 4-connected region of img containing (x, y) whose pixels
// exactly match the seed pixel, and returns how many pixels changed.
//
// The fill colour is always written fully opaque. Matching is exact on all four
// channels, so anti-aliased edges bound the region rather than join it. A seed
// outside img, or a seed already equal to the opaque fill colour, is a no-op.
//
// img is mutated in place and not retained after Fill returns.
func Fill(img *image.RGBA, x, y int, c color.RGBA) int {
	b := img.Bounds()
	seed := image.Pt(x, y)
	if !seed.In(b) {
		return 0
	}
	fill := color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	target := img.RGBAAt(x, y)
	if target == fill {
		return 0
	}

	w := b.Dx()
	index := func(p image.Point) int { return (p.Y-b.Min.Y)*w + (p.X - b.Min.X) }
	visited := make([]bool, w*b.Dy())

	queue := []image.Point{seed}
	visited[index(seed)] = true
	changed := 0
	for head := 0; head < len(queue); head++ {
		p := queue[head]
		if img.RGBAAt(p.X, p.Y) != target {
			continue
		}
		img.SetRGBA(p.X, p.Y, fill)
		changed++
		for _, d := range neighbours {
			n := p.Add(d)
			if !n.In(b) {
				continue
			}
			if i := index(n); !visited[i] {
				visited[i] = true
				queue = append(queue, n)
			}
		}
	}
	return changed
}
