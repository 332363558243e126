// Package pixel holds the immutable pixel grid handed from the image
// preparer to the conversion engine.
//
// A Grid stores 8-bit non-premultiplied RGBA samples, row-major, with a
// stride of exactly 4*Width bytes. Grids are built once and never
// mutated afterwards, so one grid may be read by many goroutines.
package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// Grid is a Width × Height array of NRGBA samples.
type Grid struct {
	width  int
	height int
	pix    []uint8
}

// New builds a grid from packed NRGBA samples. pix is copied.
func New(width, height int, pix []uint8) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("grid %dx%d needs %d bytes, got %d",
			width, height, width*height*4, len(pix))
	}
	cp := make([]uint8, len(pix))
	copy(cp, pix)
	return &Grid{width: width, height: height, pix: cp}, nil
}

// Uniform returns a grid filled with a single colour.
func Uniform(width, height int, c color.NRGBA) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
	return &Grid{width: width, height: height, pix: pix}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Pix returns the backing samples. Callers must not modify them.
func (g *Grid) Pix() []uint8 { return g.pix }

// At returns the sample at (x, y). It panics when out of range.
func (g *Grid) At(x, y int) color.NRGBA {
	off := (y*g.width + x) * 4
	p := g.pix[off : off+4 : off+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Bounds returns the grid rectangle anchored at the origin.
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.width, g.height)
}
