// Package kernel implements the per-pixel conversion kernel: luminance,
// glyph quantization and the output buffer layout.
//
// Output layout: a conversion of a W×H grid fills (W+1)*H bytes. Row y
// holds W glyph bytes at offsets y*(W+1)+x followed by RowTerminator at
// y*(W+1)+W. The dispatch grid is (W+1)×H so every byte, terminators
// included, has exactly one owning invocation.
package kernel

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/img2ascii-cli/internal/device"
	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
)

// RowTerminator ends every output row.
const RowTerminator byte = '\n'

// DefaultRamp is ordered from the lowest luminance to the highest: the
// densest glyph stands for black and a space for white, which reads as
// dark text on a light page.
const DefaultRamp = "@%#*+=-:. "

// DetailedRamp is a 70-glyph ramp, same ordering as DefaultRamp.
const DetailedRamp = "$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/\\|()1{}[]?-_+~<>i!lI;:,\"^`'. "

// MaxRampLen bounds the ramp to one glyph per luminance level.
const MaxRampLen = 256

// MaxWeight bounds each channel weight so the weighted sum of 8-bit
// samples fits in 32 bits.
const MaxWeight = 1 << 20

// Weights are per-channel luminance weights in units of 1/10000. Each
// must lie in [0, MaxWeight] and at least one must be positive.
type Weights struct {
	R, G, B int
}

// Standard weight sets.
var (
	Rec601  = Weights{R: 2990, G: 5870, B: 1140}
	Rec709  = Weights{R: 2126, G: 7152, B: 722}
	Average = Weights{R: 3334, G: 3333, B: 3333}
)

var namedWeights = map[string]Weights{
	"rec601":  Rec601,
	"rec709":  Rec709,
	"average": Average,
}

// ParseWeights resolves a weight set name. The empty name is Rec601.
func ParseWeights(name string) (Weights, error) {
	if name == "" {
		return Rec601, nil
	}
	w, ok := namedWeights[strings.ToLower(name)]
	if !ok {
		return Weights{}, fmt.Errorf("unknown luminance weights %q (want rec601, rec709 or average)", name)
	}
	return w, nil
}

func (w Weights) sum() int { return w.R + w.G + w.B }

func (w Weights) valid() bool {
	for _, c := range [3]int{w.R, w.G, w.B} {
		if c < 0 || c > MaxWeight {
			return false
		}
	}
	return w.sum() > 0
}

// Luminance returns the weighted brightness of an RGB sample, 0..255.
func (w Weights) Luminance(r, g, b uint8) uint8 {
	s := w.sum()
	return uint8((w.R*int(r) + w.G*int(g) + w.B*int(b) + s/2) / s)
}

// Source describes a kernel before compilation.
type Source struct {
	Name    string
	Ramp    string  // glyphs from lowest to highest luminance
	Weights Weights // zero value means Rec601
	Invert  bool    // reverse the ramp
}

// Program is a compiled kernel. It is immutable and safe for concurrent
// invocation.
type Program struct {
	name    string
	ramp    []byte
	weights Weights
	lut     [256]byte
}

var _ device.Kernel = (*Program)(nil)

// Compile validates src and builds the luminance lookup table.
func Compile(src Source) (*Program, error) {
	ramp := []byte(src.Ramp)
	if src.Ramp == "" {
		ramp = []byte(DefaultRamp)
	}
	if len(ramp) < 2 || len(ramp) > MaxRampLen {
		return nil, errdefs.New(errdefs.CodeKernelCompile,
			"ramp must have 2..%d glyphs, got %d", MaxRampLen, len(ramp))
	}
	var seen [256]bool
	for i, c := range ramp {
		if c < 0x20 || c > 0x7e {
			return nil, errdefs.New(errdefs.CodeKernelCompile,
				"ramp glyph %d (0x%02x) is not printable ASCII", i, c)
		}
		if seen[c] {
			return nil, errdefs.New(errdefs.CodeKernelCompile,
				"ramp glyph %q appears more than once", c)
		}
		seen[c] = true
	}

	w := src.Weights
	if w == (Weights{}) {
		w = Rec601
	}
	if !w.valid() {
		return nil, errdefs.New(errdefs.CodeKernelCompile, "invalid luminance weights %+v", w)
	}

	if src.Invert {
		for i, j := 0, len(ramp)-1; i < j; i, j = i+1, j-1 {
			ramp[i], ramp[j] = ramp[j], ramp[i]
		}
	}

	name := src.Name
	if name == "" {
		name = "image2ascii"
	}
	p := &Program{name: name, ramp: ramp, weights: w}
	n := len(ramp)
	for lum := 0; lum < 256; lum++ {
		p.lut[lum] = ramp[lum*n/256]
	}
	return p, nil
}

func (p *Program) Name() string { return p.name }

// Ramp returns the effective ramp, lowest luminance first.
func (p *Program) Ramp() string { return string(p.ramp) }

// Glyph maps a luminance to its glyph.
func (p *Program) Glyph(lum uint8) byte { return p.lut[lum] }

// Invoke runs the kernel for one grid position. Invocations at x == width
// write the row terminator; every other invocation samples the texture
// and writes one glyph. Each position touches only its own byte.
func (p *Program) Invoke(tex *device.Texture, out *device.Buffer, x, y int) {
	width := tex.Width()
	if x == width {
		out.Store(Offset(width, y, width), RowTerminator)
		return
	}
	r, g, b, _ := tex.Read(x, y)
	out.Store(Offset(x, y, width), p.lut[p.weights.Luminance(r, g, b)])
}

// Offset returns the output offset of grid position (x, y) for an image
// of the given width.
func Offset(x, y, width int) int {
	return y*(width+1) + x
}

// OutputLen returns the buffer size for a width × height conversion.
func OutputLen(width, height int) int {
	return (width + 1) * height
}
