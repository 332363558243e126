package kernel

import (
	"errors"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/AnyUserName/img2ascii-cli/internal/device"
	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
	"github.com/AnyUserName/img2ascii-cli/internal/pixel"
)

func TestCompile_Defaults(t *testing.T) {
	p, err := Compile(Source{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.Ramp() != DefaultRamp {
		t.Errorf("ramp: got %q", p.Ramp())
	}
	if p.Glyph(0) != DefaultRamp[0] {
		t.Errorf("black: got %q, want %q", p.Glyph(0), DefaultRamp[0])
	}
	if p.Glyph(255) != DefaultRamp[len(DefaultRamp)-1] {
		t.Errorf("white: got %q, want %q", p.Glyph(255), DefaultRamp[len(DefaultRamp)-1])
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{"single glyph", Source{Ramp: "#"}},
		{"duplicate glyph", Source{Ramp: "@@. "}},
		{"non-printable", Source{Ramp: "@\t "}},
		{"non-ascii", Source{Ramp: "█▓ "}},
		{"negative weight", Source{Weights: Weights{R: -1, G: 5000, B: 5000}}},
		{"oversized weight", Source{Weights: Weights{R: MaxWeight + 1, G: 1, B: 1}}},
		{"overflowing weight", Source{Weights: Weights{R: math.MaxInt / 2, G: 1, B: 1}}},
		{"too long", Source{Ramp: strings.Repeat("ab", 200)}},
	}
	for _, tt := range tests {
		_, err := Compile(tt.src)
		if !errors.Is(err, errdefs.ErrKernelCompile) {
			t.Errorf("%s: got %v, want kernel compile error", tt.name, err)
		}
		if errdefs.KindOf(err) != errdefs.KindSetup {
			t.Errorf("%s: kind %s", tt.name, errdefs.KindOf(err))
		}
	}
}

func TestCompile_Invert(t *testing.T) {
	p, err := Compile(Source{Ramp: "@. ", Invert: true})
	if err != nil {
		t.Fatal(err)
	}
	if p.Ramp() != " .@" {
		t.Errorf("ramp: got %q", p.Ramp())
	}
	if p.Glyph(0) != ' ' || p.Glyph(255) != '@' {
		t.Errorf("inverted ends: %q %q", p.Glyph(0), p.Glyph(255))
	}
}

func TestGlyphMonotonic(t *testing.T) {
	for _, ramp := range []string{DefaultRamp, DetailedRamp, "# "} {
		p, err := Compile(Source{Ramp: ramp})
		if err != nil {
			t.Fatalf("%q: %v", ramp, err)
		}
		prev := -1
		used := map[byte]bool{}
		for lum := 0; lum < 256; lum++ {
			g := p.Glyph(uint8(lum))
			idx := strings.IndexByte(ramp, g)
			if idx < 0 {
				t.Fatalf("%q: glyph %q not in ramp", ramp, g)
			}
			if idx < prev {
				t.Fatalf("%q: lum %d maps to index %d after %d", ramp, lum, idx, prev)
			}
			prev = idx
			used[g] = true
		}
		if len(used) != len(ramp) {
			t.Errorf("%q: %d of %d glyphs reachable", ramp, len(used), len(ramp))
		}
	}
}

func TestLuminance(t *testing.T) {
	for name, w := range map[string]Weights{"rec601": Rec601, "rec709": Rec709, "average": Average} {
		if got := w.Luminance(0, 0, 0); got != 0 {
			t.Errorf("%s black: %d", name, got)
		}
		if got := w.Luminance(255, 255, 255); got != 255 {
			t.Errorf("%s white: %d", name, got)
		}
		if got := w.Luminance(100, 100, 100); got != 100 {
			t.Errorf("%s gray: %d", name, got)
		}
	}
	if Rec601.Luminance(0, 255, 0) <= Rec601.Luminance(0, 0, 255) {
		t.Error("green should be brighter than blue")
	}
}

func TestLuminance_MaxWeights(t *testing.T) {
	w := Weights{R: MaxWeight, G: MaxWeight, B: MaxWeight}
	if _, err := Compile(Source{Weights: w}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := w.Luminance(255, 255, 255); got != 255 {
		t.Errorf("white: %d", got)
	}
	if got := w.Luminance(255, 0, 0); got != 85 {
		t.Errorf("red: %d, want 85", got)
	}
}

func TestParseWeights(t *testing.T) {
	if w, err := ParseWeights(""); err != nil || w != Rec601 {
		t.Errorf("empty: %v %v", w, err)
	}
	if w, err := ParseWeights("Rec709"); err != nil || w != Rec709 {
		t.Errorf("rec709: %v %v", w, err)
	}
	if _, err := ParseWeights("hsl"); err == nil {
		t.Error("expected error for unknown weights")
	}
}

func TestOffsetsAreUnique(t *testing.T) {
	for _, sz := range [][2]int{{1, 1}, {2, 2}, {7, 3}, {31, 17}} {
		w, h := sz[0], sz[1]
		seen := make([]bool, OutputLen(w, h))
		for y := 0; y < h; y++ {
			for x := 0; x <= w; x++ {
				off := Offset(x, y, w)
				if off < 0 || off >= len(seen) {
					t.Fatalf("%dx%d: offset %d of (%d,%d) out of range", w, h, off, x, y)
				}
				if seen[off] {
					t.Fatalf("%dx%d: offset %d aliased at (%d,%d)", w, h, off, x, y)
				}
				seen[off] = true
			}
		}
		for off, ok := range seen {
			if !ok {
				t.Fatalf("%dx%d: offset %d owned by no position", w, h, off)
			}
		}
	}
}

func TestInvoke(t *testing.T) {
	p, err := Compile(Source{})
	if err != nil {
		t.Fatal(err)
	}
	dev := device.NewHost("test", device.DefaultLimits())
	g, _ := pixel.Uniform(2, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	tex, err := dev.NewTexture(g)
	if err != nil {
		t.Fatal(err)
	}
	out, _ := dev.NewBuffer(OutputLen(2, 1))

	for x := 0; x <= 2; x++ {
		p.Invoke(tex, out, x, 0)
	}
	if got := string(out.Contents()); got != "  \n" {
		t.Errorf("output: %q", got)
	}
}
