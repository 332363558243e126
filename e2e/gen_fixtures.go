//go:build ignore

// gen_fixtures creates small test images for the batch smoke test.
// Usage: go run gen_fixtures.go <output_dir>
//
// Then: img2ascii batch <output_dir> --formats txt,zst && img2ascii validate img2ascii_out/img2ascii.manifest.json
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "shapes"), 0o755)

	write(filepath.Join(dir, "gradient.jpg"), gradient(320, 180), func(w io.Writer, m image.Image) error {
		return jpeg.Encode(w, m, &jpeg.Options{Quality: 90})
	})
	write(filepath.Join(dir, "shapes", "circle.png"), circle(160, 160), png.Encode)
	write(filepath.Join(dir, "shapes", "checker.gif"), checker(96, 64, 8), func(w io.Writer, m image.Image) error {
		return gif.Encode(w, m, nil)
	})
	write(filepath.Join(dir, "shapes", "rings.bmp"), rings(128, 128), bmp.Encode)
	write(filepath.Join(dir, "fade.tiff"), alphaFade(100, 50), func(w io.Writer, m image.Image) error {
		return tiff.Encode(w, m, nil)
	})

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 5 fixtures in %s\n", dir)
}

// gradient brightens left to right, so every glyph of the ramp shows up.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func circle(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	cx, cy, r := float64(w)/2, float64(h)/2, float64(min(w, h))/3
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if math.Hypot(float64(x)-cx, float64(y)-cy) <= r {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func checker(w, h, cell int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.Black, color.White})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetColorIndex(x, y, uint8((x/cell+y/cell)%2))
		}
	}
	return img
}

func rings(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x-w/2), float64(y-h/2))
			v := uint8(127 + 127*math.Sin(d/4))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

// alphaFade has constant colour and rising alpha; the output should be
// uniform because alpha does not affect luminance.
func alphaFade(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, G: 60, B: 30, A: uint8(x * 255 / w)})
		}
	}
	return img
}

func write(path string, img image.Image, encode func(io.Writer, image.Image) error) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		panic(err)
	}
}
