// Package prepare turns a source image into the pixel grid the
// conversion engine consumes.
package prepare

import (
	"image"
	"io"
	"math"
	"os"

	// Registered decoders. imaging.Decode goes through image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
	"github.com/AnyUserName/img2ascii-cli/internal/pixel"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxScale is the largest scale factor Prepare accepts.
const MaxScale = 8.0

// Filters maps filter names accepted by profiles and flags to resampling
// filters.
var Filters = map[string]imaging.ResampleFilter{
	"nearest":  imaging.NearestNeighbor,
	"linear":   imaging.Linear,
	"box":      imaging.Box,
	"catmull":  imaging.CatmullRom,
	"lanczos":  imaging.Lanczos,
	"gaussian": imaging.Gaussian,
}

// DefaultFilter is used by Prepare.
var DefaultFilter = imaging.Lanczos

// Prepare resizes img by scale and packs it into a grid, using DefaultFilter.
func Prepare(img image.Image, scale float64) (*pixel.Grid, error) {
	return PrepareWith(img, scale, DefaultFilter)
}

// PrepareWith is Prepare with an explicit resampling filter.
func PrepareWith(img image.Image, scale float64, filter imaging.ResampleFilter) (*pixel.Grid, error) {
	if img == nil {
		return nil, errdefs.New(errdefs.CodeImageDecode, "no image")
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, errdefs.New(errdefs.CodeImageDecode, "empty image %dx%d", srcW, srcH)
	}

	w, h, err := TargetSize(srcW, srcH, scale)
	if err != nil {
		return nil, err
	}

	var grid *pixel.Grid
	if w == srcW && h == srcH {
		grid = pixel.FromImage(img)
	} else {
		grid = pixel.FromImage(imaging.Resize(img, w, h, filter))
	}
	if grid == nil {
		return nil, errdefs.New(errdefs.CodeImageDecode, "resample %dx%d -> %dx%d produced no pixels",
			srcW, srcH, w, h)
	}
	return grid, nil
}

// TargetSize returns round(w*scale) × round(h*scale), each at least 1.
func TargetSize(w, h int, scale float64) (int, int, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 || scale > MaxScale {
		return 0, 0, errdefs.New(errdefs.CodeInvalidScale,
			"scale %v outside (0, %v]", scale, MaxScale)
	}
	tw := int(math.Round(float64(w) * scale))
	th := int(math.Round(float64(h) * scale))
	return max(tw, 1), max(th, 1), nil
}

// Decode reads an image, applying EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errdefs.Wrap(errdefs.CodeImageDecode, err, "decode image")
	}
	return img, nil
}

// Open decodes the image file at path.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.CodeImageDecode, err, "open %s", path)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errdefs.Wrap(errdefs.CodeImageDecode, err, "decode %s", path)
	}
	return img, nil
}
