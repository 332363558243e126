package pixel

import (
	"image"
	"math"
)

// ─── YCbCr → RGB lookup tables ───────────────────────────────
// Pre-computed at init. Avoids per-pixel floating point for JPEG sources.
var (
	ycbcrCrR [256]int32 // R = Y + ycbcrCrR[Cr]
	ycbcrCbG [256]int32 // G = Y - ycbcrCbG[Cb] - ycbcrCrG[Cr]
	ycbcrCrG [256]int32
	ycbcrCbB [256]int32 // B = Y + ycbcrCbB[Cb]
)

func init() {
	for i := 0; i < 256; i++ {
		v := float64(i) - 128.0
		ycbcrCrR[i] = int32(math.Round(1.40200 * v))
		ycbcrCbG[i] = int32(math.Round(0.34414 * v))
		ycbcrCrG[i] = int32(math.Round(0.71414 * v))
		ycbcrCbB[i] = int32(math.Round(1.77200 * v))
	}
}

// FromImage packs any image.Image into a Grid.
// NRGBA, RGBA, YCbCr and Gray sources take fast paths with no image.At
// calls; everything else goes through the colour model.
// Returns nil for an empty image.
func FromImage(img image.Image) *Grid {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	pix := make([]uint8, w*h*4)

	switch src := img.(type) {
	case *image.NRGBA:
		packNRGBA(src, bounds, w, h, pix)
	case *image.RGBA:
		packRGBA(src, bounds, w, h, pix)
	case *image.YCbCr:
		packYCbCr(src, bounds, w, h, pix)
	case *image.Gray:
		packGray(src, bounds, w, h, pix)
	default:
		packGeneric(img, bounds, pix)
	}
	return &Grid{width: w, height: h, pix: pix}
}

func packNRGBA(src *image.NRGBA, bounds image.Rectangle, w, h int, pix []uint8) {
	bY := bounds.Min.Y - src.Rect.Min.Y
	bX4 := (bounds.Min.X - src.Rect.Min.X) * 4
	for y := 0; y < h; y++ {
		off := (bY+y)*src.Stride + bX4
		copy(pix[y*w*4:(y+1)*w*4], src.Pix[off:off+w*4])
	}
}

// packRGBA un-premultiplies.
func packRGBA(src *image.RGBA, bounds image.Rectangle, w, h int, pix []uint8) {
	bY := bounds.Min.Y - src.Rect.Min.Y
	bX4 := (bounds.Min.X - src.Rect.Min.X) * 4
	di := 0
	for y := 0; y < h; y++ {
		off := (bY+y)*src.Stride + bX4
		for x := 0; x < w; x++ {
			a := uint32(src.Pix[off+3])
			switch a {
			case 0:
			case 255:
				pix[di] = src.Pix[off]
				pix[di+1] = src.Pix[off+1]
				pix[di+2] = src.Pix[off+2]
			default:
				pix[di] = uint8((uint32(src.Pix[off])*255 + a/2) / a)
				pix[di+1] = uint8((uint32(src.Pix[off+1])*255 + a/2) / a)
				pix[di+2] = uint8((uint32(src.Pix[off+2])*255 + a/2) / a)
			}
			pix[di+3] = uint8(a)
			off += 4
			di += 4
		}
	}
}

func packYCbCr(src *image.YCbCr, bounds image.Rectangle, w, h int, pix []uint8) {
	minX, minY := bounds.Min.X, bounds.Min.Y
	ryBase := minY - src.Rect.Min.Y
	rxBase := minX - src.Rect.Min.X
	di := 0
	for y := 0; y < h; y++ {
		yOff := (ryBase+y)*src.YStride + rxBase
		for x := 0; x < w; x++ {
			yv := int32(src.Y[yOff+x])
			ci := src.COffset(minX+x, minY+y)
			cr, cb := src.Cr[ci], src.Cb[ci]
			pix[di] = clampByte(yv + ycbcrCrR[cr])
			pix[di+1] = clampByte(yv - ycbcrCbG[cb] - ycbcrCrG[cr])
			pix[di+2] = clampByte(yv + ycbcrCbB[cb])
			pix[di+3] = 255
			di += 4
		}
	}
}

func packGray(src *image.Gray, bounds image.Rectangle, w, h int, pix []uint8) {
	bY := bounds.Min.Y - src.Rect.Min.Y
	bX := bounds.Min.X - src.Rect.Min.X
	di := 0
	for y := 0; y < h; y++ {
		off := (bY+y)*src.Stride + bX
		for x := 0; x < w; x++ {
			v := src.Pix[off]
			pix[di], pix[di+1], pix[di+2], pix[di+3] = v, v, v, 255
			off++
			di += 4
		}
	}
}

func packGeneric(img image.Image, bounds image.Rectangle, pix []uint8) {
	di := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a > 0 && a < 0xffff {
				r = r * 0xffff / a
				g = g * 0xffff / a
				b = b * 0xffff / a
			}
			pix[di] = uint8(r >> 8)
			pix[di+1] = uint8(g >> 8)
			pix[di+2] = uint8(b >> 8)
			pix[di+3] = uint8(a >> 8)
			di += 4
		}
	}
}

// HasAlpha reports whether any sample of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	switch src := img.(type) {
	case *image.NRGBA:
		for i := 3; i < len(src.Pix); i += 4 {
			if src.Pix[i] < 255 {
				return true
			}
		}
		return false
	case *image.RGBA:
		for i := 3; i < len(src.Pix); i += 4 {
			if src.Pix[i] < 255 {
				return true
			}
		}
		return false
	case *image.YCbCr, *image.Gray:
		return false
	default:
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				_, _, _, a := img.At(x, y).RGBA()
				if a < 0xffff {
					return true
				}
			}
		}
		return false
	}
}

func clampByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
