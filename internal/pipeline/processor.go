package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnyUserName/img2ascii-cli/internal/hasher"
	"github.com/AnyUserName/img2ascii-cli/internal/manifest"
	"github.com/AnyUserName/img2ascii-cli/internal/pixel"
	"github.com/AnyUserName/img2ascii-cli/internal/prepare"
)

// processResult holds the result of processing a single source image.
type processResult struct {
	key       string
	rendering manifest.Rendering
	err       error
}

// processImage handles a single source image: decode, resample, convert,
// encode and write.
func (p *Pipeline) processImage(ctx context.Context, src Source, formats []string) processResult {
	result := processResult{key: src.Key}
	cfg := p.cfg

	img, err := prepare.Open(src.AbsPath)
	if err != nil {
		result.err = fmt.Errorf("decode %s: %w", src.RelPath, err)
		return result
	}
	bounds := img.Bounds()

	grid, err := prepare.PrepareWith(img, cfg.Scale, p.filter)
	if err != nil {
		result.err = fmt.Errorf("prepare %s: %w", src.RelPath, err)
		return result
	}

	res, err := cfg.Engine.ConvertSync(ctx, grid)
	if err != nil {
		result.err = fmt.Errorf("convert %s: %w", src.RelPath, err)
		return result
	}
	text := []byte(res.Text)

	result.rendering = manifest.Rendering{
		Source: manifest.SourceInfo{
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
			Format:   src.Format,
			Size:     src.Size,
			HasAlpha: pixel.HasAlpha(img),
		},
		Scale:   cfg.Scale,
		Columns: res.Columns,
		Rows:    res.Rows,
	}

	keyDir := filepath.Dir(src.Key)
	if err := os.MkdirAll(filepath.Join(cfg.OutputDir, keyDir), 0o755); err != nil {
		result.err = fmt.Errorf("mkdir %s: %w", keyDir, err)
		return result
	}

	// All outputs of a rendering share the hash of its text.
	textHash := hasher.ContentHash(text, hasher.FileHashLen)

	for _, format := range formats {
		enc := p.registry.Get(format)
		if enc == nil {
			continue
		}
		data, err := enc.Encode(text)
		if err != nil {
			p.log.Sugar().Warnf("encode %s as %s: %v", src.Key, format, err)
			continue
		}

		// key.COLSxROWS.hash.ext
		fileName := fmt.Sprintf("%s.%dx%d.%s.%s",
			filepath.Base(src.Key), res.Columns, res.Rows, textHash, enc.Extension())
		relPath := filepath.ToSlash(filepath.Join(keyDir, fileName))

		outPath := filepath.Join(cfg.OutputDir, relPath)
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			result.err = fmt.Errorf("write %s: %w", relPath, err)
			return result
		}

		result.rendering.Outputs = append(result.rendering.Outputs, manifest.Output{
			Format: enc.Format(),
			Size:   int64(len(data)),
			Hash:   hasher.ContentHash(data, 16),
			Path:   relPath,
		})
	}
	if len(result.rendering.Outputs) == 0 {
		result.err = fmt.Errorf("%s: no output could be encoded", src.RelPath)
	}
	return result
}
