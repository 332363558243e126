package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/AnyUserName/img2ascii-cli/internal/encoder"
	"github.com/AnyUserName/img2ascii-cli/internal/engine"
	"github.com/AnyUserName/img2ascii-cli/internal/manifest"
	"github.com/AnyUserName/img2ascii-cli/internal/prepare"
	"github.com/AnyUserName/img2ascii-cli/internal/profile"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Config holds all parameters for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Profile   profile.Profile
	Scale     float64  // overrides Profile.Scale when > 0
	Formats   []string // output formats; empty means txt
	Workers   int
	Engine    *engine.Engine // shared by all workers, not closed by Run
	Logger    *zap.Logger
}

// Pipeline converts every image under a directory.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
	filter   imaging.ResampleFilter
	log      *zap.Logger
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Scale <= 0 {
		cfg.Scale = cfg.Profile.Scale
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	filter, ok := prepare.Filters[cfg.Profile.Filter]
	if !ok {
		filter = prepare.DefaultFilter
	}
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.NewRegistry(),
		filter:   filter,
		log:      log.Named("pipeline"),
	}
}

// Run converts all images and returns the manifest. Images that fail are
// logged and left out; Run fails only if every image fails, the scan
// fails or ctx ends.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	if p.cfg.Engine == nil {
		return nil, fmt.Errorf("pipeline: no engine")
	}
	p.log.Debug("encoders", zap.String("available", p.registry.String()))

	sources, err := ScanImages(p.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	sources, dups := uniqueKeys(sources)
	for _, d := range dups {
		p.log.Warn("skipping image with duplicate key",
			zap.String("path", d.RelPath),
			zap.String("key", d.Key),
		)
	}
	p.log.Info("found images", zap.Int("count", len(sources)))

	formats := p.registry.ResolveFormats(p.cfg.Formats)

	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			if err := ctx.Err(); err != nil {
				results[idx] = processResult{key: s.Key, err: err}
				return
			}
			p.log.Debug("processing", zap.String("key", s.Key))
			results[idx] = p.processImage(ctx, s, formats)
			if results[idx].err == nil {
				p.log.Debug("done",
					zap.String("key", s.Key),
					zap.Int("outputs", len(results[idx].rendering.Outputs)),
				)
			}
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := manifest.New(p.cfg.Profile.Name)
	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
			p.log.Error("image failed", zap.String("key", r.key), zap.Error(r.err))
			continue
		}
		m.Renderings[r.key] = r.rendering
	}
	if failed > 0 {
		if failed == len(sources) {
			return nil, fmt.Errorf("all %d images failed to process", failed)
		}
		p.log.Warn("partial failure", zap.Int("failed", failed), zap.Int("total", len(sources)))
	}

	e := p.cfg.Engine
	info := &manifest.BuildInfo{
		Workers: p.cfg.Workers,
		Device:  e.Device().Name(),
		Lanes:   e.Device().Limits().Lanes,
		Ramp:    e.Program().Ramp(),
	}
	if g, err := e.Threadgroup(); err == nil {
		info.Threadgroup = g.String()
	}
	m.BuildInfo = info
	m.ComputeStats()
	return m, nil
}
