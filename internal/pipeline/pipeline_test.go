package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/img2ascii-cli/internal/encoder"
	"github.com/AnyUserName/img2ascii-cli/internal/engine"
	"github.com/AnyUserName/img2ascii-cli/internal/hasher"
	"github.com/AnyUserName/img2ascii-cli/internal/manifest"
	"github.com/AnyUserName/img2ascii-cli/internal/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / w)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Create(engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestScanImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "nested", "a.PNG"), 2, 2)
	writePNG(t, filepath.Join(dir, ".cache", "c.png"), 2, 2)
	writePNG(t, filepath.Join(dir, ".hidden.png"), 2, 2)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	sources, err := ScanImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("found %d sources: %+v", len(sources), sources)
	}
	if sources[0].Key != "b" || sources[1].Key != "nested/a" {
		t.Errorf("keys: %s, %s", sources[0].Key, sources[1].Key)
	}
	if sources[1].Format != "png" || sources[1].Size == 0 {
		t.Errorf("nested source: %+v", sources[1])
	}
}

func TestUniqueKeys(t *testing.T) {
	kept, dups := uniqueKeys([]Source{
		{Key: "a", RelPath: "a.jpg"},
		{Key: "a", RelPath: "a.png"},
		{Key: "b", RelPath: "b.png"},
	})
	if len(kept) != 2 || kept[0].RelPath != "a.jpg" || kept[1].RelPath != "b.png" {
		t.Errorf("kept: %+v", kept)
	}
	if len(dups) != 1 || dups[0].RelPath != "a.png" {
		t.Errorf("dups: %+v", dups)
	}
}

func TestRun_DuplicateKey(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"), 8, 8)
	f, err := os.Create(filepath.Join(in, "a.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, image.NewGray(image.Rect(0, 0, 6, 4)), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	p := New(Config{
		InputDir:  in,
		OutputDir: out,
		Profile:   profile.Get("classic"),
		Scale:     1,
		Engine:    newEngine(t),
		Logger:    zap.New(core),
	})
	m, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.Renderings) != 1 {
		t.Fatalf("renderings: %d", len(m.Renderings))
	}
	if r := m.Renderings["a"]; r.Source.Format != "jpeg" || r.Columns != 6 {
		t.Errorf("kept rendering: %+v", r)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 1 {
		t.Errorf("output files: %d, want 1", len(entries))
	}
	if n := logs.FilterMessage("skipping image with duplicate key").Len(); n != 1 {
		t.Errorf("duplicate warnings: %d", n)
	}
}

func TestRun(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(in, "wide.png"), 40, 10)
	writePNG(t, filepath.Join(in, "sub", "square.png"), 20, 20)
	os.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0o644)

	p := New(Config{
		InputDir:  in,
		OutputDir: out,
		Profile:   profile.Get("classic"),
		Scale:     0.5,
		Formats:   []string{"txt", "zst"},
		Workers:   2,
		Engine:    newEngine(t),
	})
	m, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(m.Renderings) != 2 {
		t.Fatalf("renderings: %d", len(m.Renderings))
	}
	wide := m.Renderings["wide"]
	if wide.Columns != 20 || wide.Rows != 5 || wide.Source.Width != 40 {
		t.Errorf("wide: %+v", wide)
	}
	if len(wide.Outputs) != 2 {
		t.Fatalf("wide outputs: %+v", wide.Outputs)
	}
	sq := m.Renderings["sub/square"]
	if !strings.HasPrefix(sq.Outputs[0].Path, "sub/square.10x10.") {
		t.Errorf("square path: %s", sq.Outputs[0].Path)
	}

	for _, o := range wide.Outputs {
		data, err := os.ReadFile(filepath.Join(out, o.Path))
		if err != nil {
			t.Fatalf("%s: %v", o.Path, err)
		}
		if int64(len(data)) != o.Size || hasher.ContentHash(data, 16) != o.Hash {
			t.Errorf("%s: size/hash mismatch", o.Path)
		}
		text, err := encoder.Decode(o.Format, data)
		if err != nil {
			t.Fatal(err)
		}
		if len(text) != 21*5 {
			t.Errorf("%s: text length %d", o.Path, len(text))
		}
	}

	if m.BuildInfo == nil || m.BuildInfo.Device != "host" || m.BuildInfo.Workers != 2 {
		t.Errorf("build info: %+v", m.BuildInfo)
	}
	if m.Stats.TotalGlyphs != 20*5+10*10 || m.Stats.TotalOutputs != 4 {
		t.Errorf("stats: %+v", m.Stats)
	}

	if err := manifest.WriteJSON(m, filepath.Join(out, manifest.FileName)); err != nil {
		t.Fatal(err)
	}
}

func TestRun_AllFailed(t *testing.T) {
	in := t.TempDir()
	os.WriteFile(filepath.Join(in, "a.png"), []byte("nope"), 0o644)

	p := New(Config{InputDir: in, OutputDir: t.TempDir(), Profile: profile.Get("classic"), Engine: newEngine(t)})
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("expected error when every image fails")
	}
}

func TestRun_NoImages(t *testing.T) {
	p := New(Config{InputDir: t.TempDir(), OutputDir: t.TempDir(), Profile: profile.Get("classic"), Engine: newEngine(t)})
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestRun_Cancelled(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"), 8, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(Config{InputDir: in, OutputDir: t.TempDir(), Profile: profile.Get("classic"), Engine: newEngine(t)})
	if _, err := p.Run(ctx); err == nil {
		t.Error("expected context error")
	}
}
