package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/img2ascii-cli/internal/device"
	"github.com/AnyUserName/img2ascii-cli/internal/engine"
	"github.com/AnyUserName/img2ascii-cli/internal/manifest"
	"github.com/AnyUserName/img2ascii-cli/internal/pipeline"
	"github.com/AnyUserName/img2ascii-cli/internal/profile"
)

func writeGray(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
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

// buildOutput runs a batch into a temp dir and returns the manifest path.
func buildOutput(t *testing.T) string {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	writeGray(t, filepath.Join(in, "white.png"), 12, 6, 255)
	writeGray(t, filepath.Join(in, "black.png"), 8, 8, 0)

	e, err := engine.Create(engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	m, err := pipeline.New(pipeline.Config{
		InputDir:  in,
		OutputDir: out,
		Profile:   profile.Get("classic"),
		Scale:     0.5,
		Formats:   []string{"txt", "gz", "zst"},
		Engine:    e,
	}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(out, manifest.FileName)
	if err := manifest.WriteJSON(m, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateManifest_Clean(t *testing.T) {
	path := buildOutput(t)
	m, err := manifest.ReadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if errs := validateManifest(m, filepath.Dir(path)); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateManifest_Tampered(t *testing.T) {
	path := buildOutput(t)
	m, err := manifest.ReadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Dir(path)

	white := m.Renderings["white"]
	var txt manifest.Output
	for _, o := range white.Outputs {
		if o.Format == "txt" {
			txt = o
		}
	}
	// Same size, different content.
	full := filepath.Join(base, txt.Path)
	data, _ := os.ReadFile(full)
	data[0] = '@'
	os.WriteFile(full, data, 0o644)

	// Missing file.
	black := m.Renderings["black"]
	os.Remove(filepath.Join(base, black.Outputs[0].Path))

	errs := validateManifest(m, base)
	joined := strings.Join(errs, "\n")
	if !strings.Contains(joined, "hash mismatch") {
		t.Errorf("tampered file not detected:\n%s", joined)
	}
	if !strings.Contains(joined, "file not found") {
		t.Errorf("missing file not detected:\n%s", joined)
	}
}

func TestValidateManifest_BadLayout(t *testing.T) {
	path := buildOutput(t)
	m, err := manifest.ReadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	r := m.Renderings["white"]
	r.Columns++
	m.Renderings["white"] = r
	m.ComputeStats()

	errs := validateManifest(m, filepath.Dir(path))
	if len(errs) == 0 {
		t.Error("wrong column count not detected")
	}
}

func TestOutputEncoder(t *testing.T) {
	tests := []struct {
		out, format, want string
		wantErr           bool
	}{
		{"", "", "txt", false},
		{"a.txt", "", "txt", false},
		{"a.txt.gz", "", "gzip", false},
		{"a.zst", "", "zstd", false},
		{"a.bin", "zst", "zstd", false},
		{"", "gz", "", true},
		{"a.txt", "webp", "", true},
	}
	for _, tt := range tests {
		enc, err := outputEncoder(tt.out, tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("outputEncoder(%q, %q): expected error", tt.out, tt.format)
			}
			continue
		}
		if err != nil || enc.Format() != tt.want {
			t.Errorf("outputEncoder(%q, %q) = %v, %v; want %s", tt.out, tt.format, enc, err, tt.want)
		}
	}
}

func TestThreadgroupOf(t *testing.T) {
	l := device.DefaultLimits()
	if got := threadgroupOf(l); got != "32x32" {
		t.Errorf("default threadgroup %s", got)
	}
	l.ThreadExecutionWidth = 0
	if got := threadgroupOf(l); got != "n/a" {
		t.Errorf("zero width: %s", got)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := 0; i < 8; i++ {
		img.SetNRGBA(i%4, i/4, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}
	src := filepath.Join(dir, "in.png")
	f, _ := os.Create(src)
	png.Encode(f, img)
	f.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"convert", src, "--scale", "1", "--env-file", ""})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "    \n    \n" {
		t.Errorf("convert output %q", got)
	}
}
