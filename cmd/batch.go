package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/img2ascii-cli/internal/manifest"
	"github.com/AnyUserName/img2ascii-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	batchOutDir  string
	batchProfile string
	batchWorkers int
	batchFormats []string
	batchScale   float64
)

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Convert every image in a directory and write a manifest",
	Long: `Scans input directory for images (png, jpg, jpeg, gif, bmp, tiff, webp),
converts each one on a shared engine, writes the text in every requested
encoding and records the outputs in img2ascii.manifest.json.

Output filenames are content-addressed: <key>.<cols>x<rows>.<hash>.<ext>`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", "./img2ascii_out", "output directory")
	batchCmd.Flags().StringVarP(&batchProfile, "profile", "p", "", "conversion profile (default from IMG2ASCII_PROFILE or classic)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "images in flight (0 = IMG2ASCII_WORKERS or NumCPU)")
	batchCmd.Flags().StringSliceVarP(&batchFormats, "formats", "f", []string{"txt"}, "output encodings: txt, gz, zst")
	batchCmd.Flags().Float64VarP(&batchScale, "scale", "s", 0, "resize factor (0 = profile default)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(batchOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	prof := resolveProfile(batchProfile)
	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Workers
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (scale=%v, ramp=%q)", prof.Name, prof.Scale, prof.Ramp)

	src, err := prof.Source()
	if err != nil {
		return err
	}
	e, err := newEngine(src)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p := pipeline.New(pipeline.Config{
		InputDir:  absInput,
		OutputDir: absOutput,
		Profile:   prof,
		Scale:     batchScale,
		Formats:   batchFormats,
		Workers:   workers,
		Engine:    e,
		Logger:    logger,
	})
	m, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printBatchReport(m, time.Since(start))
	return nil
}

func printBatchReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║             img2ascii batch complete             ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Images:      %d\n", s.TotalRenderings)
	fmt.Printf("  Outputs:     %d\n", s.TotalOutputs)
	fmt.Printf("  Glyphs:      %d\n", s.TotalGlyphs)
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if b := m.BuildInfo; b != nil {
		fmt.Printf("  Device:      %s  (%d lanes, threadgroup %s, %d workers)\n",
			b.Device, b.Lanes, b.Threadgroup, b.Workers)
	}
	fmt.Println()

	// Top 10 largest renderings.
	if len(m.Renderings) > 0 {
		type item struct {
			key        string
			cols, rows int
		}
		var items []item
		for key, r := range m.Renderings {
			items = append(items, item{key, r.Columns, r.Rows})
		}
		sort.Slice(items, func(i, j int) bool {
			gi, gj := items[i].cols*items[i].rows, items[j].cols*items[j].rows
			if gi != gj {
				return gi > gj
			}
			return items[i].key < items[j].key
		})
		n := min(len(items), 10)
		fmt.Printf("  Top %d largest (columns × rows):\n", n)
		for _, it := range items[:n] {
			fmt.Printf("    %-40s %5d × %-5d\n", truncKey(it.key, 40), it.cols, it.rows)
		}
		fmt.Println()
	}

	fmt.Printf("  Formats:     %s\n", strings.Join(detectOutputFormats(m), ", "))
	fmt.Println()

	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

func detectOutputFormats(m *manifest.Manifest) []string {
	set := map[string]bool{}
	for _, r := range m.Renderings {
		for _, o := range r.Outputs {
			set[o.Format] = true
		}
	}
	var out []string
	for _, f := range []string{"txt", "gzip", "zstd"} {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit+3:]
}
