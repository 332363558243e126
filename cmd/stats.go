package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/img2ascii-cli/internal/manifest"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a batch output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for manifest inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}
	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	if b := m.BuildInfo; b != nil {
		fmt.Printf("  Ramp:             %q\n", b.Ramp)
		fmt.Printf("  Device:           %s (%d lanes)\n", b.Device, b.Lanes)
		fmt.Printf("  Threadgroup:      %s\n", b.Threadgroup)
		fmt.Printf("  Workers:          %d\n", b.Workers)
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total images:     %d\n", s.TotalRenderings)
	fmt.Printf("  Total outputs:    %d\n", s.TotalOutputs)
	fmt.Printf("  Total glyphs:     %d\n", s.TotalGlyphs)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Println()

	// Per-format breakdown.
	type formatStat struct {
		count int
		bytes int64
	}
	formatStats := map[string]formatStat{}
	for _, r := range m.Renderings {
		for _, o := range r.Outputs {
			fs := formatStats[o.Format]
			fs.count++
			fs.bytes += o.Size
			formatStats[o.Format] = fs
		}
	}
	fmt.Println("  Format breakdown:")
	for _, f := range []string{"txt", "gzip", "zstd"} {
		if fs, ok := formatStats[f]; ok {
			fmt.Printf("    %-6s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
		}
	}
	if txt, ok := formatStats["txt"]; ok && txt.bytes > 0 {
		for _, f := range []string{"gzip", "zstd"} {
			if fs, ok := formatStats[f]; ok {
				fmt.Printf("    %-6s  %.1f%% of txt\n", f, float64(fs.bytes)/float64(txt.bytes)*100)
			}
		}
	}
	fmt.Println()

	// Per-width breakdown.
	widthStats := map[int]int{}
	for _, r := range m.Renderings {
		widthStats[r.Columns]++
	}
	var widths []int
	for w := range widthStats {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	fmt.Println("  Width breakdown:")
	for _, w := range widths {
		fmt.Printf("    %5d cols  %4d images\n", w, widthStats[w])
	}

	var warnings []string
	for key, r := range m.Renderings {
		if len(r.Outputs) == 0 {
			warnings = append(warnings, fmt.Sprintf("rendering %q has no outputs", key))
		}
		if r.Source.HasAlpha {
			warnings = append(warnings, fmt.Sprintf("rendering %q: source alpha was ignored", key))
		}
	}
	if len(warnings) > 0 {
		sort.Strings(warnings)
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}
