package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/img2ascii-cli/internal/encoder"
	"github.com/AnyUserName/img2ascii-cli/internal/engine"
	"github.com/AnyUserName/img2ascii-cli/internal/hasher"
	"github.com/AnyUserName/img2ascii-cli/internal/manifest"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Validate a manifest and check every referenced output",
	Long: `Checks the manifest schema, then for every output: the file exists,
its size and xxhash match the manifest, and it decodes to text of the
recorded columns and rows.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var (
	okMark  = color.New(color.FgGreen).SprintFunc()
	badMark = color.New(color.FgRed).SprintFunc()
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	manifestPath := args[0]

	m, err := manifest.ReadJSON(manifestPath)
	if m == nil {
		return err
	}
	baseDir := filepath.Dir(manifestPath)
	errs := validateManifest(m, baseDir)

	if len(errs) == 0 {
		fmt.Printf("  %s Manifest is valid\n", okMark("✓"))
		fmt.Printf("  %s %d renderings, %d outputs, all files present and intact\n",
			okMark("✓"), m.Stats.TotalRenderings, m.Stats.TotalOutputs)
		return nil
	}

	fmt.Printf("  %s Manifest has %d error(s):\n", badMark("✗"), len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateManifest(m *manifest.Manifest, baseDir string) []string {
	var errs []string
	reg := encoder.NewRegistry()

	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	keys := make([]string, 0, len(m.Renderings))
	for k := range m.Renderings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seenPaths := map[string]bool{}
	for _, key := range keys {
		r := m.Renderings[key]
		if r.Source.Width <= 0 || r.Source.Height <= 0 {
			errs = append(errs, fmt.Sprintf("rendering %q: invalid source dimensions %dx%d",
				key, r.Source.Width, r.Source.Height))
		}
		if r.Columns <= 0 || r.Rows <= 0 {
			errs = append(errs, fmt.Sprintf("rendering %q: invalid size %dx%d", key, r.Columns, r.Rows))
		}
		if len(r.Outputs) == 0 {
			errs = append(errs, fmt.Sprintf("rendering %q: no outputs", key))
		}

		for i, o := range r.Outputs {
			where := fmt.Sprintf("rendering %q output[%d]", key, i)
			if reg.Get(o.Format) == nil {
				errs = append(errs, fmt.Sprintf("%s: unknown format %q", where, o.Format))
			}
			if o.Hash == "" {
				errs = append(errs, fmt.Sprintf("%s: missing hash", where))
			}
			if o.Path == "" {
				errs = append(errs, fmt.Sprintf("%s: missing path", where))
				continue
			}
			if seenPaths[o.Path] {
				errs = append(errs, fmt.Sprintf("%s: duplicate path %q", where, o.Path))
			}
			seenPaths[o.Path] = true

			fullPath := filepath.Join(baseDir, filepath.FromSlash(o.Path))
			hash, size, err := hasher.HashFile(fullPath, len(o.Hash))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: file not found: %s", where, o.Path))
				continue
			}
			if size != o.Size {
				errs = append(errs, fmt.Sprintf("%s: size mismatch: manifest=%d, disk=%d", where, o.Size, size))
			}
			if o.Hash != "" && hash != o.Hash {
				errs = append(errs, fmt.Sprintf("%s: hash mismatch: manifest=%s, disk=%s", where, o.Hash, hash))
				continue
			}
			if r.Columns > 0 && r.Rows > 0 && reg.Get(o.Format) != nil {
				if err := checkText(fullPath, o.Format, r.Columns, r.Rows); err != nil {
					errs = append(errs, fmt.Sprintf("%s: %v", where, err))
				}
			}
		}
	}

	// Verify stats consistency.
	want := *m
	want.ComputeStats()
	if m.Stats.TotalRenderings != want.Stats.TotalRenderings {
		errs = append(errs, fmt.Sprintf("stats.total_renderings mismatch: %d != %d",
			m.Stats.TotalRenderings, want.Stats.TotalRenderings))
	}
	if m.Stats.TotalOutputs != want.Stats.TotalOutputs {
		errs = append(errs, fmt.Sprintf("stats.total_outputs mismatch: %d != %d",
			m.Stats.TotalOutputs, want.Stats.TotalOutputs))
	}
	if m.Stats.TotalGlyphs != want.Stats.TotalGlyphs {
		errs = append(errs, fmt.Sprintf("stats.total_glyphs mismatch: %d != %d",
			m.Stats.TotalGlyphs, want.Stats.TotalGlyphs))
	}
	return errs
}

// checkText decodes an output and verifies its row layout.
func checkText(path, format string, cols, rows int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := encoder.Decode(format, data)
	if err != nil {
		return err
	}
	_, err = engine.Decode(text, cols, rows)
	return err
}
