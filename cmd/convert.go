package cmd

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnyUserName/img2ascii-cli/internal/encoder"
	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
	"github.com/AnyUserName/img2ascii-cli/internal/prepare"
	"github.com/spf13/cobra"
)

var (
	convertScale        float64
	convertProfile      string
	convertRamp         string
	convertInvert       bool
	convertWeights      string
	convertFilter       string
	convertOut          string
	convertFormat       string
	convertAllowUpscale bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <image|->",
	Short: "Convert one image to text",
	Long: `Decodes an image (png, jpeg, gif, bmp, tiff, webp; "-" reads stdin),
resizes it by --scale and converts every pixel to one glyph of the ramp.
One pixel of the resized image becomes one character; each row ends
with a newline.

Without --out the text goes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.Float64VarP(&convertScale, "scale", "s", 0, "resize factor (0 = profile default)")
	f.StringVarP(&convertProfile, "profile", "p", "", "conversion profile (default from IMG2ASCII_PROFILE or classic)")
	f.StringVar(&convertRamp, "ramp", "", "glyphs from darkest to brightest (overrides profile)")
	f.BoolVar(&convertInvert, "invert", false, "reverse the ramp, for light text on dark backgrounds")
	f.StringVar(&convertWeights, "weights", "", "luminance weights: rec601, rec709, average")
	f.StringVar(&convertFilter, "filter", "", "resampling filter: "+strings.Join(filterNames(), ", "))
	f.StringVarP(&convertOut, "out", "o", "", "write to file instead of stdout")
	f.StringVar(&convertFormat, "format", "", "output encoding: txt, gz, zst (default from --out extension)")
	f.BoolVar(&convertAllowUpscale, "allow-upscale", false, "allow --scale above 1")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	prof := resolveProfile(convertProfile)
	if convertRamp != "" {
		prof.Ramp = convertRamp
	}
	if convertWeights != "" {
		prof.Weights = convertWeights
	}
	if convertFilter != "" {
		prof.Filter = convertFilter
	}
	prof.Invert = prof.Invert != convertInvert

	scale := convertScale
	if scale == 0 {
		scale = prof.Scale
	}
	if scale > 1 && !convertAllowUpscale {
		return errdefs.New(errdefs.CodeInvalidScale, "scale %v enlarges the image; pass --allow-upscale", scale)
	}
	filter, ok := prepare.Filters[prof.Filter]
	if !ok {
		return fmt.Errorf("unknown filter %q (want one of %s)", prof.Filter, strings.Join(filterNames(), ", "))
	}

	enc, err := outputEncoder(convertOut, convertFormat)
	if err != nil {
		return err
	}

	src, err := prof.Source()
	if err != nil {
		return err
	}

	img, err := openImage(args[0])
	if err != nil {
		return err
	}
	grid, err := prepare.PrepareWith(img, scale, filter)
	if err != nil {
		return err
	}
	logVerbose("prepared %s: %dx%d -> %dx%d (scale %v, profile %s)",
		args[0], img.Bounds().Dx(), img.Bounds().Dy(), grid.Width(), grid.Height(), scale, prof.Name)

	e, err := newEngine(src)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.ConvertSync(cmd.Context(), grid)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	logVerbose("dispatch %s: %dx%d glyphs in %s", res.DispatchID, res.Columns, res.Rows, res.Elapsed)

	if convertOut == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), res.Text)
		return err
	}
	data, err := enc.Encode([]byte(res.Text))
	if err != nil {
		return fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	if dir := filepath.Dir(convertOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(convertOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", convertOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "  wrote %s (%dx%d, %s, %s)\n",
		convertOut, res.Columns, res.Rows, enc.Format(), formatBytes(int64(len(data))))
	return nil
}

func openImage(path string) (image.Image, error) {
	if path == "-" {
		return prepare.Decode(os.Stdin)
	}
	return prepare.Open(path)
}

// outputEncoder picks the encoder from --format, else from the --out
// extension, else plain text.
func outputEncoder(out, format string) (encoder.Encoder, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(out)) {
		case ".gz":
			format = "gzip"
		case ".zst":
			format = "zstd"
		default:
			format = "txt"
		}
	}
	reg := encoder.NewRegistry()
	enc := reg.Get(format)
	if enc == nil {
		return nil, fmt.Errorf("unknown format %q (%s)", format, reg.String())
	}
	if out == "" && enc.Format() != "txt" {
		return nil, fmt.Errorf("format %s needs --out", enc.Format())
	}
	return enc, nil
}

func filterNames() []string {
	names := make([]string, 0, len(prepare.Filters))
	for n := range prepare.Filters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
