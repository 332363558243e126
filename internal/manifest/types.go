package manifest

// FileName is the manifest file written at the root of a batch output.
const FileName = "img2ascii.manifest.json"

// Manifest is the top-level output of a batch run.
type Manifest struct {
	Version     int                  `json:"version"`
	GeneratedAt string               `json:"generated_at"`
	Profile     string               `json:"profile"`
	BasePath    string               `json:"base_path"`
	BuildInfo   *BuildInfo           `json:"build_info,omitempty"`
	Renderings  map[string]Rendering `json:"renderings"`
	Stats       Stats                `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers     int    `json:"workers"`
	Device      string `json:"device"`
	Lanes       int    `json:"lanes"`
	Threadgroup string `json:"threadgroup"` // "WxH"
	Ramp        string `json:"ramp"`
}

// Rendering describes one source image and its text outputs.
type Rendering struct {
	Source  SourceInfo `json:"source"`
	Scale   float64    `json:"scale"`
	Columns int        `json:"columns"`
	Rows    int        `json:"rows"`
	Outputs []Output   `json:"outputs"`
}

// SourceInfo holds metadata about the source image.
type SourceInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
}

// Output is one encoded form of a rendering.
type Output struct {
	Format string `json:"format"` // "txt", "gzip", "zstd"
	Size   int64  `json:"size"`   // bytes on disk
	Hash   string `json:"hash"`   // first 16 hex chars of xxhash64
	Path   string `json:"path"`   // relative to base_path
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalRenderings  int   `json:"total_renderings"`
	TotalOutputs     int   `json:"total_outputs"`
	TotalGlyphs      int64 `json:"total_glyphs"` // columns*rows summed over renderings
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
