package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates an empty manifest with defaults.
func New(profileName string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		BasePath:    "./",
		Renderings:  make(map[string]Rendering),
	}
}

// ComputeStats recalculates aggregate statistics from renderings.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalRenderings = len(m.Renderings)
	for _, r := range m.Renderings {
		s.TotalInputBytes += r.Source.Size
		s.TotalOutputs += len(r.Outputs)
		s.TotalGlyphs += int64(r.Columns) * int64(r.Rows)
		for _, o := range r.Outputs {
			s.TotalOutputBytes += o.Size
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to a JSON file with stable ordering.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a manifest and checks its version.
func ReadJSON(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Version != SupportedManifestVersion {
		return &m, fmt.Errorf("unsupported manifest version %d (expected %d)", m.Version, SupportedManifestVersion)
	}
	return &m, nil
}
