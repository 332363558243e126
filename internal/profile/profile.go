package profile

import (
	"fmt"
	"os"
	"sort"

	"github.com/AnyUserName/img2ascii-cli/internal/kernel"
	"gopkg.in/yaml.v3"
)

// Profile defines conversion parameters for a kind of output.
type Profile struct {
	Name    string  `yaml:"name"`
	Ramp    string  `yaml:"ramp"`    // glyphs from darkest to brightest
	Weights string  `yaml:"weights"` // rec601, rec709 or average
	Invert  bool    `yaml:"invert"`  // for light text on a dark background
	Scale   float64 `yaml:"scale"`   // default resize factor
	Filter  string  `yaml:"filter"`  // resampling filter name
}

const Default = "classic"

// Built-in profiles.
var profiles = map[string]Profile{
	"classic": {
		Name:    "classic",
		Ramp:    kernel.DefaultRamp,
		Weights: "rec601",
		Scale:   0.25,
		Filter:  "lanczos",
	},
	"detailed": {
		Name:    "detailed",
		Ramp:    kernel.DetailedRamp,
		Weights: "rec709",
		Scale:   0.5,
		Filter:  "lanczos",
	},
	"terminal": {
		Name:    "terminal",
		Ramp:    kernel.DefaultRamp,
		Weights: "rec601",
		Invert:  true,
		Scale:   0.25,
		Filter:  "lanczos",
	},
	"minimal": {
		Name:    "minimal",
		Ramp:    "#+. ",
		Weights: "average",
		Scale:   0.1,
		Filter:  "box",
	},
}

// Get returns a built-in profile by name. Falls back to classic if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[Default]
	p.Name = name // preserve requested name
	return p
}

// Source returns the kernel source for p.
func (p Profile) Source() (kernel.Source, error) {
	w, err := kernel.ParseWeights(p.Weights)
	if err != nil {
		return kernel.Source{}, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return kernel.Source{
		Name:    p.Name,
		Ramp:    p.Ramp,
		Weights: w,
		Invert:  p.Invert,
	}, nil
}

// Set is the built-in profiles plus any loaded from files. Loaded
// profiles shadow built-ins of the same name.
type Set struct {
	custom map[string]Profile
}

// NewSet returns a set holding only the built-ins.
func NewSet() *Set {
	return &Set{custom: map[string]Profile{}}
}

type file struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadFile reads custom profiles from a YAML file of the form
//
//	profiles:
//	  - name: blocks
//	    ramp: "#=- "
//	    weights: rec709
//	    scale: 0.2
//
// Omitted fields are taken from the classic profile.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}

	s := NewSet()
	for i, p := range f.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profiles %s: entry %d has no name", path, i)
		}
		if _, dup := s.custom[p.Name]; dup {
			return nil, fmt.Errorf("profiles %s: duplicate profile %q", path, p.Name)
		}
		base := profiles[Default]
		if p.Ramp == "" {
			p.Ramp = base.Ramp
		}
		if p.Weights == "" {
			p.Weights = base.Weights
		}
		if p.Scale == 0 {
			p.Scale = base.Scale
		}
		if p.Filter == "" {
			p.Filter = base.Filter
		}
		if p.Scale < 0 {
			return nil, fmt.Errorf("profile %s: negative scale %v", p.Name, p.Scale)
		}
		src, err := p.Source()
		if err != nil {
			return nil, err
		}
		if _, err := kernel.Compile(src); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		s.custom[p.Name] = p
	}
	return s, nil
}

// Get looks name up among loaded profiles first, then the built-ins.
func (s *Set) Get(name string) Profile {
	if s != nil {
		if p, ok := s.custom[name]; ok {
			return p
		}
	}
	return Get(name)
}

// Names lists every profile name in the set, sorted.
func (s *Set) Names() []string {
	seen := map[string]bool{}
	for n := range profiles {
		seen[n] = true
	}
	if s != nil {
		for n := range s.custom {
			seen[n] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
