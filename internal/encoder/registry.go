package encoder

import (
	"fmt"
	"strings"
)

// priority is the order formats are listed and resolved in.
var priority = []string{"txt", "gzip", "zstd"}

var aliases = map[string]string{
	"text": "txt",
	"gz":   "gzip",
	"zst":  "zstd",
}

func canonical(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if a, ok := aliases[f]; ok {
		return a
	}
	return f
}

// Registry holds all available encoders.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}
	all := []Encoder{
		&TextEncoder{},
		&GzipEncoder{},
		&ZstdEncoder{},
	}
	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}
	return r
}

// Get returns an encoder for the given format or alias, or nil if
// unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[canonical(format)]
}

// Available returns all available format names.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range priority {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// ResolveFormats filters requested formats to the available ones, in
// request order without duplicates. Plain text is the fallback when
// nothing requested is available.
func (r *Registry) ResolveFormats(requested []string) []string {
	var resolved []string
	seen := map[string]bool{}
	for _, f := range requested {
		f = canonical(f)
		if _, ok := r.encoders[f]; ok && !seen[f] {
			resolved = append(resolved, f)
			seen[f] = true
		}
	}
	if len(resolved) == 0 && r.encoders["txt"] != nil {
		resolved = append(resolved, "txt")
	}
	return resolved
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
