package encoder

// Encoder encodes rendered text to a specific output format.
type Encoder interface {
	// Format returns the output format name (e.g. "txt", "gzip", "zstd").
	Format() string

	// Encode converts the rendered text to bytes.
	Encode(text []byte) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	Available() bool

	// Extension returns the file extension without the leading dot.
	Extension() string
}

// TextEncoder writes the text unchanged.
type TextEncoder struct{}

func (e *TextEncoder) Format() string    { return "txt" }
func (e *TextEncoder) Extension() string { return "txt" }
func (e *TextEncoder) Available() bool   { return true }

func (e *TextEncoder) Encode(text []byte) ([]byte, error) {
	out := make([]byte, len(text))
	copy(out, text)
	return out, nil
}
