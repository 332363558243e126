package encoder

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// GzipEncoder compresses text with gzip. Level 0 means best compression.
type GzipEncoder struct {
	Level int
}

func (e *GzipEncoder) Format() string    { return "gzip" }
func (e *GzipEncoder) Extension() string { return "txt.gz" }
func (e *GzipEncoder) Available() bool   { return true }

func (e *GzipEncoder) Encode(text []byte) ([]byte, error) {
	level := e.Level
	if level == 0 {
		level = gzip.BestCompression
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if _, err := zw.Write(text); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}

// ZstdEncoder compresses text with zstd using pooled encoders.
type ZstdEncoder struct{}

func (e *ZstdEncoder) Format() string    { return "zstd" }
func (e *ZstdEncoder) Extension() string { return "txt.zst" }
func (e *ZstdEncoder) Available() bool   { return true }

func (e *ZstdEncoder) Encode(text []byte) ([]byte, error) {
	enc, ok := zstdEncPool.Get().(*zstd.Encoder)
	if !ok {
		return nil, fmt.Errorf("zstd: encoder unavailable")
	}
	out := enc.EncodeAll(text, nil)
	zstdEncPool.Put(enc)
	return out, nil
}

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithLowerEncoderMem(true),
		)
		if err != nil {
			return nil
		}
		return enc
	},
}

// Decode reverses the encoding named by format. validate uses it to
// check that an output still decodes to well-formed text.
func Decode(format string, data []byte) ([]byte, error) {
	switch canonical(format) {
	case "txt":
		return data, nil
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "zstd":
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
