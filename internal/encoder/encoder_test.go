package encoder

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

var sample = []byte(strings.Repeat("@@%%##**++==--::..  \n", 40))

func TestEncoders(t *testing.T) {
	r := NewRegistry()
	for _, format := range r.Available() {
		enc := r.Get(format)
		out, err := enc.Encode(sample)
		if err != nil {
			t.Fatalf("%s: encode: %v", format, err)
		}
		back, err := Decode(format, out)
		if err != nil {
			t.Fatalf("%s: decode: %v", format, err)
		}
		if !bytes.Equal(back, sample) {
			t.Errorf("%s: decoded text differs", format)
		}
		if format != "txt" && len(out) >= len(sample) {
			t.Errorf("%s: %d bytes did not compress below %d", format, len(out), len(sample))
		}
	}
}

func TestTextEncoderCopies(t *testing.T) {
	in := []byte("ab\n")
	out, _ := (&TextEncoder{}).Encode(in)
	in[0] = 'x'
	if string(out) != "ab\n" {
		t.Errorf("output aliases input: %q", out)
	}
}

func TestZstdConcurrent(t *testing.T) {
	enc := &ZstdEncoder{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := enc.Encode(sample)
			if err != nil {
				t.Error(err)
				return
			}
			back, err := Decode("zst", out)
			if err != nil || !bytes.Equal(back, sample) {
				t.Errorf("round trip failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestResolveFormats(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"txt"}, "txt"},
		{[]string{"gz", "ZST", "gzip"}, "gzip,zstd"},
		{[]string{"png"}, "txt"},
		{nil, "txt"},
	}
	for _, tt := range tests {
		if got := strings.Join(r.ResolveFormats(tt.in), ","); got != tt.want {
			t.Errorf("ResolveFormats(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRegistryString(t *testing.T) {
	if got := NewRegistry().String(); got != "encoders: txt, gzip, zstd" {
		t.Errorf("String() = %q", got)
	}
	if _, err := Decode("webp", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
