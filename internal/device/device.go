// Package device models a data-parallel compute device.
//
// A Device runs a Kernel once per position of a 2-D grid. The grid is cut
// into threadgroups; each threadgroup runs on its own goroutine and at
// most Limits.Lanes threadgroups of a device run at the same time. Work
// is recorded into a CommandBuffer through a ComputeEncoder and submitted
// with Commit, which returns immediately. Completion is signalled once per
// command buffer, after every threadgroup has finished.
//
// The model follows the usual GPU compute shape (device, pipeline,
// command queue, command buffer, encoder, dispatch) so callers size their
// dispatches the same way they would for a GPU.
package device

import (
	"fmt"
	"runtime"

	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
	"github.com/AnyUserName/img2ascii-cli/internal/pixel"
)

// Limits are the execution limits a device reports.
type Limits struct {
	ThreadExecutionWidth     int // preferred threadgroup width
	MaxThreadsPerThreadgroup int
	MaxTextureSize           int // per dimension
	MaxGridSize              int // per dimension
	Lanes                    int // threadgroups executing at once
}

// DefaultLimits returns the limits of the host device.
func DefaultLimits() Limits {
	return Limits{
		ThreadExecutionWidth:     32,
		MaxThreadsPerThreadgroup: 1024,
		MaxTextureSize:           16384,
		MaxGridSize:              16385, // texture width + terminator column
		Lanes:                    runtime.GOMAXPROCS(0),
	}
}

// Size is a 2-D extent.
type Size struct {
	Width, Height int
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Kernel is a program executed once per grid position.
type Kernel interface {
	Name() string
	Invoke(tex *Texture, out *Buffer, x, y int)
}

// Device is a compute device backed by goroutines.
type Device struct {
	name   string
	limits Limits
	lanes  chan struct{}
}

// NewHost returns a device that executes threadgroups on goroutines.
func NewHost(name string, limits Limits) *Device {
	d := &Device{name: name, limits: limits}
	if limits.Lanes > 0 {
		d.lanes = make(chan struct{}, limits.Lanes)
	}
	return d
}

func (d *Device) Name() string   { return d.name }
func (d *Device) Limits() Limits { return d.limits }

// Available reports whether the device can execute work.
func (d *Device) Available() bool { return d.limits.Lanes > 0 }

func (d *Device) String() string {
	l := d.limits
	return fmt.Sprintf("%s (lanes=%d, simd=%d, threadgroup<=%d, texture<=%d)",
		d.name, l.Lanes, l.ThreadExecutionWidth, l.MaxThreadsPerThreadgroup, l.MaxTextureSize)
}

// NewTexture uploads a grid into a device-readable texture of the same size.
func (d *Device) NewTexture(g *pixel.Grid) (*Texture, error) {
	if g == nil {
		return nil, errdefs.New(errdefs.CodeTextureUpload, "no pixel grid")
	}
	w, h := g.Width(), g.Height()
	if w <= 0 || h <= 0 {
		return nil, errdefs.New(errdefs.CodeTextureUpload, "empty grid %dx%d", w, h)
	}
	if limit := d.limits.MaxTextureSize; w > limit || h > limit {
		return nil, errdefs.New(errdefs.CodeTextureUpload,
			"grid %dx%d exceeds texture limit %d on %s", w, h, limit, d.name)
	}
	src := g.Pix()
	if len(src) != w*h*4 {
		return nil, errdefs.New(errdefs.CodeTextureUpload,
			"grid %dx%d has %d bytes, want %d", w, h, len(src), w*h*4)
	}
	pix := make([]uint8, len(src))
	copy(pix, src)
	return &Texture{width: w, height: h, pix: pix}, nil
}

// NewBuffer allocates a zeroed buffer of n bytes.
func (d *Device) NewBuffer(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, errdefs.New(errdefs.CodeBufferAlloc, "invalid buffer length %d", n)
	}
	return &Buffer{data: make([]byte, n)}, nil
}

// NewComputePipeline binds a kernel to the device.
func (d *Device) NewComputePipeline(k Kernel) (*Pipeline, error) {
	if k == nil {
		return nil, errdefs.New(errdefs.CodePipelineCreate, "no kernel")
	}
	l := d.limits
	if l.ThreadExecutionWidth <= 0 {
		return nil, errdefs.New(errdefs.CodePipelineCreate,
			"%s reports execution width %d", d.name, l.ThreadExecutionWidth)
	}
	if l.MaxThreadsPerThreadgroup < l.ThreadExecutionWidth {
		return nil, errdefs.New(errdefs.CodePipelineCreate,
			"%s: max threads per threadgroup %d below execution width %d",
			d.name, l.MaxThreadsPerThreadgroup, l.ThreadExecutionWidth)
	}
	return &Pipeline{device: d, kernel: k}, nil
}

// NewCommandQueue creates a submission queue on the device.
func (d *Device) NewCommandQueue(label string) (*CommandQueue, error) {
	if !d.Available() {
		return nil, errdefs.New(errdefs.CodeDeviceUnavailable, "%s has no execution lanes", d.name)
	}
	return &CommandQueue{device: d, label: label}, nil
}

// Pipeline is a kernel compiled for a device.
type Pipeline struct {
	device *Device
	kernel Kernel
}

func (p *Pipeline) Kernel() Kernel { return p.kernel }

// ThreadExecutionWidth is the preferred threadgroup width.
func (p *Pipeline) ThreadExecutionWidth() int { return p.device.limits.ThreadExecutionWidth }

// MaxTotalThreadsPerThreadgroup bounds threadgroup width × height.
func (p *Pipeline) MaxTotalThreadsPerThreadgroup() int {
	return p.device.limits.MaxThreadsPerThreadgroup
}

// Texture is a read-only 2-D image on the device.
type Texture struct {
	width, height int
	pix           []uint8
}

func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

// Read samples the texel at (x, y).
func (t *Texture) Read(x, y int) (r, g, b, a uint8) {
	off := (y*t.width + x) * 4
	p := t.pix[off : off+4 : off+4]
	return p[0], p[1], p[2], p[3]
}

// Buffer is a byte buffer written by kernels and read back by the host.
// Distinct offsets may be written concurrently.
type Buffer struct {
	data []byte
}

func (b *Buffer) Len() int { return len(b.data) }

// Store writes one byte.
func (b *Buffer) Store(off int, v byte) { b.data[off] = v }

// Contents returns the buffer memory. Read it only after the command
// buffer that writes it has completed.
func (b *Buffer) Contents() []byte { return b.data }
