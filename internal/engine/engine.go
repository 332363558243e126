// Package engine converts pixel grids into text on a compute device.
//
// An Engine is built once (device discovery, kernel compilation, pipeline
// and queue creation) and shared by any number of concurrent conversions.
// Each conversion allocates its own texture and output buffer, dispatches
// one kernel invocation per output byte and reports its result
// asynchronously.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/AnyUserName/img2ascii-cli/internal/device"
	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
	"github.com/AnyUserName/img2ascii-cli/internal/kernel"
	"github.com/AnyUserName/img2ascii-cli/internal/pixel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configure Create.
type Options struct {
	Registry   *device.Registry // nil means device.DefaultRegistry()
	DeviceName string           // empty means first available
	Kernel     kernel.Source
	Logger     *zap.Logger // nil means no logging
}

// Result is the outcome of one conversion. Exactly one of Text and Err
// is meaningful: a failed conversion never carries partial text.
type Result struct {
	Text       string
	Err        error
	Columns    int
	Rows       int
	DispatchID string
	Elapsed    time.Duration
}

// Engine owns a device, a compiled pipeline and a command queue.
// It is safe for concurrent use.
type Engine struct {
	device   *device.Device
	program  *kernel.Program
	pipeline *device.Pipeline
	queue    *device.CommandQueue
	log      *zap.Logger

	closed    atomic.Bool
	closeOnce sync.Once
}

// Create acquires a device and builds the conversion pipeline.
// Failures are setup errors: no engine is returned.
func Create(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = device.DefaultRegistry()
	}

	dev, err := reg.Acquire(opts.DeviceName)
	if err != nil {
		return nil, err
	}
	prog, err := kernel.Compile(opts.Kernel)
	if err != nil {
		return nil, err
	}
	pipe, err := dev.NewComputePipeline(prog)
	if err != nil {
		return nil, err
	}
	queue, err := dev.NewCommandQueue("img2ascii")
	if err != nil {
		return nil, err
	}

	e := &Engine{
		device:   dev,
		program:  prog,
		pipeline: pipe,
		queue:    queue,
		log:      log.Named("engine"),
	}
	group, _ := e.Threadgroup()
	e.log.Debug("engine ready",
		zap.String("device", dev.Name()),
		zap.Int("lanes", dev.Limits().Lanes),
		zap.String("kernel", prog.Name()),
		zap.String("ramp", prog.Ramp()),
		zap.Stringer("threadgroup", group),
	)
	return e, nil
}

func (e *Engine) Device() *device.Device   { return e.device }
func (e *Engine) Program() *kernel.Program { return e.program }

// Threadgroup returns the dispatch threadgroup size: the pipeline's
// execution width by as many rows as the threadgroup limit allows.
func (e *Engine) Threadgroup() (device.Size, error) {
	w := e.pipeline.ThreadExecutionWidth()
	if w <= 0 {
		return device.Size{}, errdefs.New(errdefs.CodeDispatchSize, "execution width %d", w)
	}
	h := e.pipeline.MaxTotalThreadsPerThreadgroup() / w
	if h <= 0 {
		return device.Size{}, errdefs.New(errdefs.CodeDispatchSize,
			"threadgroup limit %d below execution width %d", e.pipeline.MaxTotalThreadsPerThreadgroup(), w)
	}
	return device.Size{Width: w, Height: h}, nil
}

// Convert starts converting grid and returns without waiting. onComplete
// is called exactly once, on another goroutine, with the text or the
// error. Overlapping calls run independently and complete in any order.
func (e *Engine) Convert(grid *pixel.Grid, onComplete func(Result)) {
	start := time.Now()
	res := Result{DispatchID: uuid.NewString()}
	if grid != nil {
		res.Columns, res.Rows = grid.Width(), grid.Height()
	}
	fail := func(err error) {
		res.Err = err
		res.Elapsed = time.Since(start)
		e.log.Warn("dispatch failed",
			zap.String("dispatch_id", res.DispatchID),
			zap.String("code", errdefs.CodeOf(err)),
			zap.Error(err),
		)
		go onComplete(res)
	}

	if e.closed.Load() {
		fail(errdefs.New(errdefs.CodeEngineClosed, "engine is closed"))
		return
	}

	tex, err := e.device.NewTexture(grid)
	if err != nil {
		fail(err)
		return
	}
	w, h := tex.Width(), tex.Height()
	out, err := e.device.NewBuffer(kernel.OutputLen(w, h))
	if err != nil {
		fail(err)
		return
	}
	cb, err := e.queue.CommandBuffer()
	if err != nil {
		fail(e.closedErr(err))
		return
	}
	enc, err := cb.ComputeEncoder()
	if err != nil {
		fail(err)
		return
	}
	enc.SetPipeline(e.pipeline)
	enc.SetTexture(tex)
	enc.SetBuffer(out)

	group, err := e.Threadgroup()
	if err != nil {
		fail(err)
		return
	}
	// One extra column: the invocations at x == w write the row terminators.
	grid2D := device.Size{Width: w + 1, Height: h}
	if err := enc.DispatchThreads(grid2D, group); err != nil {
		fail(err)
		return
	}
	enc.EndEncoding()

	cb.AddCompletedHandler(func(cb *device.CommandBuffer) {
		res.Elapsed = time.Since(start)
		if err := cb.Err(); err != nil {
			res.Err = err
			e.log.Warn("dispatch failed",
				zap.String("dispatch_id", res.DispatchID),
				zap.String("code", errdefs.CodeOf(err)),
				zap.Error(err),
			)
			onComplete(res)
			return
		}
		text, err := Decode(out.Contents(), w, h)
		if err != nil {
			res.Err = err
			onComplete(res)
			return
		}
		res.Text = text
		e.log.Debug("dispatch complete",
			zap.String("dispatch_id", res.DispatchID),
			zap.Stringer("grid", grid2D),
			zap.Stringer("threadgroup", group),
			zap.Duration("elapsed", res.Elapsed),
		)
		onComplete(res)
	})

	e.log.Debug("dispatch begin",
		zap.String("dispatch_id", res.DispatchID),
		zap.Int("columns", w),
		zap.Int("rows", h),
	)
	if err := cb.Commit(); err != nil {
		fail(e.closedErr(err))
	}
}

// closedErr reports a queue failure caused by a concurrent Close as
// ENGINE_CLOSED.
func (e *Engine) closedErr(err error) error {
	if e.closed.Load() || e.queue.Closed() {
		return errdefs.Wrap(errdefs.CodeEngineClosed, err, "engine is closed")
	}
	return err
}

// Close stops accepting conversions and waits for in-flight ones.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.queue.Close()
		e.log.Debug("engine closed")
	})
	return nil
}

// Decode turns a completed output buffer into text, checking the layout:
// rows of width glyphs, each followed by the row terminator.
func Decode(buf []byte, width, height int) (string, error) {
	if want := kernel.OutputLen(width, height); len(buf) != want {
		return "", errdefs.New(errdefs.CodeExecution,
			"output buffer has %d bytes, want %d", len(buf), want)
	}
	for y := 0; y < height; y++ {
		if b := buf[kernel.Offset(width, y, width)]; b != kernel.RowTerminator {
			return "", errdefs.New(errdefs.CodeExecution,
				"row %d terminator is 0x%02x", y, b)
		}
	}
	return string(buf), nil
}
