package device

import (
	"sync"

	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
)

// CommandQueue submits command buffers to a device. It is safe for
// concurrent use.
type CommandQueue struct {
	device *Device
	label  string

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func (q *CommandQueue) Device() *Device { return q.device }
func (q *CommandQueue) Label() string   { return q.label }

// CommandBuffer creates an empty command buffer.
func (q *CommandQueue) CommandBuffer() (*CommandBuffer, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, errdefs.New(errdefs.CodeCommandBuffer, "command queue %q is closed", q.label)
	}
	return &CommandBuffer{queue: q, done: make(chan struct{})}, nil
}

// Closed reports whether Close has been called.
func (q *CommandQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects new command buffers and waits for committed ones.
func (q *CommandQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.inflight.Wait()
}

func (q *CommandQueue) begin() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errdefs.New(errdefs.CodeCommandBuffer, "command queue %q is closed", q.label)
	}
	q.inflight.Add(1)
	return nil
}

// Status is the lifecycle state of a command buffer.
type Status int

const (
	StatusNotEnqueued Status = iota
	StatusCommitted
	StatusCompleted
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNotEnqueued:
		return "not-enqueued"
	case StatusCommitted:
		return "committed"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type dispatch struct {
	pipeline *Pipeline
	tex      *Texture
	out      *Buffer
	grid     Size
	group    Size
}

// CommandBuffer records dispatches and runs them after Commit.
type CommandBuffer struct {
	queue *CommandQueue
	done  chan struct{}

	mu         sync.Mutex
	status     Status
	err        error
	encoder    *ComputeEncoder
	dispatches []dispatch
	handlers   []func(*CommandBuffer)
}

// ComputeEncoder starts encoding compute work. A command buffer has at
// most one encoder.
func (cb *CommandBuffer) ComputeEncoder() (*ComputeEncoder, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status != StatusNotEnqueued {
		return nil, errdefs.New(errdefs.CodeCommandBuffer, "command buffer already %s", cb.status)
	}
	if cb.encoder != nil {
		return nil, errdefs.New(errdefs.CodeCommandBuffer, "command buffer already has an encoder")
	}
	cb.encoder = &ComputeEncoder{cb: cb}
	return cb.encoder, nil
}

// AddCompletedHandler registers fn to run once the buffer completes or
// fails. Handlers run on the completion goroutine, never on the caller's.
func (cb *CommandBuffer) AddCompletedHandler(fn func(*CommandBuffer)) {
	cb.mu.Lock()
	if cb.status == StatusCompleted || cb.status == StatusError {
		cb.mu.Unlock()
		go fn(cb)
		return
	}
	cb.handlers = append(cb.handlers, fn)
	cb.mu.Unlock()
}

// Commit submits the recorded work and returns without waiting for it.
func (cb *CommandBuffer) Commit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status != StatusNotEnqueued {
		return errdefs.New(errdefs.CodeCommandBuffer, "command buffer already %s", cb.status)
	}
	if cb.encoder != nil && !cb.encoder.ended {
		return errdefs.New(errdefs.CodeCommandBuffer, "compute encoder not ended")
	}
	if len(cb.dispatches) == 0 {
		return errdefs.New(errdefs.CodeCommandBuffer, "nothing encoded")
	}
	if err := cb.queue.begin(); err != nil {
		return err
	}
	cb.status = StatusCommitted
	go cb.run(cb.dispatches)
	return nil
}

// WaitUntilCompleted blocks until a committed buffer has finished.
// It returns immediately for a buffer that was never committed.
func (cb *CommandBuffer) WaitUntilCompleted() {
	cb.mu.Lock()
	st := cb.status
	cb.mu.Unlock()
	if st == StatusNotEnqueued {
		return
	}
	<-cb.done
}

func (cb *CommandBuffer) Status() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.status
}

// Err returns the execution error of a failed buffer.
func (cb *CommandBuffer) Err() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.err
}

func (cb *CommandBuffer) run(ds []dispatch) {
	defer cb.queue.inflight.Done()

	var err error
	for _, d := range ds {
		if err = cb.queue.device.execute(d); err != nil {
			break
		}
	}

	cb.mu.Lock()
	if err != nil {
		cb.status = StatusError
		cb.err = err
	} else {
		cb.status = StatusCompleted
	}
	handlers := cb.handlers
	cb.handlers = nil
	close(cb.done)
	cb.mu.Unlock()

	for _, fn := range handlers {
		fn(cb)
	}
}

// ComputeEncoder records compute dispatches into a command buffer.
type ComputeEncoder struct {
	cb       *CommandBuffer
	pipeline *Pipeline
	tex      *Texture
	out      *Buffer
	ended    bool
}

func (e *ComputeEncoder) SetPipeline(p *Pipeline) { e.pipeline = p }
func (e *ComputeEncoder) SetTexture(t *Texture)   { e.tex = t }
func (e *ComputeEncoder) SetBuffer(b *Buffer)     { e.out = b }

// DispatchThreads records one invocation per position of grid, in
// threadgroups of size group. Edge threadgroups are clipped to the grid.
func (e *ComputeEncoder) DispatchThreads(grid, group Size) error {
	if e.ended {
		return errdefs.New(errdefs.CodeCommandBuffer, "encoder already ended")
	}
	if e.pipeline == nil || e.tex == nil || e.out == nil {
		return errdefs.New(errdefs.CodeCommandBuffer, "dispatch needs a pipeline, a texture and a buffer")
	}
	if grid.Width <= 0 || grid.Height <= 0 {
		return errdefs.New(errdefs.CodeDispatchSize, "empty grid %s", grid)
	}
	if group.Width <= 0 || group.Height <= 0 {
		return errdefs.New(errdefs.CodeDispatchSize, "empty threadgroup %s", group)
	}
	if limit := e.pipeline.MaxTotalThreadsPerThreadgroup(); group.Width*group.Height > limit {
		return errdefs.New(errdefs.CodeDispatchSize,
			"threadgroup %s exceeds %d threads", group, limit)
	}
	if limit := e.pipeline.device.limits.MaxGridSize; grid.Width > limit || grid.Height > limit {
		return errdefs.New(errdefs.CodeDispatchSize, "grid %s exceeds %d per dimension", grid, limit)
	}

	e.cb.mu.Lock()
	e.cb.dispatches = append(e.cb.dispatches, dispatch{
		pipeline: e.pipeline,
		tex:      e.tex,
		out:      e.out,
		grid:     grid,
		group:    group,
	})
	e.cb.mu.Unlock()
	return nil
}

// EndEncoding closes the encoder. Commit requires it.
func (e *ComputeEncoder) EndEncoding() { e.ended = true }
