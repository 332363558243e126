package engine

import (
	"context"

	"github.com/AnyUserName/img2ascii-cli/internal/pixel"
)

// ConvertAsync starts a conversion and returns a channel that receives
// exactly one Result.
func (e *Engine) ConvertAsync(grid *pixel.Grid) <-chan Result {
	ch := make(chan Result, 1)
	e.Convert(grid, func(r Result) { ch <- r })
	return ch
}

// ConvertSync converts grid and waits for the result. ctx only bounds the
// wait; an abandoned dispatch still runs to completion on the device.
func (e *Engine) ConvertSync(ctx context.Context, grid *pixel.Grid) (Result, error) {
	select {
	case r := <-e.ConvertAsync(grid):
		return r, r.Err
	case <-ctx.Done():
		return Result{Err: ctx.Err()}, ctx.Err()
	}
}
