package device

import (
	"sync"

	"github.com/AnyUserName/img2ascii-cli/internal/errdefs"
)

// execute runs one dispatch to completion. Threadgroups run on their own
// goroutines, at most Lanes at a time across the whole device. A panic in
// a kernel is recovered and fails the dispatch.
func (d *Device) execute(ds dispatch) error {
	groupsX := (ds.grid.Width + ds.group.Width - 1) / ds.group.Width
	groupsY := (ds.grid.Height + ds.group.Height - 1) / ds.group.Height

	var (
		wg        sync.WaitGroup
		faultOnce sync.Once
		fault     error
	)
	for gy := 0; gy < groupsY; gy++ {
		for gx := 0; gx < groupsX; gx++ {
			d.lanes <- struct{}{} // acquire
			wg.Add(1)
			go func(gx, gy int) {
				defer wg.Done()
				defer func() { <-d.lanes }() // release
				defer func() {
					if r := recover(); r != nil {
						faultOnce.Do(func() {
							fault = errdefs.New(errdefs.CodeExecution,
								"kernel %s faulted in threadgroup (%d,%d): %v",
								ds.pipeline.kernel.Name(), gx, gy, r)
						})
					}
				}()
				runThreadgroup(ds, gx, gy)
			}(gx, gy)
		}
	}
	wg.Wait()
	return fault
}

func runThreadgroup(ds dispatch, gx, gy int) {
	x0 := gx * ds.group.Width
	y0 := gy * ds.group.Height
	x1 := min(x0+ds.group.Width, ds.grid.Width)
	y1 := min(y0+ds.group.Height, ds.grid.Height)

	k := ds.pipeline.kernel
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			k.Invoke(ds.tex, ds.out, x, y)
		}
	}
}
