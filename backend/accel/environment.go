// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package accel

import (
	"code.hybscloud.com/bsp"
	"golang.org/x/sync/errgroup"
)

// AvailableProcessors returns a fixed ceiling well above any real
// manycore chip's core count, since this backend only ever simulates
// cores as goroutines rather than scheduling onto real silicon — the
// original epiphany backend was fixed at 16 cores per chip.
func AvailableProcessors() int {
	return 4096
}

// Spawn starts nproc goroutines simulating nproc manycore processors,
// each running fn with its own bsp.World, and returns once every one
// of them has returned. See the package doc for how this backend's
// barrier and Sync resolution differ from backend/thread's.
func Spawn(nproc int, fn func(w bsp.World) error, opts ...*bsp.Options) error {
	if nproc <= 0 || nproc > AvailableProcessors() {
		return &bsp.ConfigurationError{Reason: "accel: processor count out of range"}
	}

	var options bsp.Options
	if len(opts) > 0 && opts[0] != nil {
		options = *opts[0]
	}

	g := newGroup(nproc, options.LogSink)

	var eg errgroup.Group
	for rank := 0; rank < nproc; rank++ {
		rank := rank
		eg.Go(func() error {
			w := newWorld(g, rank)
			err := fn(w)
			if err != nil {
				g.releaseBarrier()
			}
			return err
		})
	}

	runErr := eg.Wait()
	g.flushLogs()

	if aborted, rank, reason := g.abortState(); aborted {
		return &bsp.AbortError{Rank: rank, Reason: reason}
	}
	return runErr
}
