// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package thread

import (
	"runtime"

	"code.hybscloud.com/bsp"
	"golang.org/x/sync/errgroup"
)

// AvailableProcessors returns the number of ranks this backend can run
// concurrently without oversubscribing the host, mirroring the
// original thread backend's use of std::thread::hardware_concurrency.
func AvailableProcessors() int {
	return runtime.NumCPU()
}

// Spawn starts nproc goroutines, each running fn with its own
// bsp.World, and returns once every one of them has returned. A
// ConfigurationError is returned immediately, before any goroutine
// starts, if nproc is out of range. If any peer calls World.Abort, the
// whole group unblocks and Spawn returns an *bsp.AbortError carrying
// that peer's rank and reason, after every goroutine has had a chance
// to return. Otherwise Spawn returns the first non-nil error any fn
// returned, in the order the ranks returned, whatever their rank.
//
// fn must not retain or use its World after returning.
func Spawn(nproc int, fn func(w bsp.World) error, opts ...*bsp.Options) error {
	if nproc <= 0 || nproc > AvailableProcessors() {
		return &bsp.ConfigurationError{Reason: "thread: processor count out of range"}
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
