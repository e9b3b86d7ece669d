// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package gate provides the generation-counter barrier used by the
// thread backend (the accel backend has its own flag barrier).
package gate

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Barrier is a reusable rendezvous point for a fixed number of
// goroutines, adapted from the original thread backend's
// condition-variable generation barrier: instead of a mutex and a
// condvar, waiters spin on a shared generation counter using the
// library's backoff primitive, matching how the rest of this package's
// concurrency is built on atomix/spin rather than sync.Cond.
type Barrier struct {
	threshold  int64
	count      atomix.Int64
	generation atomix.Uint64
	aborted    atomix.Bool
}

// NewBarrier returns a Barrier for exactly n participants.
func NewBarrier(n int) *Barrier {
	b := &Barrier{threshold: int64(n)}
	b.count.StoreRelaxed(int64(n))
	return b
}

// Wait blocks the calling goroutine until all n participants have
// called Wait, or until Abort is called by any of them. It returns
// false if the barrier was aborted.
func (b *Barrier) Wait() bool {
	gen := b.generation.LoadAcquire()
	if b.count.AddAcqRel(-1) == 0 {
		b.count.StoreRelease(b.threshold)
		b.generation.AddAcqRel(1)
		return !b.aborted.LoadAcquire()
	}
	sw := spin.Wait{}
	for b.generation.LoadAcquire() == gen {
		if b.aborted.LoadAcquire() {
			return false
		}
		sw.Once()
	}
	return !b.aborted.LoadAcquire()
}

// Abort unblocks every goroutine currently waiting, and every future
// Wait call, permanently. Used to propagate a fatal error across the
// whole processor group without deadlocking the rest.
func (b *Barrier) Abort() {
	b.aborted.StoreRelease(true)
	b.generation.AddAcqRel(1)
}
