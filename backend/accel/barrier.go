// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package accel

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// flagBarrier is a group of nproc arrival flags, one per processor. A
// waiter bumps its own flag to the next round then spins polling every
// other processor's flag until all of them have reached that round.
//
// This is the original epiphany backend's sync_barrier_[NPROCS]: each
// core has its own flag, written only by that core and polled by
// everyone else, rather than backend/thread's single shared generation
// counter every processor contends on with one atomic decrement.
// Reasonable for a manycore simulation where nproc is small enough
// that an O(nproc) poll per waiter costs nothing next to real mesh
// latency would have.
type flagBarrier struct {
	flags   []atomix.Int64
	aborted atomix.Bool
}

func newFlagBarrier(n int) *flagBarrier {
	return &flagBarrier{flags: make([]atomix.Int64, n)}
}

// wait publishes pid's arrival for the next round and blocks until
// every processor's flag has reached it, or the barrier is aborted.
func (b *flagBarrier) wait(pid int) bool {
	round := b.flags[pid].LoadAcquire() + 1
	b.flags[pid].StoreRelease(round)

	sw := spin.Wait{}
	for i := range b.flags {
		for b.flags[i].LoadAcquire() < round {
			if b.aborted.LoadAcquire() {
				return false
			}
			sw.Once()
		}
	}
	return !b.aborted.LoadAcquire()
}

// abort releases every processor currently spinning in wait, without
// touching any flag — a stuck processor resumes the instant it next
// checks the aborted flag in its poll loop.
func (b *flagBarrier) abort() {
	b.aborted.StoreRelease(true)
}
