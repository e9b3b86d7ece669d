// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package net

import "sync"

// coordinator is rank 0's barrier authority: every other rank joins by
// sending a wire.KindBarrierJoin envelope over its uplink, rank 0's own
// Barrier call joins in-process. This is the literal original
// thread-backend barrier (mutex, condition variable, generation
// counter — see backends/thread/barrier.hpp) rather than the spin-wait
// the thread package here uses: busy-waiting across a network round
// trip would waste far more than it saves, so the net backend keeps
// the original's own design as-is instead of the thread package's
// atomix/spin upgrade.
type coordinator struct {
	mu         sync.Mutex
	cond       *sync.Cond
	nproc      int
	count      int
	generation int
}

func newCoordinator(nproc int) *coordinator {
	c := &coordinator{nproc: nproc}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// join registers one participant reaching the barrier and reports
// whether this call completed the round — the caller is then
// responsible for notifying every remote rank via a
// wire.KindBarrierRelease envelope. It blocks the calling goroutine
// until the round completes, whoever completes it.
func (c *coordinator) join() (completedRound bool) {
	c.mu.Lock()
	gen := c.generation
	c.count++
	if c.count == c.nproc {
		c.count = 0
		c.generation++
		c.cond.Broadcast()
		c.mu.Unlock()
		return true
	}
	for c.generation == gen {
		c.cond.Wait()
	}
	c.mu.Unlock()
	return false
}

// forceRelease unblocks every local waiter immediately, used when the
// group aborts so rank 0's own Barrier call does not wait forever for
// a round that will never complete normally.
func (c *coordinator) forceRelease() {
	c.mu.Lock()
	c.count = 0
	c.generation++
	c.cond.Broadcast()
	c.mu.Unlock()
}
