// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpscRing is a fixed-capacity, lock-free ring buffer carrying queue
// message payloads from many concurrent senders to the one goroutine
// that drains a registered queue at Sync. Adapted directly into this
// package rather than kept as a standalone generic queue library: a
// registered queue's inbox only ever moves `[]byte` messages and is
// only ever drained by its owning processor, so this drops the
// multi-shape Producer/Consumer/Drainer interfaces and the capacity
// builder a general-purpose toolkit needs and keeps just the
// fetch-and-add claim/publish algorithm that shape requires.
//
// Producers claim a slot with an atomic fetch-and-add on tail (SCQ
// style), which is why the ring holds 2n physical slots for a
// requested capacity of n: a slot is only safe to reuse once the
// consumer has read the entry written 2n indices earlier.
type mpscRing struct {
	_    cacheLinePad
	head atomix.Uint64
	_    cacheLinePad
	tail atomix.Uint64
	_    cacheLinePad

	slots    []mpscSlot
	capacity uint64
	size     uint64
	mask     uint64
}

type mpscSlot struct {
	cycle atomix.Uint64
	data  []byte
}

// cacheLinePad separates hot fields that different goroutines write
// independently so they do not share a cache line.
type cacheLinePad [64]byte

// newMPSCRing returns a ring sized for at least capacity messages,
// rounded up to the next power of two.
func newMPSCRing(capacity int) *mpscRing {
	n := uint64(roundUpPow2(capacity))
	size := n * 2
	r := &mpscRing{
		slots:    make([]mpscSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		r.slots[i].cycle.StoreRelaxed(i / n)
	}
	return r
}

// tryPush claims the next slot and stores payload, reporting false if
// the ring is at capacity. Safe for any number of concurrent callers.
func (r *mpscRing) tryPush(payload []byte) bool {
	sw := spin.Wait{}
	for {
		tail := r.tail.LoadAcquire()
		head := r.head.LoadRelaxed()
		if tail >= head+r.capacity {
			return false
		}

		myTail := r.tail.AddAcqRel(1) - 1
		slot := &r.slots[myTail&r.mask]
		expectedCycle := myTail / r.capacity

		slotCycle := slot.cycle.LoadAcquire()
		if slotCycle == expectedCycle {
			slot.data = payload
			slot.cycle.StoreRelease(expectedCycle + 1)
			return true
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return false
		}
		sw.Once()
	}
}

// tryPop removes the oldest payload, reporting false if the ring is
// empty. Callable from one goroutine only — the processor that owns
// this inbox, draining it at Sync.
func (r *mpscRing) tryPop() ([]byte, bool) {
	head := r.head.LoadRelaxed()
	cycle := head / r.capacity
	slot := &r.slots[head&r.mask]

	slotCycle := slot.cycle.LoadAcquire()
	if slotCycle != cycle+1 {
		return nil, false
	}

	data := slot.data
	slot.data = nil
	slot.cycle.StoreRelease((head + r.size) / r.capacity)
	r.head.StoreRelaxed(head + 1)
	return data, true
}

func roundUpPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
