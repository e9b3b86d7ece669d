// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package thread implements the shared-memory bsp.World backend: every
// processor is a goroutine in the same address space, so Put and Send
// write straight into the destination's registry slot instead of going
// through a wire codec. This is the backend the original project calls
// bulk::thread, and the one this module treats as primary: it is the
// only backend with no serialization cost and the simplest barrier
// (see internal/gate), so it is where the superstep algorithm is
// exercised first and most thoroughly.
package thread

import (
	"fmt"

	"code.hybscloud.com/bsp"
	"code.hybscloud.com/bsp/internal/deferred"
	"code.hybscloud.com/bsp/internal/registry"
)

// World is the thread backend's per-processor bsp.World. Every field
// access below goes through the shared *group except buffers and
// snapshots, which are private to this rank's goroutine between Sync
// calls.
type World struct {
	g    *group
	rank int

	buffers deferred.Buffers

	ownedQueues []int
	snapshots   map[int][][]byte
}

var _ bsp.World = (*World)(nil)

func newWorld(g *group, rank int) *World {
	return &World{g: g, rank: rank, snapshots: make(map[int][][]byte)}
}

func (w *World) Rank() int             { return w.rank }
func (w *World) ActiveProcessors() int { return w.g.nproc }

// Barrier waits for every peer without resolving any buffered
// communication.
func (w *World) Barrier() {
	w.g.barrier.Wait()
}

// Log stages text for emission at the next Sync's log phase, tagged
// with this processor's rank.
func (w *World) Log(format string, args ...any) {
	w.g.pushLog(w.rank, fmt.Sprintf(format, args...))
}

// Abort marks the group as failed and releases every peer blocked in
// Barrier or Sync.
func (w *World) Abort(reason string) {
	w.g.abort(w.rank, reason)
}

// RegisterVariable and UnregisterVariable do not wait on other ranks:
// every rank must call them in the same relative order, and the
// registry table itself resolves the id (see internal/registry). The
// collective barrier lives in bsp.NewVar/NewCoarray/NewQueue, which
// call Barrier after registering.
func (w *World) RegisterVariable(size int) int {
	return w.g.vars.Register(w.rank, registry.NewImageSlot(size))
}

func (w *World) UnregisterVariable(id int) {
	w.g.vars.Unregister(id, w.rank)
}

func (w *World) SetLocal(id int, value []byte) {
	if s, ok := w.g.varSlot(id, w.rank); ok {
		s.SetLocal(value)
	}
}

func (w *World) LocalValue(id int) []byte {
	s, ok := w.g.varSlot(id, w.rank)
	if !ok {
		return nil
	}
	return s.LocalValue()
}

// PutBytes stages value into the target's receive buffer immediately,
// synchronously with this call (see registry.ImageSlot), and records
// the range so Sync's put-resolution phase knows what to copy into the
// target's live image.
func (w *World) PutBytes(target, id, offset int, value []byte) {
	if s, ok := w.g.varSlot(id, target); ok {
		if !s.StagePut(offset, value) {
			w.Log("bsp: put out of bounds: target=%d id=%d offset=%d count=%d", target, id, offset, len(value))
			return
		}
	}
	w.buffers.Puts = append(w.buffers.Puts, deferred.PutOp{Target: target, ID: id, Offset: offset, Value: value})
}

// GetBytes buffers a remote read; the returned future resolves during
// the next Sync's get-resolution phase, reading the target's
// pre-superstep image.
func (w *World) GetBytes(target, id, offset, count int) *bsp.FutureBytes {
	dest := &bsp.FutureBytes{}
	w.buffers.Gets = append(w.buffers.Gets, deferred.GetOp{Target: target, ID: id, Offset: offset, Count: count, Dest: dest})
	return dest
}

func (w *World) RegisterQueue() int {
	id := w.g.queues.Register(w.rank, registry.NewInbox())
	w.ownedQueues = append(w.ownedQueues, id)
	w.snapshots[id] = nil
	return id
}

func (w *World) UnregisterQueue(id int) {
	w.g.queues.Unregister(id, w.rank)
	delete(w.snapshots, id)
	for i, owned := range w.ownedQueues {
		if owned == id {
			w.ownedQueues = append(w.ownedQueues[:i], w.ownedQueues[i+1:]...)
			break
		}
	}
}

// SendBytes pushes payload into the target's raw inbox immediately.
// The message only becomes visible through QueueMessages once Sync
// drains that inbox into a stable per-superstep snapshot, so an
// immediate push here is observationally identical to a deferred one.
func (w *World) SendBytes(target, id int, payload []byte) {
	if ib, ok := w.g.queueSlot(id, target); ok {
		ib.Push(payload)
	}
}

func (w *World) QueueMessages(id int) [][]byte {
	return w.snapshots[id]
}

// Sync is the superstep boundary. See the package doc and the spec
// this backend implements for the algorithm; in short:
//
//	barrier                 -- S1
//	resolve GETs
//	barrier                 -- S2
//	resolve PUTs
//	drain owned inboxes into stable snapshots
//	(every send of this superstep landed in raw inboxes before S1)
//	rank 0 emits staged logs in rank order
//	barrier                 -- S3
//	reset this rank's deferred-operation buffers
func (w *World) Sync() {
	if !w.g.barrier.Wait() {
		return
	}

	for _, op := range w.buffers.Gets {
		b, _ := w.readRemote(op.Target, op.ID, op.Offset, op.Count)
		op.Dest.Resolve(b)
	}

	if !w.g.barrier.Wait() {
		return
	}

	for _, op := range w.buffers.Puts {
		if s, ok := w.g.varSlot(op.ID, op.Target); ok {
			s.ApplyPut(op.Offset, len(op.Value))
		}
	}

	for _, id := range w.ownedQueues {
		if ib, ok := w.g.queueSlot(id, w.rank); ok {
			w.snapshots[id] = ib.Drain()
		}
	}

	if w.rank == 0 {
		w.g.flushLogs()
	}

	if !w.g.barrier.Wait() {
		return
	}

	w.buffers.Reset()
}

func (w *World) readRemote(target, id, offset, count int) ([]byte, bool) {
	s, ok := w.g.varSlot(id, target)
	if !ok {
		return nil, false
	}
	return s.ReadRange(offset, count)
}
