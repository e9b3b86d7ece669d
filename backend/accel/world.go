// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package accel

import (
	"fmt"

	"code.hybscloud.com/bsp"
	"code.hybscloud.com/bsp/internal/deferred"
	"code.hybscloud.com/bsp/internal/registry"
)

// World is the accel backend's per-processor bsp.World. Field access
// mirrors backend/thread's World except for Sync's resolution phases,
// which issue asynchronous transfer tasks instead of resolving one
// operation at a time.
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

func (w *World) Barrier() {
	w.g.barrier.wait(w.rank)
}

func (w *World) Log(format string, args ...any) {
	w.g.pushLog(w.rank, fmt.Sprintf(format, args...))
}

func (w *World) Abort(reason string) {
	w.g.abort(w.rank, reason)
}

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
// the same as backend/thread — staging has to happen synchronously
// with the call so that two puts issued back to back in program order
// do not race each other on the same receive buffer. The transfer
// into the target's live image, the expensive part, is deferred to
// Sync and run as an asynchronous task there.
func (w *World) PutBytes(target, id, offset int, value []byte) {
	if s, ok := w.g.varSlot(id, target); ok {
		if !s.StagePut(offset, value) {
			w.Log("bsp: put out of bounds: target=%d id=%d offset=%d count=%d", target, id, offset, len(value))
			return
		}
	}
	w.buffers.Puts = append(w.buffers.Puts, deferred.PutOp{Target: target, ID: id, Offset: offset, Value: value})
}

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

func (w *World) SendBytes(target, id int, payload []byte) {
	if ib, ok := w.g.queueSlot(id, target); ok {
		ib.Push(payload)
	}
}

func (w *World) QueueMessages(id int) [][]byte {
	return w.snapshots[id]
}

// Sync is the superstep boundary. The barrier and phase order are the
// same as every other backend's; what differs is how each phase
// resolves its operations: every get (then every put) this superstep
// buffered is pushed as its own asynchronous task up front, and only
// once all of them are in flight does Sync wait for them together,
// the same push-now/wait-later shape the original's dma_task gives a
// burst of transfers queued on the engine one after another.
func (w *World) Sync() {
	if !w.g.barrier.wait(w.rank) {
		return
	}

	tasks := make([]*task, 0, len(w.buffers.Gets))
	for _, op := range w.buffers.Gets {
		op := op
		tasks = append(tasks, push(func() {
			b, _ := w.readRemote(op.Target, op.ID, op.Offset, op.Count)
			op.Dest.Resolve(b)
		}))
	}
	for _, t := range tasks {
		t.wait()
	}

	if !w.g.barrier.wait(w.rank) {
		return
	}

	tasks = tasks[:0]
	for _, op := range w.buffers.Puts {
		op := op
		tasks = append(tasks, push(func() {
			if s, ok := w.g.varSlot(op.ID, op.Target); ok {
				s.ApplyPut(op.Offset, len(op.Value))
			}
		}))
	}
	for _, t := range tasks {
		t.wait()
	}

	for _, id := range w.ownedQueues {
		if ib, ok := w.g.queueSlot(id, w.rank); ok {
			w.snapshots[id] = ib.Drain()
		}
	}

	if w.rank == 0 {
		w.g.flushLogs()
	}

	if !w.g.barrier.wait(w.rank) {
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
