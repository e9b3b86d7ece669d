// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package net implements bsp.World over real TCP connections in a
// star topology centered on rank 0, the Go counterpart of the original
// project's MPI backend (backends/mpi/world.hpp): every processor has
// its own address space, and puts/gets/sends cross the wire as
// gob-encoded envelopes rather than touching a shared registry table.
// Rank 0 plays the role MPI's collective operations play in the
// original — it is both an ordinary peer and the relay/barrier
// coordinator for the other P-1 ranks, a deliberate simplification of
// MPI_Reduce_scatter's all-to-all exchange down to a single hub a Go
// program can set up with net.Dial instead of a process manager.
package net

import (
	"fmt"
	"sort"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/bsp"
	"code.hybscloud.com/bsp/internal/registry"
	"code.hybscloud.com/bsp/internal/wire"
)

type logEntry struct {
	rank int
	text string
}

type applyOp struct {
	id, offset, count int
}

// World is the net backend's per-processor bsp.World. Exactly one of
// links (rank 0) or uplink (every other rank) is populated.
type World struct {
	rank  int
	nproc int

	links  map[int]*link // rank 0 only: destination rank -> link
	uplink *link          // ranks > 0 only: link to rank 0
	coord  *coordinator   // rank 0 only

	localVars   *registry.Table
	localQueues *registry.Table

	pendingMu    sync.Mutex
	pending      map[int]*bsp.FutureBytes
	tokenCounter atomix.Uint64
	getWG        sync.WaitGroup

	applyMu      sync.Mutex
	pendingApply []applyOp

	ownedQueues []int
	snapshots   map[int][][]byte

	logMu   sync.Mutex
	logs    []logEntry
	logSink func(string)

	abortedCh   chan struct{}
	abortOnce   sync.Once
	abortMu     sync.Mutex
	abortRank   int
	abortReason string
	aborted     bool

	releaseCh chan struct{} // ranks > 0 only
}

var _ bsp.World = (*World)(nil)

func newWorld(rank, nproc int, logSink func(string)) *World {
	return &World{
		rank:        rank,
		nproc:       nproc,
		localVars:   registry.NewTable(1),
		localQueues: registry.NewTable(1),
		pending:     make(map[int]*bsp.FutureBytes),
		snapshots:   make(map[int][][]byte),
		logSink:     logSink,
		abortedCh:   make(chan struct{}),
		releaseCh:   make(chan struct{}, 1),
	}
}

func (w *World) Rank() int             { return w.rank }
func (w *World) ActiveProcessors() int { return w.nproc }

// Barrier blocks until every rank has called Barrier or Sync, or until
// the group aborts.
func (w *World) Barrier() {
	w.barrierWait()
}

func (w *World) barrierWait() bool {
	if w.rank == 0 {
		if w.coord.join() {
			w.broadcastRelease()
		}
	} else {
		w.uplink.send(wire.Envelope{Kind: wire.KindBarrierJoin, Src: w.rank})
		select {
		case <-w.releaseCh:
		case <-w.abortedCh:
		}
	}
	select {
	case <-w.abortedCh:
		return false
	default:
		return true
	}
}

func (w *World) broadcastRelease() {
	for _, l := range w.links {
		l.send(wire.Envelope{Kind: wire.KindBarrierRelease})
	}
}

// Log stages text for emission at the next Sync's log phase. Every
// rank routes its logs to rank 0, the same way the original project's
// Environment merges buffered log entries sorted by rank once the
// group has finished.
func (w *World) Log(format string, args ...any) {
	w.deliver(wire.Envelope{Kind: wire.KindLog, Src: w.rank, Dst: 0, Text: fmt.Sprintf(format, args...)})
}

func (w *World) pushLog(rank int, text string) {
	w.logMu.Lock()
	w.logs = append(w.logs, logEntry{rank: rank, text: text})
	w.logMu.Unlock()
}

func (w *World) flushLogs() {
	w.logMu.Lock()
	entries := w.logs
	w.logs = nil
	w.logMu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].rank < entries[j].rank })
	for _, e := range entries {
		w.logSink(e.text)
	}
}

// Abort marks the group as failed, from wherever it is called: rank 0
// broadcasts directly, any other rank notifies rank 0 which then
// broadcasts on its behalf.
func (w *World) Abort(reason string) {
	w.recordAbort(w.rank, reason)
	if w.rank == 0 {
		w.broadcastAbort()
		return
	}
	w.uplink.send(wire.Envelope{Kind: wire.KindAbort, Src: w.rank, Text: reason})
	w.triggerLocalAbort()
}

func (w *World) recordAbort(rank int, reason string) {
	w.abortMu.Lock()
	if !w.aborted {
		w.aborted = true
		w.abortRank = rank
		w.abortReason = reason
	}
	w.abortMu.Unlock()
}

func (w *World) abortState() (bool, int, string) {
	w.abortMu.Lock()
	defer w.abortMu.Unlock()
	return w.aborted, w.abortRank, w.abortReason
}

func (w *World) broadcastAbort() {
	_, rank, reason := w.abortState()
	for _, l := range w.links {
		l.send(wire.Envelope{Kind: wire.KindAbort, Src: rank, Text: reason})
	}
	w.triggerLocalAbort()
}

func (w *World) triggerLocalAbort() {
	w.abortOnce.Do(func() {
		close(w.abortedCh)
		if w.coord != nil {
			w.coord.forceRelease()
		}
		w.forceResolvePending()
	})
}

func (w *World) forceResolvePending() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = make(map[int]*bsp.FutureBytes)
	w.pendingMu.Unlock()
	for _, dest := range pending {
		dest.Resolve(nil)
		w.getWG.Done()
	}
}

// RegisterVariable and RegisterQueue register into this rank's own
// process-local table, always at its own internal slot 0 — since every
// rank of the net backend is a separate address space, the group-wide
// table of the thread backend degenerates to a one-entry-per-rank
// table the call order invariant alone keeps consistent across ranks
// (see internal/registry's package doc).
func (w *World) RegisterVariable(size int) int {
	return w.localVars.Register(0, registry.NewImageSlot(size))
}

func (w *World) UnregisterVariable(id int) {
	w.localVars.Unregister(id, 0)
}

func (w *World) localSlot(id int) (*registry.ImageSlot, bool) {
	v, ok := w.localVars.Lookup(id, 0)
	if !ok {
		return nil, false
	}
	s, ok := v.(*registry.ImageSlot)
	return s, ok
}

func (w *World) SetLocal(id int, value []byte) {
	if s, ok := w.localSlot(id); ok {
		s.SetLocal(value)
	}
}

func (w *World) LocalValue(id int) []byte {
	if s, ok := w.localSlot(id); ok {
		return s.LocalValue()
	}
	return nil
}

// PutBytes sends a put envelope immediately; the destination stages it
// into its receive buffer as soon as it arrives (registry.ImageSlot
// again) and applies it during its own Sync's put-resolution phase.
func (w *World) PutBytes(target, id, offset int, value []byte) {
	w.deliver(wire.Envelope{Kind: wire.KindPut, Src: w.rank, Dst: target, ID: id, Offset: offset, Payload: value})
}

func (w *World) applyIncomingPut(env wire.Envelope) {
	s, ok := w.localSlot(env.ID)
	if !ok {
		return
	}
	if !s.StagePut(env.Offset, env.Payload) {
		w.pushLog(env.Src, fmt.Sprintf("bsp: put out of bounds: target=%d id=%d offset=%d count=%d", w.rank, env.ID, env.Offset, len(env.Payload)))
		return
	}
	w.applyMu.Lock()
	w.pendingApply = append(w.pendingApply, applyOp{id: env.ID, offset: env.Offset, count: len(env.Payload)})
	w.applyMu.Unlock()
}

// GetBytes sends a get-request envelope immediately and registers a
// pending future keyed by a locally assigned token; the target
// services the request off its own reader goroutine regardless of
// what phase of its own superstep it is in, the two-phase protocol
// backends/mpi/world.hpp uses get_request/get_response for.
func (w *World) GetBytes(target, id, offset, count int) *bsp.FutureBytes {
	dest := &bsp.FutureBytes{}
	token := int(w.tokenCounter.AddAcqRel(1))

	w.pendingMu.Lock()
	w.pending[token] = dest
	w.pendingMu.Unlock()
	w.getWG.Add(1)

	w.deliver(wire.Envelope{Kind: wire.KindGetRequest, Src: w.rank, Dst: target, ID: id, Offset: offset, Count: count, Token: token})
	return dest
}

func (w *World) serviceGetRequest(env wire.Envelope) {
	var payload []byte
	if s, ok := w.localSlot(env.ID); ok {
		payload, _ = s.ReadRange(env.Offset, env.Count)
	}
	w.deliver(wire.Envelope{Kind: wire.KindGetResponse, Src: w.rank, Dst: env.Src, Token: env.Token, Payload: payload})
}

func (w *World) resolveGetResponse(env wire.Envelope) {
	w.pendingMu.Lock()
	dest, ok := w.pending[env.Token]
	if ok {
		delete(w.pending, env.Token)
	}
	w.pendingMu.Unlock()
	if !ok {
		return
	}
	dest.Resolve(env.Payload)
	w.getWG.Done()
}

func (w *World) RegisterQueue() int {
	id := w.localQueues.Register(0, registry.NewSimpleInbox())
	w.ownedQueues = append(w.ownedQueues, id)
	w.snapshots[id] = nil
	return id
}

func (w *World) UnregisterQueue(id int) {
	w.localQueues.Unregister(id, 0)
	delete(w.snapshots, id)
	for i, owned := range w.ownedQueues {
		if owned == id {
			w.ownedQueues = append(w.ownedQueues[:i], w.ownedQueues[i+1:]...)
			break
		}
	}
}

func (w *World) localQueueSlot(id int) (*registry.SimpleInbox, bool) {
	v, ok := w.localQueues.Lookup(id, 0)
	if !ok {
		return nil, false
	}
	s, ok := v.(*registry.SimpleInbox)
	return s, ok
}

func (w *World) SendBytes(target, id int, payload []byte) {
	w.deliver(wire.Envelope{Kind: wire.KindSend, Src: w.rank, Dst: target, ID: id, Payload: payload})
}

func (w *World) pushIncomingMessage(env wire.Envelope) {
	if s, ok := w.localQueueSlot(env.ID); ok {
		s.Push(env.Payload)
	}
}

func (w *World) QueueMessages(id int) [][]byte {
	return w.snapshots[id]
}

// deliver routes env to its destination: handled in-process if this
// rank is the destination, forwarded over the single uplink if this
// is a non-coordinator rank, or forwarded over the direct link to the
// destination if this is rank 0 relaying on another rank's behalf.
func (w *World) deliver(env wire.Envelope) {
	if env.Dst == w.rank {
		w.handleLocal(env)
		return
	}
	if w.rank == 0 {
		if l, ok := w.links[env.Dst]; ok {
			l.send(env)
		}
		return
	}
	w.uplink.send(env)
}

func (w *World) handleLocal(env wire.Envelope) {
	switch env.Kind {
	case wire.KindPut:
		w.applyIncomingPut(env)
	case wire.KindGetRequest:
		w.serviceGetRequest(env)
	case wire.KindGetResponse:
		w.resolveGetResponse(env)
	case wire.KindSend:
		w.pushIncomingMessage(env)
	case wire.KindLog:
		w.pushLog(env.Src, env.Text)
	}
}

// Sync is the superstep boundary, structurally identical to the
// thread backend's: barrier, resolve gets, barrier, resolve puts and
// snapshot owned queues, rank 0 emits logs, barrier. Gets and puts themselves were already sent to their targets
// eagerly by GetBytes/PutBytes; Sync's job is to wait for every get
// this superstep issued to come back, and to apply every put this
// rank received.
func (w *World) Sync() {
	if !w.barrierWait() {
		return
	}

	w.getWG.Wait()

	if !w.barrierWait() {
		return
	}

	w.applyMu.Lock()
	ops := w.pendingApply
	w.pendingApply = nil
	w.applyMu.Unlock()
	for _, op := range ops {
		if s, ok := w.localSlot(op.id); ok {
			s.ApplyPut(op.offset, op.count)
		}
	}

	for _, id := range w.ownedQueues {
		if s, ok := w.localQueueSlot(id); ok {
			w.snapshots[id] = s.Drain()
		}
	}

	if w.rank == 0 {
		w.flushLogs()
	}

	w.barrierWait()
}
