// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package thread

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"code.hybscloud.com/bsp/internal/gate"
	"code.hybscloud.com/bsp/internal/registry"
)

// logEntry is one rank-tagged message staged for emission at the next
// Sync, matching the original thread backend's per-world log buffer
// that world_state::sync() drains in rank order.
type logEntry struct {
	rank int
	text string
}

// group is the state shared by every rank's World in one thread-backend
// run, the Go counterpart of bulk::thread::world_state in the original
// source: one allocation per Spawn call, torn down when every peer
// returns.
type group struct {
	nproc int

	vars    *registry.Table
	queues  *registry.Table
	barrier *gate.Barrier

	logMu   sync.Mutex
	logs    []logEntry
	logSink func(string)

	abortMu     sync.Mutex
	abortReason string
	abortRank   int
	aborted     bool
}

func newGroup(nproc int, logSink func(string)) *group {
	if logSink == nil {
		logSink = func(s string) { fmt.Fprintln(os.Stdout, s) }
	}
	return &group{
		nproc:   nproc,
		vars:    registry.NewTable(nproc),
		queues:  registry.NewTable(nproc),
		barrier: gate.NewBarrier(nproc),
		logSink: logSink,
	}
}

func (g *group) varSlot(id, rank int) (*registry.ImageSlot, bool) {
	v, ok := g.vars.Lookup(id, rank)
	if !ok {
		return nil, false
	}
	s, ok := v.(*registry.ImageSlot)
	return s, ok
}

func (g *group) queueSlot(id, rank int) (*registry.Inbox, bool) {
	v, ok := g.queues.Lookup(id, rank)
	if !ok {
		return nil, false
	}
	s, ok := v.(*registry.Inbox)
	return s, ok
}

// pushLog stages a rank-tagged message, safe for concurrent callers.
func (g *group) pushLog(rank int, text string) {
	g.logMu.Lock()
	g.logs = append(g.logs, logEntry{rank: rank, text: text})
	g.logMu.Unlock()
}

// flushLogs emits every staged message in rank order (stable within a
// rank) and empties the buffer. Called once per Sync by rank 0, and
// once more by Environment after every peer has returned to flush
// trailing log calls that were never followed by a Sync.
func (g *group) flushLogs() {
	g.logMu.Lock()
	entries := g.logs
	g.logs = nil
	g.logMu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].rank < entries[j].rank })
	for _, e := range entries {
		g.logSink(e.text)
	}
}

// abort records rank and reason (first caller wins) and releases every
// peer currently blocked in Barrier or Sync. This is the path driven
// by World.Abort — an explicit catastrophic-failure signal, reported
// to Environment callers as an *bsp.AbortError.
func (g *group) abort(rank int, reason string) {
	g.abortMu.Lock()
	if !g.aborted {
		g.aborted = true
		g.abortRank = rank
		g.abortReason = reason
	}
	g.abortMu.Unlock()
	g.barrier.Abort()
}

func (g *group) abortState() (bool, int, string) {
	g.abortMu.Lock()
	defer g.abortMu.Unlock()
	return g.aborted, g.abortRank, g.abortReason
}

// releaseBarrier unblocks every peer without marking the group
// aborted, used when a peer's SPMD function returns an ordinary error
// rather than calling Abort, so the rest of the group does not
// deadlock waiting for a peer that is never coming back to Sync.
func (g *group) releaseBarrier() {
	g.barrier.Abort()
}
