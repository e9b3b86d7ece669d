// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package accel

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"code.hybscloud.com/bsp/internal/registry"
)

// logEntry is one rank-tagged message staged for emission at the next
// Sync.
type logEntry struct {
	rank int
	text string
}

// group is the state shared by every rank's World in one accel-backend
// run, the Go counterpart of the original epiphany backend's
// world_state (include/world_state.hpp): one allocation per Spawn
// call, torn down when every peer returns.
type group struct {
	nproc int

	vars    *registry.Table
	queues  *registry.Table
	barrier *flagBarrier

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
		barrier: newFlagBarrier(nproc),
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

func (g *group) pushLog(rank int, text string) {
	g.logMu.Lock()
	g.logs = append(g.logs, logEntry{rank: rank, text: text})
	g.logMu.Unlock()
}

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
// peer currently spinning in the barrier.
func (g *group) abort(rank int, reason string) {
	g.abortMu.Lock()
	if !g.aborted {
		g.aborted = true
		g.abortRank = rank
		g.abortReason = reason
	}
	g.abortMu.Unlock()
	g.barrier.abort()
}

func (g *group) abortState() (bool, int, string) {
	g.abortMu.Lock()
	defer g.abortMu.Unlock()
	return g.aborted, g.abortRank, g.abortReason
}

// releaseBarrier unblocks every peer without marking the group
// aborted, used when a peer's SPMD function returns an ordinary error.
func (g *group) releaseBarrier() {
	g.barrier.abort()
}
