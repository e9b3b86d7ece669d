// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry implements the group-wide table that maps a
// collectively-agreed object identifier and a processor rank to that
// processor's registered local-image payload.
//
// This is the Go counterpart of the original bulk::thread::world_state's
// variables_/queues_ vectors (see backends/thread/world.hpp in the
// original source): a slice grown P entries at a time, scanned linearly
// for the first vacant per-rank slot on registration. The scan-then-grow
// sequence is collective by construction — every processor must call
// Register at the same point in program order for the same object, so
// all of them observe the same occupancy pattern and agree on id.
package registry

import "sync"

// Slot holds one processor's payload for one registered object. The
// concrete payload type depends on the object kind (fixed-size byte
// image for a Var/Coarray element block, an inbox handle for a Queue);
// Table treats it opaquely.
type Slot struct {
	Occupied bool
	Payload  any
}

// Table is a group-wide registry shared by every processor (rank) in
// one processor group. One Table instance backs every World in a given
// backend's process or thread group.
//
// The mutex guards only slot assignment and table growth, never payload
// access — matching spec's shared-resource policy: several processors
// may read or write one slot's payload in the same phase (many puts
// into one coarray, many sends into one inbox), and each payload type
// does its own locking for that.
type Table struct {
	mu    sync.RWMutex
	nproc int
	slots []Slot
}

// NewTable creates a registry table for a group of nproc processors.
func NewTable(nproc int) *Table {
	if nproc <= 0 {
		panic("registry: nproc must be > 0")
	}
	return &Table{nproc: nproc}
}

// Register installs payload into the slot (id, rank), scanning for the
// first id whose rank-th entry is vacant and growing the table by nproc
// entries if none is found. Collective: every processor must call
// Register the same number of times, in the same relative order, for
// results to agree across the group.
func (t *Table) Register(rank int, payload any) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id := 0; id < len(t.slots); id += t.nproc {
		if !t.slots[id+rank].Occupied {
			t.slots[id+rank] = Slot{Occupied: true, Payload: payload}
			return id
		}
	}

	id := len(t.slots)
	t.slots = append(t.slots, make([]Slot, t.nproc)...)
	t.slots[id+rank] = Slot{Occupied: true, Payload: payload}
	return id
}

// Unregister marks (id, rank) vacant, local to the calling processor. A
// later collective Register may reclaim the slot.
func (t *Table) Unregister(id, rank int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots[id+rank] = Slot{}
}

// Lookup returns the payload registered at (id, rank) and whether the
// slot is currently occupied. Takes only a read lock: concurrent
// payload mutation across ranks is safe by the barrier protocol around
// registration and resolution, but the slice header itself (length,
// backing array) still needs protection from concurrent table growth.
func (t *Table) Lookup(id, rank int) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.slots[id+rank]
	return s.Payload, s.Occupied
}

// Replace overwrites the payload at (id, rank) in place without
// affecting occupancy or participating in the registration scan. No
// backend's Sync calls it: they drain inboxes in place instead.
func (t *Table) Replace(id, rank int, payload any) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.slots[id+rank].Payload = payload
}
