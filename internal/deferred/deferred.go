// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package deferred defines the per-processor staging buffers for the
// communication a superstep issues but does not yet apply: puts, gets
// and queue sends, per spec §4.4. The thread and accel World
// implementations append to a Buffers value as the user's code calls
// Put/Get, then drain it during Sync's resolution phase and call Reset
// before the next superstep begins accepting new operations. Queue
// sends go straight into the destination inbox in every backend, so
// Messages is never filled; the net backend uses no Buffers at all.
package deferred

import "code.hybscloud.com/bsp"

// PutOp is a buffered remote write: count bytes of Value into the
// image registered as ID on processor Target, starting at byte Offset.
type PutOp struct {
	Target int
	ID     int
	Offset int
	Value  []byte
}

// GetOp is a buffered remote read: Count bytes from the image
// registered as ID on processor Target, starting at byte Offset. Dest
// is resolved with the read bytes during Sync.
type GetOp struct {
	Target int
	ID     int
	Offset int
	Count  int
	Dest   *bsp.FutureBytes
}

// MessageOp is a buffered queue send: Payload enqueued for delivery to
// the queue registered as ID on processor Target.
type MessageOp struct {
	Target  int
	ID      int
	Payload []byte
}

// Buffers holds one processor's outgoing operations for the superstep
// currently in progress. Append order is preserved, which is what
// gives program-order put/get issuance within one processor its
// deterministic replay at resolution time.
type Buffers struct {
	Puts     []PutOp
	Gets     []GetOp
	Messages []MessageOp
}

// Reset clears all three buffers in place, retaining their backing
// arrays across supersteps to avoid reallocating on every Sync.
func (b *Buffers) Reset() {
	b.Puts = b.Puts[:0]
	b.Gets = b.Gets[:0]
	b.Messages = b.Messages[:0]
}
