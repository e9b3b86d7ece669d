// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry

import (
	"sync"
)

// inboxFastPathCapacity bounds the lock-free fast path used by Inbox.
// Sends beyond this many per superstep still succeed, falling back to
// the mutex-guarded overflow bucket below — spec's "unbounded FIFO"
// contract is preserved, the common case just never touches a mutex.
const inboxFastPathCapacity = 4096

// Inbox is a registered queue's per-processor message mailbox for the
// shared-memory backend. Many remote processors can call Send
// concurrently during one superstep (a classic multi-producer,
// single-consumer pattern: many event sources, one draining
// processor), so the fast path is an [mpscRing] rather than the
// mutex-guarded growable vector spec's data model describes in the
// abstract — semantically identical (append during the superstep,
// drained whole at Sync), just lock-free in the common case. A
// mutex-guarded overflow slice absorbs anything past the fast path's
// bounded capacity so delivery stays exact regardless of volume.
type Inbox struct {
	fast *mpscRing

	mu       sync.Mutex
	overflow [][]byte
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{fast: newMPSCRing(inboxFastPathCapacity)}
}

// Push appends a message. Safe for concurrent callers.
func (ib *Inbox) Push(payload []byte) {
	if ib.fast.tryPush(payload) {
		return
	}
	ib.mu.Lock()
	ib.overflow = append(ib.overflow, payload)
	ib.mu.Unlock()
}

// Drain returns every message pushed since the last Drain, in FIFO
// order within each path (fast-path messages before overflow messages
// that arrived once the fast path was saturated), and empties the
// inbox.
func (ib *Inbox) Drain() [][]byte {
	var out [][]byte
	for {
		msg, ok := ib.fast.tryPop()
		if !ok {
			break
		}
		out = append(out, msg)
	}
	ib.mu.Lock()
	if len(ib.overflow) > 0 {
		out = append(out, ib.overflow...)
		ib.overflow = nil
	}
	ib.mu.Unlock()
	return out
}

// SimpleInbox is a registered queue's mailbox for backends without a
// shared address space (the net backend): messages arrive one at a
// time off a single reader goroutine per connection, so there is no
// producer contention to optimize away — spec's literal
// mutex-guarded-growable-vector model applies directly.
type SimpleInbox struct {
	mu   sync.Mutex
	msgs [][]byte
}

// NewSimpleInbox creates an empty inbox.
func NewSimpleInbox() *SimpleInbox { return &SimpleInbox{} }

// Push appends a message. Safe for concurrent callers.
func (ib *SimpleInbox) Push(payload []byte) {
	ib.mu.Lock()
	ib.msgs = append(ib.msgs, payload)
	ib.mu.Unlock()
}

// Drain returns and clears every message pushed since the last Drain.
func (ib *SimpleInbox) Drain() [][]byte {
	ib.mu.Lock()
	out := ib.msgs
	ib.msgs = nil
	ib.mu.Unlock()
	return out
}
