// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bsp

// World is the per-processor facade every backend implements. It is
// the one abstract contract distributed objects depend on (spec's
// "Pattern: polymorphism across backends") — Var, Coarray and Queue
// never know which backend they are running against.
//
// All methods below the communication-primitive line are registration
// and buffering hooks used by NewVar/NewCoarray/NewQueue and by the
// remote proxies those types return. They are exported because Go
// interface satisfaction requires it across package boundaries (each
// backend lives in its own package), not because application code is
// meant to call them directly; call them only through Var/Coarray/Queue.
type World interface {
	// Rank returns this processor's identifier in [0, ActiveProcessors()).
	Rank() int
	// ActiveProcessors returns the fixed size of the processor group.
	ActiveProcessors() int

	// Barrier blocks until every processor has called Barrier, without
	// resolving any buffered communication.
	Barrier()
	// Sync is the superstep boundary: barrier, resolve every buffered
	// get then every buffered put then install queue messages, emit
	// logs in rank order, barrier again. See the backend package docs
	// for the exact algorithm.
	Sync()
	// Log stages a formatted string, tagged with this processor's
	// rank, for emission at the next Sync. Non-collective.
	Log(format string, args ...any)
	// Abort signals catastrophic failure: it unblocks every processor
	// waiting in Barrier or Sync and causes Spawn to return an
	// [AbortError]. Not for ordinary error handling.
	Abort(reason string)

	// RegisterVariable registers a size-byte local image for a Var or
	// one Coarray element block and returns the identifier every
	// processor's matching call agrees on. Collective.
	RegisterVariable(size int) int
	// UnregisterVariable releases the local slot for id. Collective.
	UnregisterVariable(id int)
	// SetLocal overwrites the local image's bytes in place.
	// Non-collective.
	SetLocal(id int, value []byte)
	// LocalValue returns a copy of the local image's current bytes.
	LocalValue(id int) []byte
	// PutBytes buffers a remote write of value into the image
	// registered as id on processor target, starting at byte offset.
	// Applied at the next Sync. Non-collective.
	PutBytes(target, id, offset int, value []byte)
	// GetBytes buffers a remote read of count bytes from the image
	// registered as id on processor target, starting at byte offset.
	// The returned future resolves during the next Sync.
	// Non-collective.
	GetBytes(target, id, offset, count int) *FutureBytes

	// RegisterQueue registers a message inbox and returns the
	// identifier every processor's matching call agrees on. Collective.
	RegisterQueue() int
	// UnregisterQueue releases the local queue slot for id. Collective.
	UnregisterQueue(id int)
	// SendBytes buffers an outgoing message for delivery to the queue
	// registered as id on processor target. Non-collective.
	SendBytes(target, id int, payload []byte)
	// QueueMessages returns the messages delivered during the previous
	// superstep and installed by the most recent Sync. The result is
	// stable for the whole current superstep: calling QueueMessages
	// again before the next Sync returns the same messages, not an
	// empty result — clearing happens only at the next Sync, after
	// this superstep's reads have had their chance to occur.
	QueueMessages(id int) [][]byte
}
