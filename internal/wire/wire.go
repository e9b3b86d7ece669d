// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire defines the envelope exchanged between processors by
// the net backend, grounded in the original MPI backend's message_t
// tag enum (backends/mpi/world.hpp): put, get request/response, and
// queue sends all cross the wire as one shape, distinguished by Kind,
// gob-encoded since payload length and shape vary by Kind (unlike the
// fixed-size images Var/Coarray move on the thread backend).
package wire

// Kind tags what an Envelope carries. The seven original message_t
// values collapse to four data kinds here (put, get request, get
// response, send): this module has no separate "custom"-prefixed
// variants because every payload, typed or raw, is already a byte
// slice by the time it reaches a World — there is only one
// put/get/send shape to move, not a generic one and a
// user-type-specific one. The other five kinds carry barrier, log,
// abort and handshake control traffic.
type Kind byte

const (
	KindPut Kind = iota
	KindGetRequest
	KindGetResponse
	KindSend
	KindBarrierJoin
	KindBarrierRelease
	KindLog
	KindAbort
	KindHandshake
)

// Envelope is the unit exchanged between two ranks, relayed through
// rank 0 when neither side of a Put/Get/Send is rank 0 itself.
type Envelope struct {
	Kind Kind

	Src int
	Dst int

	// ID identifies the registered variable or queue the envelope
	// concerns; unused for barrier envelopes.
	ID int

	Offset int
	Count  int

	// Token correlates a KindGetResponse with the KindGetRequest that
	// produced it; assigned by the requester.
	Token int

	Payload []byte
	Text    string
}
