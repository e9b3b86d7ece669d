// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bsp

import (
	"fmt"

	"code.hybscloud.com/iox"
)

// ConfigurationError reports an invalid Spawn configuration: a bad
// processor count, or a transport resource the backend needs and could
// not obtain (e.g. a listening socket for the net backend).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("bsp: configuration error: %s", e.Reason)
}

// ProtocolViolation reports user error in the communication protocol.
// Queue returns it when a message cannot be encoded, or cannot be
// decoded as the queue's element type. Registration mismatches across
// processors are not detected and produce no ProtocolViolation; an
// out-of-bounds put is logged and dropped, and an out-of-bounds get
// resolves with no bytes.
type ProtocolViolation struct {
	Reason string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("bsp: protocol violation: %s", e.Reason)
}

// TransportError reports a fault reported by the underlying transport,
// such as a peer connection dropping in the net backend. It is fatal to
// the whole processor group.
type TransportError struct {
	Reason string
	Cause  error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bsp: transport error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("bsp: transport error: %s", e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// AbortError reports that a processor called World.Abort. It is fatal
// to the whole processor group; Spawn returns it to the caller once
// every processor has unblocked from the barrier it was waiting on.
type AbortError struct {
	Rank   int
	Reason string
}

func (e *AbortError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("bsp: processor %d called abort: %s", e.Rank, e.Reason)
	}
	return fmt.Sprintf("bsp: processor %d called abort", e.Rank)
}

// errNotReady is the semantic (non-failure) error returned by a Future
// read before the sync that resolves it. Classified via iox the same way lfq classifies
// ErrWouldBlock: callers that want to treat "not yet" specially can
// test with IsNotReady, everyone else can just check err != nil.
var errNotReady = iox.ErrWouldBlock

// IsNotReady reports whether err indicates a Future has not yet been
// resolved by a Sync. It delegates to [iox.IsWouldBlock] for ecosystem
// consistency with the rest of the module's error classification.
func IsNotReady(err error) bool {
	return iox.IsWouldBlock(err)
}
