// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bsp

import "sync"

// FutureBytes is the backend-facing, untyped half of a Future: a
// private buffer that becomes valid once the backend resolves it during
// a Sync. World implementations fill it in during the get-resolution
// phase of Sync; Future[T] decodes it into a typed result.
//
// A FutureBytes is never collectively registered — constructing one is
// a purely local operation, unlike Var/Coarray/Queue construction.
type FutureBytes struct {
	mu    sync.Mutex
	ready bool
	data  []byte
}

// Resolve stores data and marks the future ready. Called by a World
// implementation during get resolution (by Sync in the thread and accel
// backends, by the link reader goroutine in the net backend) and
// directly by an empty coarray range Get; the mutex makes it safe
// against a concurrent TryBytes.
func (f *FutureBytes) Resolve(data []byte) {
	f.mu.Lock()
	f.data = data
	f.ready = true
	f.mu.Unlock()
}

// TryBytes returns the resolved bytes, or errNotReady if no Sync has
// resolved this future yet.
func (f *FutureBytes) TryBytes() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready {
		return nil, errNotReady
	}
	return f.data, nil
}

// Future is a typed, private handle to a value that becomes available
// after the next Sync returns. Reading a Future before that Sync
// returns a [ProtocolViolation]-adjacent semantic error classified by
// [IsNotReady]; reading it after is valid until the handle is
// discarded or another Get overwrites it.
//
// Futures are movable by value copy, the way Var and Coarray remote
// proxies are — there is nothing to synchronize on copy since the
// decode function is pure and the underlying FutureBytes is shared by
// pointer.
type Future[T any] struct {
	raw    *FutureBytes
	decode func([]byte) T
}

// Result returns the decoded value once resolved. Before the next Sync
// completes it returns the zero value of T and an error for which
// [IsNotReady] reports true.
func (f Future[T]) Result() (T, error) {
	var zero T
	if f.raw == nil {
		return zero, errNotReady
	}
	b, err := f.raw.TryBytes()
	if err != nil {
		return zero, err
	}
	return f.decode(b), nil
}
