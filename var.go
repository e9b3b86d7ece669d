// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bsp

// Var is a single-element distributed object: every processor has one
// image of type T, readable and writable locally, and writable or
// readable by any processor remotely through the proxy [Var.At]
// returns. Construction is collective.
type Var[T any] struct {
	world World
	id    int
}

// NewVar collectively registers a new Var initialized to value on this
// processor. Every processor must call NewVar (or any other
// object-constructing factory) the same number of times, in the same
// relative order, for the returned handles to refer to the same
// distributed object across the group. NewVar ends with a Barrier, so
// once it returns every processor has registered the object.
func NewVar[T any](w World, value T) *Var[T] {
	id := w.RegisterVariable(elemSize[T]())
	v := &Var[T]{world: w, id: id}
	v.Set(value)
	w.Barrier()
	return v
}

// Close unregisters the variable. Collective.
func (v *Var[T]) Close() {
	v.world.UnregisterVariable(v.id)
}

// Set overwrites the local image. Non-collective, visible to this
// processor's own subsequent Value calls immediately, and to a remote
// Get issued against this processor later in the same superstep.
func (v *Var[T]) Set(value T) {
	v.world.SetLocal(v.id, encodeValue(value))
}

// Value returns the local image's current value.
func (v *Var[T]) Value() T {
	return decodeValue[T](v.world.LocalValue(v.id))
}

// At returns a proxy for remote access to the image on processor
// target. Equivalent to the original's v(target) call syntax, spelled
// out as an explicit method per spec's design notes.
func (v *Var[T]) At(target int) RemoteVar[T] {
	return RemoteVar[T]{v: v, target: target}
}

// RemoteVar is a proxy for remote access to one processor's image of a
// Var.
type RemoteVar[T any] struct {
	v      *Var[T]
	target int
}

// Put buffers a remote write of value into the target processor's
// image. Applied at the next Sync.
func (r RemoteVar[T]) Put(value T) {
	r.v.world.PutBytes(r.target, r.v.id, 0, encodeValue(value))
}

// Get buffers a remote read of the target processor's image. The
// returned Future resolves during the next Sync.
func (r RemoteVar[T]) Get() Future[T] {
	raw := r.v.world.GetBytes(r.target, r.v.id, 0, elemSize[T]())
	return Future[T]{raw: raw, decode: decodeValue[T]}
}
