// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bsp

// Coarray is a variable-length per-processor array. Local length n may
// differ across processors; local elements are indexed with Get/Set,
// remote elements through the proxy [Coarray.At] returns, by single
// index or by a contiguous range. Construction is collective.
type Coarray[T any] struct {
	world World
	id    int
	n     int
}

// NewCoarray collectively registers a new Coarray with n local
// elements, zero-initialized. n may differ across processors. It ends
// with a Barrier, so once it returns every processor has registered it.
func NewCoarray[T any](w World, n int) *Coarray[T] {
	if n < 0 {
		panic("bsp: coarray length must be >= 0")
	}
	id := w.RegisterVariable(elemSize[T]() * n)
	w.Barrier()
	return &Coarray[T]{world: w, id: id, n: n}
}

// Close unregisters the coarray. Collective.
func (c *Coarray[T]) Close() {
	c.world.UnregisterVariable(c.id)
}

// Len returns the local element count.
func (c *Coarray[T]) Len() int { return c.n }

// Get returns the local element at index i.
func (c *Coarray[T]) Get(i int) T {
	sz := elemSize[T]()
	b, ok := readLocalRange(c.world, c.id, i*sz, sz)
	if !ok {
		var zero T
		return zero
	}
	return decodeValue[T](b)
}

// Set writes the local element at index i.
func (c *Coarray[T]) Set(i int, value T) {
	sz := elemSize[T]()
	full := c.world.LocalValue(c.id)
	if i < 0 || (i+1)*sz > len(full) {
		return
	}
	copy(full[i*sz:(i+1)*sz], encodeValue(value))
	c.world.SetLocal(c.id, full)
}

// Local returns a copy of the local image decoded into a []T.
func (c *Coarray[T]) Local() []T {
	return decodeSlice[T](c.world.LocalValue(c.id))
}

// readLocalRange reads count bytes at offset from id's local image
// via a LocalValue call, since World does not expose a ranged local
// read directly. Local reads never need the byte-range bounds checks
// Get/Put do against a remote image, but this keeps Get simple.
func readLocalRange(w World, id, offset, count int) ([]byte, bool) {
	full := w.LocalValue(id)
	if offset < 0 || offset+count > len(full) {
		return nil, false
	}
	return full[offset : offset+count], true
}

// At returns a proxy for remote access to processor target's coarray
// image.
func (c *Coarray[T]) At(target int) RemoteCoarray[T] {
	return RemoteCoarray[T]{c: c, target: target}
}

// RemoteCoarray is a proxy for remote access to one processor's
// coarray image.
type RemoteCoarray[T any] struct {
	c      *Coarray[T]
	target int
}

// Index returns a proxy for remote access to a single element.
func (r RemoteCoarray[T]) Index(i int) RemoteCoarrayElem[T] {
	return RemoteCoarrayElem[T]{r: r, i: i}
}

// Range returns a proxy for remote access to the contiguous element
// range [a, b).
func (r RemoteCoarray[T]) Range(a, b int) RemoteCoarrayRange[T] {
	return RemoteCoarrayRange[T]{r: r, a: a, b: b}
}

// RemoteCoarrayElem buffers single-element remote access.
type RemoteCoarrayElem[T any] struct {
	r RemoteCoarray[T]
	i int
}

// Put buffers a remote single-element write, applied at the next Sync.
func (e RemoteCoarrayElem[T]) Put(value T) {
	sz := elemSize[T]()
	e.r.c.world.PutBytes(e.r.target, e.r.c.id, e.i*sz, encodeValue(value))
}

// Get buffers a remote single-element read. The returned Future
// resolves during the next Sync.
func (e RemoteCoarrayElem[T]) Get() Future[T] {
	sz := elemSize[T]()
	raw := e.r.c.world.GetBytes(e.r.target, e.r.c.id, e.i*sz, sz)
	return Future[T]{raw: raw, decode: decodeValue[T]}
}

// RemoteCoarrayRange buffers contiguous-range remote access.
type RemoteCoarrayRange[T any] struct {
	r    RemoteCoarray[T]
	a, b int
}

// Put buffers a remote range write of (b-a) elements, applied at the
// next Sync. A zero-length range ([a,a)) is a documented no-op: no
// data motion, no error.
func (rg RemoteCoarrayRange[T]) Put(values []T) {
	if rg.b <= rg.a {
		return
	}
	sz := elemSize[T]()
	rg.r.c.world.PutBytes(rg.r.target, rg.r.c.id, rg.a*sz, encodeSlice(values[:rg.b-rg.a]))
}

// Get buffers a remote range read of (b-a) elements. The returned
// Future decodes to a []T of that length once resolved.
func (rg RemoteCoarrayRange[T]) Get() Future[[]T] {
	if rg.b <= rg.a {
		empty := &FutureBytes{}
		empty.Resolve(nil)
		return Future[[]T]{raw: empty, decode: decodeSlice[T]}
	}
	sz := elemSize[T]()
	raw := rg.r.c.world.GetBytes(rg.r.target, rg.r.c.id, rg.a*sz, (rg.b-rg.a)*sz)
	return Future[[]T]{raw: raw, decode: decodeSlice[T]}
}
