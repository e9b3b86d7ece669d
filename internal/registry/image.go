// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry

import "sync"

// ImageSlot is the Var/Coarray-element payload kept in one (id, rank)
// registry slot: the processor's live local image, plus a put-staging
// buffer puts write into immediately (mirroring the original thread
// backend's registered_variable.receiveBuffer) so that conflicting
// concurrent puts to the same byte range resolve to a single,
// deterministic-within-a-run winner instead of tearing the slice.
//
// Get resolution reads Image directly (the pre-superstep value); put
// resolution copies the corresponding range of RecvBuf into Image. The
// two are kept separate so a get issued in the same superstep as a put
// to the same location still observes the old value, per spec's
// get-vs-put ordering rule.
type ImageSlot struct {
	mu      sync.Mutex
	Image   []byte
	RecvBuf []byte
}

// NewImageSlot allocates a slot with a zeroed image of the given size.
func NewImageSlot(size int) *ImageSlot {
	return &ImageSlot{Image: make([]byte, size), RecvBuf: make([]byte, size)}
}

// SetLocal overwrites the local image in place (local Var assignment).
func (s *ImageSlot) SetLocal(value []byte) {
	s.mu.Lock()
	copy(s.Image, value)
	s.mu.Unlock()
}

// LocalValue returns a copy of the current image bytes.
func (s *ImageSlot) LocalValue() []byte {
	s.mu.Lock()
	out := make([]byte, len(s.Image))
	copy(out, s.Image)
	s.mu.Unlock()
	return out
}

// StagePut writes value into RecvBuf at offset, immediately and
// synchronously (as soon as the issuing processor calls Put), so that
// a later concurrent put to a different range does not race on the
// same backing array. Out-of-bounds staging is reported to the caller
// so the World can log it as a recoverable protocol violation instead
// of panicking.
func (s *ImageSlot) StagePut(offset int, value []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset+len(value) > len(s.RecvBuf) {
		return false
	}
	copy(s.RecvBuf[offset:offset+len(value)], value)
	return true
}

// ApplyPut copies the [offset, offset+count) range of RecvBuf into
// Image. Called during Sync's put-resolution phase for every put this
// slot's owner received, after the get-resolution barrier.
func (s *ImageSlot) ApplyPut(offset, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset+count > len(s.Image) {
		return
	}
	copy(s.Image[offset:offset+count], s.RecvBuf[offset:offset+count])
}

// ReadRange returns a copy of Image's [offset, offset+count) range.
// Used to resolve a Get against the pre-superstep value.
func (s *ImageSlot) ReadRange(offset, count int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset+count > len(s.Image) {
		return nil, false
	}
	out := make([]byte, count)
	copy(out, s.Image[offset:offset+count])
	return out, true
}

// Len returns the byte length of the image.
func (s *ImageSlot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Image)
}
