// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bsp

import "unsafe"

// Var and Coarray move values between processors as raw bytes, the way
// the original C++ backends memcpy sizeof(T) bytes of a registered
// image around. T must therefore be a fixed-size value type containing
// no pointers, slices, strings, maps, channels or interfaces — plain
// numeric types and structs built only from them. Passing a type that
// violates this silently copies pointer words instead of the pointed-to
// data, exactly as an errant memcpy would in the original; Go cannot
// express this constraint on a type parameter, so it is a documented
// discipline rather than a compile error, the same trade-off the
// original's C++ templates make implicitly.
func elemSize[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func encodeValue[T any](v T) []byte {
	sz := elemSize[T]()
	out := make([]byte, sz)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz))
	return out
}

func decodeValue[T any](b []byte) T {
	var v T
	sz := elemSize[T]()
	n := sz
	if len(b) < n {
		n = len(b)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz), b[:n])
	return v
}

func encodeSlice[T any](vs []T) []byte {
	sz := elemSize[T]()
	out := make([]byte, sz*len(vs))
	for i := range vs {
		copy(out[i*sz:(i+1)*sz], unsafe.Slice((*byte)(unsafe.Pointer(&vs[i])), sz))
	}
	return out
}

func decodeSlice[T any](b []byte) []T {
	sz := elemSize[T]()
	if sz == 0 {
		return nil
	}
	n := len(b) / sz
	out := make([]T, n)
	for i := 0; i < n; i++ {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[i])), sz), b[i*sz:(i+1)*sz])
	}
	return out
}
