// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package accel implements bsp.World over a simulated manycore
// substrate: many lightweight processors sharing one address space,
// the Go counterpart of the original project's epiphany backend
// (backends/epiphany), which targeted Adapteva's Epiphany manycore
// chip over its own on-chip mesh network.
//
// Two things distinguish this backend's texture from backend/thread,
// even though both run every rank as a goroutine in one process:
//
//   - Its barrier is a flat array of per-processor arrival flags each
//     waiter polls directly (see barrier.go), grounded in
//     world_state.hpp's sync_barrier_[NPROCS] — every core writing its
//     own flag and spinning on its neighbors' — rather than the single
//     shared generation counter backend/thread's barrier uses.
//   - Put and Get resolution at a Sync boundary are issued as
//     asynchronous transfer tasks pushed up front and waited on only
//     once every one of them is in flight (see dma.go), the same
//     push-now/wait-later contract the original's dma_task gives the
//     real DMA engine (dma.hpp), rather than backend/thread's
//     synchronous one-at-a-time resolution loop.
//
// Quick start:
//
//	err := accel.Spawn(16, func(w bsp.World) error {
//		v := bsp.NewVar(w, w.Rank())
//		defer v.Close()
//		v.At((w.Rank()+1)%w.ActiveProcessors()).Put(w.Rank())
//		w.Sync()
//		return nil
//	})
package accel
