// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bsp implements a bulk-synchronous parallel (BSP) runtime.
//
// A BSP program is SPMD: a fixed number of processors each run the same
// function, interleaving private local computation with communication
// that only becomes visible at a barrier-synchronized boundary called a
// superstep. The package exposes three communication primitives —
// [Var], [Coarray] and [Queue] — plus the [World] each processor uses to
// issue remote reads/writes and to cross the superstep boundary.
//
// # Quick Start
//
//	err := thread.Spawn(4, func(w bsp.World) error {
//	    x := bsp.NewVar(w, w.Rank())
//	    defer x.Close()
//
//	    next := (w.Rank() + 1) % w.ActiveProcessors()
//	    x.At(next).Put(w.Rank() * 10)
//	    w.Sync()
//
//	    w.Log("rank %d sees %d", w.Rank(), x.Value())
//	    return nil
//	})
//
// # Supersteps
//
// Communication issued between two calls to [World.Sync] is buffered,
// not applied. [World.Sync] performs a barrier, resolves every buffered
// get and put in a well-defined order (gets observe the value written
// at the end of the *previous* superstep, then puts overwrite it for
// the *next* superstep), installs delivered queue messages, emits
// buffered log lines in rank order, and barriers again. Each backend's
// World.Sync documents its exact phase order.
//
// # Backends
//
// Three backends implement [World] with identical semantics over very
// different substrates:
//
//   - [code.hybscloud.com/bsp/backend/thread]: OS threads (goroutines)
//     sharing one address space; resolution is direct memory copy.
//   - [code.hybscloud.com/bsp/backend/net]: one TCP connection from
//     each other rank to rank 0, which relays traffic between them,
//     encoding/gob on the wire; resolution exchanges request/response
//     envelopes.
//   - [code.hybscloud.com/bsp/backend/accel]: a simulated manycore
//     accelerator substrate with a flag-poll barrier and asynchronous
//     transfer tasks standing in for DMA, for workloads shaped like a
//     fixed-rank compute grid.
//
// Each backend package exposes its own Spawn(nproc, fn, ...*Options);
// there is no backend-agnostic entry point, since choosing a backend
// is choosing which package to import.
//
// # Collective construction
//
// [NewVar], [NewCoarray] and [NewQueue] are collective: every processor
// must call the k-th one at the same point in its control flow so that
// all processors agree on the object's identifier. Each of them ends
// with a barrier, so once it returns every processor has registered
// the object. Constructing these objects from only some processors, or
// in different relative order across processors, breaks that
// agreement; the runtime does not detect it or report it as a
// [ProtocolViolation].
package bsp
