// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package thread implements bsp.World over goroutines in one process.
//
// # Quick start
//
//	err := thread.Spawn(4, func(w bsp.World) error {
//		v := bsp.NewVar(w, w.Rank())
//		defer v.Close()
//		w.Barrier()
//		v.At((w.Rank() + 1) % w.ActiveProcessors()).Put(w.Rank())
//		w.Sync()
//		w.Log("rank %d now holds %d", w.Rank(), v.Value())
//		return nil
//	})
//
// Every rank runs fn concurrently; Spawn returns once all of them have
// returned, or once one of them calls w.Abort.
package thread
