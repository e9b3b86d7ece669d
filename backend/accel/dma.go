// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package accel

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// task models one asynchronous transfer, the Go counterpart of the
// original's dma_task: push starts fn running in its own goroutine and
// returns immediately without waiting for it, wait blocks until fn has
// finished by polling a completion flag. dma_task used a hardware
// status register bit (E_DMA_ENABLE, see dma.hpp) for the same
// push-now/poll-later contract; this substitutes a goroutine and an
// atomic flag for the engine and its register.
type task struct {
	done atomix.Bool
}

// push starts fn asynchronously and returns a task whose wait blocks
// until fn returns.
func push(fn func()) *task {
	t := &task{}
	go func() {
		fn()
		t.done.StoreRelease(true)
	}()
	return t
}

func (t *task) wait() {
	sw := spin.Wait{}
	for !t.done.LoadAcquire() {
		sw.Once()
	}
}
