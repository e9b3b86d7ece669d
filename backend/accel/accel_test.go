// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package accel_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"code.hybscloud.com/bsp"
	"code.hybscloud.com/bsp/backend/accel"
)

// TestVarRingPut has every rank put its rank into its next neighbor's
// Var and checks, after one Sync, that every rank holds its previous
// neighbor's rank.
func TestVarRingPut(t *testing.T) {
	const p = 32
	err := accel.Spawn(p, func(w bsp.World) error {
		v := bsp.NewVar(w, w.Rank())
		defer v.Close()

		next := (w.Rank() + 1) % w.ActiveProcessors()
		v.At(next).Put(w.Rank())
		w.Sync()

		prev := (w.Rank() - 1 + w.ActiveProcessors()) % w.ActiveProcessors()
		if got := v.Value(); got != prev {
			t.Errorf("rank %d: got %d, want %d", w.Rank(), got, prev)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestGetObservesPreSyncValue checks that the asynchronous get/put
// resolution tasks Sync pushes still honor the pre-superstep ordering
// rule: a Get issued alongside a conflicting same-superstep Put
// resolves to the value as of the start of the superstep.
func TestGetObservesPreSyncValue(t *testing.T) {
	const p = 2
	err := accel.Spawn(p, func(w bsp.World) error {
		v := bsp.NewVar(w, 100+w.Rank())
		defer v.Close()
		w.Barrier()

		other := 1 - w.Rank()
		fut := v.At(other).Get()
		v.At(other).Put(999)
		w.Sync()

		got, err := fut.Result()
		if err != nil {
			t.Errorf("rank %d: Result: %v", w.Rank(), err)
		}
		if want := 100 + other; got != want {
			t.Errorf("rank %d: got %d, want %d", w.Rank(), got, want)
		}

		w.Sync()
		if got := v.Value(); got != 999 {
			t.Errorf("rank %d: after put applied: got %d, want 999", w.Rank(), got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestCoarrayRangePut exercises a contiguous remote range write,
// including the zero-length no-op case, resolved through the
// asynchronous put-task path.
func TestCoarrayRangePut(t *testing.T) {
	const p = 3
	const n = 4
	err := accel.Spawn(p, func(w bsp.World) error {
		c := bsp.NewCoarray[int](w, n)
		defer c.Close()
		w.Barrier()

		next := (w.Rank() + 1) % w.ActiveProcessors()
		c.At(next).Range(1, 3).Put([]int{w.Rank(), w.Rank()})
		c.At(next).Range(2, 2).Put([]int{42}) // zero-length: no-op
		w.Sync()

		prev := (w.Rank() - 1 + w.ActiveProcessors()) % w.ActiveProcessors()
		if got := c.Get(1); got != prev {
			t.Errorf("rank %d: index 1: got %d, want %d", w.Rank(), got, prev)
		}
		if got := c.Get(2); got != prev {
			t.Errorf("rank %d: index 2: got %d, want %d", w.Rank(), got, prev)
		}
		if got := c.Get(0); got != 0 {
			t.Errorf("rank %d: index 0 untouched: got %d, want 0", w.Rank(), got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestCoarrayGatherAll has every rank write its squared rank into slot
// p of a size-P coarray on every other rank (including itself),
// resolved through the asynchronous put-task path, and checks that
// after one Sync every rank's coarray equals [0, 1, 4, 9, ..., (P-1)^2].
func TestCoarrayGatherAll(t *testing.T) {
	const p = 6
	err := accel.Spawn(p, func(w bsp.World) error {
		c := bsp.NewCoarray[int](w, p)
		defer c.Close()
		w.Barrier()

		v := w.Rank() * w.Rank()
		for target := 0; target < w.ActiveProcessors(); target++ {
			c.At(target).Index(w.Rank()).Put(v)
		}
		w.Sync()

		for i := 0; i < p; i++ {
			if got, want := c.Get(i), i*i; got != want {
				t.Errorf("rank %d: slot %d: got %d, want %d", w.Rank(), i, got, want)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestQueueRoundRobin has every rank send a message to its next
// neighbor and checks that it appears in Messages only starting the
// superstep after the send's Sync.
func TestQueueRoundRobin(t *testing.T) {
	const p = 8
	err := accel.Spawn(p, func(w bsp.World) error {
		q := bsp.NewQueue[int](w)
		defer q.Close()
		w.Barrier()

		next := (w.Rank() + 1) % w.ActiveProcessors()
		if err := q.At(next).Send(w.Rank()); err != nil {
			t.Errorf("rank %d: Send: %v", w.Rank(), err)
		}
		w.Sync()

		prev := (w.Rank() - 1 + w.ActiveProcessors()) % w.ActiveProcessors()
		msgs, err := q.Messages()
		if err != nil {
			t.Fatalf("rank %d: Messages: %v", w.Rank(), err)
		}
		if len(msgs) != 1 || msgs[0] != prev {
			t.Errorf("rank %d: got %v, want [%d]", w.Rank(), msgs, prev)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestAbortPropagates checks that one rank calling Abort unblocks
// every processor spinning in the flag barrier and Spawn reports an
// AbortError.
func TestAbortPropagates(t *testing.T) {
	const p = 16
	err := accel.Spawn(p, func(w bsp.World) error {
		if w.Rank() == 5 {
			w.Abort("simulated fatal condition")
			return nil
		}
		w.Barrier() // would spin forever without the abort releasing it
		return nil
	})

	var abortErr *bsp.AbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("Spawn: got %v, want *bsp.AbortError", err)
	}
	if abortErr.Rank != 5 {
		t.Errorf("AbortError.Rank: got %d, want 5", abortErr.Rank)
	}
}

// TestSingleProcessor checks the P=1 boundary.
func TestSingleProcessor(t *testing.T) {
	err := accel.Spawn(1, func(w bsp.World) error {
		v := bsp.NewVar(w, 7)
		defer v.Close()
		v.At(0).Put(9)
		w.Sync()
		if got := v.Value(); got != 9 {
			t.Errorf("got %d, want 9", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestConfigurationErrorOnBadProcessorCount checks Spawn rejects a
// nonpositive processor count before starting any goroutine.
func TestConfigurationErrorOnBadProcessorCount(t *testing.T) {
	err := accel.Spawn(0, func(w bsp.World) error { return nil })
	var cfgErr *bsp.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Spawn(0, ...): got %v, want *bsp.ConfigurationError", err)
	}
}

// TestLogSinkCollectsRankOrder checks that Options.WithLogSink
// receives every rank's log line in rank order, and that concurrent
// Log calls across ranks do not race (run with -race).
func TestLogSinkCollectsRankOrder(t *testing.T) {
	const p = 24
	var mu sync.Mutex
	var lines []string

	opts := bsp.NewOptions().WithLogSink(func(s string) {
		mu.Lock()
		lines = append(lines, s)
		mu.Unlock()
	})

	err := accel.Spawn(p, func(w bsp.World) error {
		w.Log("hello from %d", w.Rank())
		w.Sync()
		return nil
	}, opts)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if len(lines) != p {
		t.Fatalf("got %d log lines, want %d", len(lines), p)
	}
	for i, line := range lines {
		if want := fmt.Sprintf("hello from %d", i); line != want {
			t.Errorf("line %d: got %q, want %q", i, line, want)
		}
	}
}
