// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package net_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"code.hybscloud.com/bsp"
	bspnet "code.hybscloud.com/bsp/backend/net"
)

// TestVarRingPut mirrors the thread backend's ring test but crosses
// real TCP connections: every rank puts its rank into its next
// neighbor's Var and, after one Sync, holds its previous neighbor's
// rank.
func TestVarRingPut(t *testing.T) {
	const p = 5
	err := bspnet.Spawn(p, func(w bsp.World) error {
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

// TestGetObservesPreSyncValue checks the network transport's two-phase
// get-request/get-response protocol still resolves to the value as of
// the start of the superstep, not a conflicting same-superstep Put.
func TestGetObservesPreSyncValue(t *testing.T) {
	const p = 2
	err := bspnet.Spawn(p, func(w bsp.World) error {
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

// TestCoarrayRangePut exercises a contiguous remote range write over
// the wire, including the zero-length no-op case.
func TestCoarrayRangePut(t *testing.T) {
	const p = 3
	const n = 4
	err := bspnet.Spawn(p, func(w bsp.World) error {
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
// p of a size-P coarray on every other rank (including itself) over
// the wire and checks that after one Sync every rank's coarray equals
// [0, 1, 4, 9, ..., (P-1)^2].
func TestCoarrayGatherAll(t *testing.T) {
	const p = 4
	err := bspnet.Spawn(p, func(w bsp.World) error {
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

// TestCoarrayZeroLengthGet checks that a Get over an empty range
// resolves immediately instead of waiting on a get-response that was
// never sent.
func TestCoarrayZeroLengthGet(t *testing.T) {
	err := bspnet.Spawn(2, func(w bsp.World) error {
		c := bsp.NewCoarray[int](w, 4)
		defer c.Close()
		w.Barrier()

		fut := c.At(1 - w.Rank()).Range(2, 2).Get()
		w.Sync()

		got, err := fut.Result()
		if err != nil {
			t.Errorf("rank %d: Result: %v", w.Rank(), err)
		}
		if len(got) != 0 {
			t.Errorf("rank %d: got %v, want empty", w.Rank(), got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestQueueRoundRobin checks gob-encoded queue messages cross the wire
// and appear in Messages only starting the superstep after the send's
// Sync, stable across repeated reads within that superstep.
func TestQueueRoundRobin(t *testing.T) {
	const p = 4
	err := bspnet.Spawn(p, func(w bsp.World) error {
		q := bsp.NewQueue[int](w)
		defer q.Close()
		w.Barrier()

		if msgs, err := q.Messages(); err != nil || len(msgs) != 0 {
			t.Errorf("rank %d: before any send: got %v, err %v", w.Rank(), msgs, err)
		}

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

		again, err := q.Messages()
		if err != nil || len(again) != 1 || again[0] != prev {
			t.Errorf("rank %d: second read not stable: got %v, err %v", w.Rank(), again, err)
		}

		w.Sync()
		if msgs, err := q.Messages(); err != nil || len(msgs) != 0 {
			t.Errorf("rank %d: after next sync: got %v, err %v", w.Rank(), msgs, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

// TestAbortPropagates checks that one worker rank calling Abort
// reaches rank 0 over its uplink, gets relayed to every other rank,
// and unblocks a Barrier that would otherwise hang forever.
func TestAbortPropagates(t *testing.T) {
	const p = 4
	err := bspnet.Spawn(p, func(w bsp.World) error {
		if w.Rank() == 2 {
			w.Abort("simulated fatal condition")
			return nil
		}
		w.Barrier()
		return nil
	})

	var abortErr *bsp.AbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("Spawn: got %v, want *bsp.AbortError", err)
	}
	if abortErr.Rank != 2 {
		t.Errorf("AbortError.Rank: got %d, want 2", abortErr.Rank)
	}
}

// TestAbortFromCoordinator checks the same propagation when it is
// rank 0, the relay/barrier coordinator itself, that aborts.
func TestAbortFromCoordinator(t *testing.T) {
	const p = 3
	err := bspnet.Spawn(p, func(w bsp.World) error {
		if w.Rank() == 0 {
			w.Abort("coordinator failure")
			return nil
		}
		w.Barrier()
		return nil
	})

	var abortErr *bsp.AbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("Spawn: got %v, want *bsp.AbortError", err)
	}
	if abortErr.Rank != 0 {
		t.Errorf("AbortError.Rank: got %d, want 0", abortErr.Rank)
	}
}

// TestSingleProcessor checks the P=1 boundary: spawnSingle skips
// networking entirely and every remote operation targets the caller's
// own rank.
func TestSingleProcessor(t *testing.T) {
	err := bspnet.Spawn(1, func(w bsp.World) error {
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
// nonpositive processor count before opening a listener.
func TestConfigurationErrorOnBadProcessorCount(t *testing.T) {
	err := bspnet.Spawn(0, func(w bsp.World) error { return nil })
	var cfgErr *bsp.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Spawn(0, ...): got %v, want *bsp.ConfigurationError", err)
	}
}

// TestLogSinkCollectsRankOrder checks that every rank's Log call,
// relayed to rank 0 over TCP, reaches Options.WithLogSink in rank
// order.
func TestLogSinkCollectsRankOrder(t *testing.T) {
	const p = 6
	var mu sync.Mutex
	var lines []string

	opts := bsp.NewOptions().WithLogSink(func(s string) {
		mu.Lock()
		lines = append(lines, s)
		mu.Unlock()
	})

	err := bspnet.Spawn(p, func(w bsp.World) error {
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
