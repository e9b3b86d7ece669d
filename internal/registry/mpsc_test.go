// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry

import (
	"sort"
	"sync"
	"testing"
)

func TestMPSCRingPushPopOrder(t *testing.T) {
	r := newMPSCRing(4)
	for i := 0; i < 3; i++ {
		if !r.tryPush([]byte{byte(i)}) {
			t.Fatalf("tryPush(%d): want true", i)
		}
	}
	for i := 0; i < 3; i++ {
		got, ok := r.tryPop()
		if !ok || len(got) != 1 || got[0] != byte(i) {
			t.Fatalf("tryPop() = %v, %v; want [%d], true", got, ok, i)
		}
	}
	if _, ok := r.tryPop(); ok {
		t.Fatal("tryPop() on empty ring: want false")
	}
}

func TestMPSCRingFullReportsFalse(t *testing.T) {
	r := newMPSCRing(2) // rounds up to capacity 2
	for i := 0; i < int(r.capacity); i++ {
		if !r.tryPush([]byte{byte(i)}) {
			t.Fatalf("tryPush(%d): want true", i)
		}
	}
	if r.tryPush([]byte{99}) {
		t.Fatal("tryPush on full ring: want false")
	}
}

func TestMPSCRingConcurrentProducers(t *testing.T) {
	const producers = 16
	const perProducer = 200
	r := newMPSCRing(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				payload := []byte{byte(p), byte(i)}
				for !r.tryPush(payload) {
				}
			}
		}()
	}
	wg.Wait()

	seen := make(map[[2]byte]int)
	for {
		got, ok := r.tryPop()
		if !ok {
			break
		}
		seen[[2]byte{got[0], got[1]}]++
	}

	if len(seen) != producers*perProducer {
		t.Fatalf("got %d distinct messages, want %d", len(seen), producers*perProducer)
	}
	for k, count := range seen {
		if count != 1 {
			t.Fatalf("message %v delivered %d times, want 1", k, count)
		}
	}
}

func TestInboxOverflowPreservesAllMessages(t *testing.T) {
	ib := NewInbox()
	const n = inboxFastPathCapacity + 100
	for i := 0; i < n; i++ {
		ib.Push([]byte{byte(i % 256), byte(i / 256)})
	}
	got := ib.Drain()
	if len(got) != n {
		t.Fatalf("Drain: got %d messages, want %d", len(got), n)
	}

	idx := make([]int, n)
	for i, b := range got {
		idx[i] = int(b[0]) | int(b[1])<<8
	}
	sort.Ints(idx)
	for i, v := range idx {
		if v != i {
			t.Fatalf("Drain lost or duplicated message: sorted[%d] = %d", i, v)
		}
	}

	if more := ib.Drain(); len(more) != 0 {
		t.Fatalf("second Drain: got %v, want empty", more)
	}
}
