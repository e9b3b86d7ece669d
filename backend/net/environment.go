// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package net

import (
	"fmt"
	"net"
	"os"
	"sync"

	"code.hybscloud.com/bsp"
	"code.hybscloud.com/bsp/internal/wire"
	"golang.org/x/sync/errgroup"
)

// AvailableProcessors is a fixed ceiling for the net backend: one TCP
// listener plus P-1 dialed connections in a star topology, well within
// what a single host's ephemeral port range supports.
func AvailableProcessors() int {
	return 256
}

// Spawn starts nproc ranks communicating over real TCP connections on
// loopback in a star topology centered on rank 0, runs fn on each, and
// returns once every rank has returned. See the package doc for the
// topology and wire protocol.
func Spawn(nproc int, fn func(w bsp.World) error, opts ...*bsp.Options) error {
	if nproc <= 0 || nproc > AvailableProcessors() {
		return &bsp.ConfigurationError{Reason: "net: processor count out of range"}
	}

	var options bsp.Options
	if len(opts) > 0 && opts[0] != nil {
		options = *opts[0]
	}
	logSink := options.LogSink
	if logSink == nil {
		logSink = func(s string) { fmt.Fprintln(os.Stdout, s) }
	}

	if nproc == 1 {
		return spawnSingle(fn, logSink)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return &bsp.ConfigurationError{Reason: "net: listen: " + err.Error()}
	}
	addr := listener.Addr().String()

	root := newWorld(0, nproc, logSink)
	root.coord = newCoordinator(nproc)
	root.links = make(map[int]*link, nproc-1)

	var dialErrsMu sync.Mutex
	var dialErrs []error
	var dialWG sync.WaitGroup
	workerConns := make(chan workerConn, nproc-1)

	for rank := 1; rank < nproc; rank++ {
		rank := rank
		dialWG.Add(1)
		go func() {
			defer dialWG.Done()
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				dialErrsMu.Lock()
				dialErrs = append(dialErrs, err)
				dialErrsMu.Unlock()
				return
			}
			l := newLink(conn)
			if err := l.send(wire.Envelope{Kind: wire.KindHandshake, Src: rank}); err != nil {
				dialErrsMu.Lock()
				dialErrs = append(dialErrs, err)
				dialErrsMu.Unlock()
				return
			}
			workerConns <- workerConn{rank: rank, l: l}
		}()
	}

	for i := 0; i < nproc-1; i++ {
		conn, err := listener.Accept()
		if err != nil {
			_ = listener.Close()
			return &bsp.TransportError{Reason: "net: accept", Cause: err}
		}
		l := newLink(conn)
		env, err := l.recv()
		if err != nil {
			_ = listener.Close()
			return &bsp.TransportError{Reason: "net: handshake", Cause: err}
		}
		root.links[env.Src] = l
	}
	_ = listener.Close()
	dialWG.Wait()
	close(workerConns)

	if len(dialErrs) > 0 {
		return &bsp.TransportError{Reason: "net: dial", Cause: dialErrs[0]}
	}

	workers := make(map[int]*link, nproc-1)
	for wc := range workerConns {
		workers[wc.rank] = wc.l
	}

	var eg errgroup.Group
	eg.Go(func() error {
		for _, l := range root.links {
			go runHubReader(root, l)
		}
		err := fn(root)
		if err != nil {
			root.Abort(err.Error())
		}
		return err
	})

	for rank := 1; rank < nproc; rank++ {
		rank := rank
		w := newWorld(rank, nproc, logSink)
		w.uplink = workers[rank]
		eg.Go(func() error {
			go runWorkerReader(w)
			err := fn(w)
			if err != nil {
				w.Abort(err.Error())
			}
			return err
		})
	}

	runErr := eg.Wait()
	root.flushLogs()

	if aborted, rank, reason := root.abortState(); aborted {
		return &bsp.AbortError{Rank: rank, Reason: reason}
	}
	return runErr
}

type workerConn struct {
	rank int
	l    *link
}

// spawnSingle runs a single-rank net World with no networking at all:
// every remote operation's target is rank 0, which is always this
// rank, so deliver's self-shortcut handles everything locally.
func spawnSingle(fn func(w bsp.World) error, logSink func(string)) error {
	w := newWorld(0, 1, logSink)
	w.coord = newCoordinator(1)
	w.links = map[int]*link{}
	err := fn(w)
	w.flushLogs()
	if aborted, rank, reason := w.abortState(); aborted {
		return &bsp.AbortError{Rank: rank, Reason: reason}
	}
	return err
}

// runHubReader services one worker's link on rank 0: barrier and abort
// envelopes are coordinator-level concerns handled here directly,
// everything else is routed through World.deliver the same way rank
// 0's own outbound traffic is.
func runHubReader(root *World, l *link) {
	for {
		env, err := l.recv()
		if err != nil {
			return
		}
		switch env.Kind {
		case wire.KindBarrierJoin:
			if root.coord.join() {
				root.broadcastRelease()
			}
		case wire.KindAbort:
			root.recordAbort(env.Src, env.Text)
			root.broadcastAbort()
		default:
			root.deliver(env)
		}
	}
}

func runWorkerReader(w *World) {
	for {
		env, err := w.uplink.recv()
		if err != nil {
			return
		}
		switch env.Kind {
		case wire.KindBarrierRelease:
			select {
			case w.releaseCh <- struct{}{}:
			default:
			}
		case wire.KindAbort:
			w.recordAbort(env.Src, env.Text)
			w.triggerLocalAbort()
		default:
			w.handleLocal(env)
		}
	}
}
