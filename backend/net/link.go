// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package net

import (
	"encoding/gob"
	"net"
	"sync"

	"code.hybscloud.com/bsp/internal/wire"
)

// link is one TCP connection carrying gob-encoded wire.Envelope
// values in both directions. Writes are mutex-guarded because rank 0
// relays envelopes from several reader goroutines onto the same
// outbound link concurrently with its own traffic.
type link struct {
	conn net.Conn
	enc  *gob.Encoder
	dec  *gob.Decoder

	wmu sync.Mutex
}

func newLink(conn net.Conn) *link {
	return &link{conn: conn, enc: gob.NewEncoder(conn), dec: gob.NewDecoder(conn)}
}

func (l *link) send(env wire.Envelope) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	return l.enc.Encode(&env)
}

func (l *link) recv() (wire.Envelope, error) {
	var env wire.Envelope
	err := l.dec.Decode(&env)
	return env, err
}

func (l *link) Close() error {
	return l.conn.Close()
}
