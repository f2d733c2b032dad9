// This file is part of Gopher800.
//
// Gopher800 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher800 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher800.  If not, see <https://www.gnu.org/licenses/>.

package network

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/logger"
)

const logTag = "network"

// Sentinel errors for the Engine implementations.
const (
	NotConnected    = "network: not connected"
	RestoreCooldown = "network: reconnect attempted too soon"
)

// the minimum interval between reconnection attempts. busy retrying a dead
// peer helps nobody
const restoreCooldown = 3 * time.Second

// Engine is the connection to the external device engine.
//
// Send and Recv are used from the emulation goroutine. Recv never blocks;
// the emulation polls it from its pump. The notify callback, when enabled,
// fires from the engine's own reader goroutine and must only be used to
// wake the pump, never to touch emulation state directly.
type Engine interface {
	// Send transmits a command to the engine.
	Send(cmd Command) error

	// Recv returns the next buffered reply. The second return value is
	// false when no reply is waiting.
	Recv() (Reply, bool)

	// Restore attempts to (re)establish the connection. Attempts within
	// the cooldown period fail with the RestoreCooldown error.
	Restore() error

	// SetRecvNotifyEnabled turns the reply arrival callback on or off.
	SetRecvNotifyEnabled(enabled bool)

	// IsConnected returns true while the connection is usable.
	IsConnected() bool

	// Shutdown closes the connection and stops the reader.
	Shutdown()
}

// TCPEngine is an Engine over a TCP connection.
type TCPEngine struct {
	addr string

	// Notify is called from the reader goroutine when a reply arrives and
	// notifications are enabled. May be nil
	Notify func()

	crit sync.Mutex

	conn    net.Conn
	replies []Reply
	notify  bool

	lastAttempt time.Time
}

// NewTCPEngine is the preferred method of initialisation of the TCPEngine
// type. The connection is not established until the first Restore().
func NewTCPEngine(addr string) *TCPEngine {
	return &TCPEngine{addr: addr}
}

// Send implements the Engine interface.
func (e *TCPEngine) Send(cmd Command) error {
	e.crit.Lock()
	conn := e.conn
	e.crit.Unlock()

	if conn == nil {
		return curated.Errorf(NotConnected)
	}

	var buf [CommandSize]byte
	cmd.Encode(buf[:])
	if _, err := conn.Write(buf[:]); err != nil {
		e.dropConn(conn)
		return curated.Errorf("network: %v", err)
	}
	return nil
}

// Recv implements the Engine interface.
func (e *TCPEngine) Recv() (Reply, bool) {
	e.crit.Lock()
	defer e.crit.Unlock()

	if len(e.replies) == 0 {
		return Reply{}, false
	}
	r := e.replies[0]
	copy(e.replies, e.replies[1:])
	e.replies = e.replies[:len(e.replies)-1]
	return r, true
}

// Restore implements the Engine interface.
func (e *TCPEngine) Restore() error {
	e.crit.Lock()
	if e.conn != nil {
		e.crit.Unlock()
		return nil
	}
	if time.Since(e.lastAttempt) < restoreCooldown {
		e.crit.Unlock()
		return curated.Errorf(RestoreCooldown)
	}
	e.lastAttempt = time.Now()
	addr := e.addr
	e.crit.Unlock()

	conn, err := net.DialTimeout("tcp", addr, restoreCooldown)
	if err != nil {
		return curated.Errorf("network: %v", err)
	}

	e.crit.Lock()
	e.conn = conn
	e.replies = e.replies[:0]
	e.crit.Unlock()

	logger.Logf(logger.Allow, logTag, "connected to %s", addr)
	go e.reader(conn)

	return nil
}

// SetRecvNotifyEnabled implements the Engine interface.
func (e *TCPEngine) SetRecvNotifyEnabled(enabled bool) {
	e.crit.Lock()
	e.notify = enabled
	e.crit.Unlock()
}

// IsConnected implements the Engine interface.
func (e *TCPEngine) IsConnected() bool {
	e.crit.Lock()
	defer e.crit.Unlock()
	return e.conn != nil
}

// Shutdown implements the Engine interface.
func (e *TCPEngine) Shutdown() {
	e.crit.Lock()
	conn := e.conn
	e.conn = nil
	e.crit.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (e *TCPEngine) dropConn(conn net.Conn) {
	e.crit.Lock()
	if e.conn == conn {
		e.conn = nil
	}
	e.crit.Unlock()
	_ = conn.Close()
	logger.Log(logger.Allow, logTag, "connection lost")
}

// reader runs as a goroutine for the lifetime of one connection.
func (e *TCPEngine) reader(conn net.Conn) {
	var buf [ReplySize]byte

	for {
		if _, err := io.ReadFull(conn, buf[:]); err != nil {
			e.dropConn(conn)
			return
		}

		r, err := DecodeReply(buf[:])
		if err != nil {
			logger.Logf(logger.Allow, logTag, "dropping reply: %v", err)
			continue
		}

		e.crit.Lock()
		e.replies = append(e.replies, r)
		notify := e.notify && e.Notify != nil
		e.crit.Unlock()

		if notify {
			e.Notify()
		}
	}
}
