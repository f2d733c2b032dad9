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

package network_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/gopher800/gopher800/curated"
	"github.com/gopher800/gopher800/network"
	"github.com/gopher800/gopher800/test"
)

func TestCommandCodec(t *testing.T) {
	cmd := network.Command{
		Kind:  network.ReplyWriteSegmentMemory,
		Addr:  0x00000010,
		Value: 5,
		Tick:  0x1122334455667788,
	}

	var buf [network.CommandSize]byte
	cmd.Encode(buf[:])

	// little endian layout
	test.Equate(t, buf[1], uint8(0x10))
	test.Equate(t, buf[5], uint8(0x05))
	test.Equate(t, buf[9], uint8(0x88))
	test.Equate(t, buf[16], uint8(0x11))

	dec, err := network.DecodeCommand(buf[:])
	test.ExpectedSuccess(t, err)
	test.Equate(t, dec, cmd)

	_, err = network.DecodeCommand(buf[:10])
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, network.ShortFrame))
}

func TestReplyCodec(t *testing.T) {
	r := network.Reply{Kind: network.ReplyReturnValue, Addr: 1, Value: 2}

	var buf [network.ReplySize]byte
	r.Encode(buf[:])

	dec, err := network.DecodeReply(buf[:])
	test.ExpectedSuccess(t, err)
	test.Equate(t, dec, r)

	buf[0] = 0xff
	_, err = network.DecodeReply(buf[:])
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, network.UnknownReply))
}

func TestProtocolLevels(t *testing.T) {
	test.Equate(t, network.MinProtocolLevel(network.ReplyReturnValue), network.ProtocolLevelBase)
	test.Equate(t, network.MinProtocolLevel(network.ReplyScriptInterrupt), network.ProtocolLevelBase)
	test.Equate(t, network.MinProtocolLevel(network.ReplyFillSegmentMemory), network.ProtocolLevelV2)
	test.Equate(t, network.MinProtocolLevel(network.ReplyGetSegmentNames), network.ProtocolLevelV2)

	// negotiation must be possible from the base level
	test.Equate(t, network.MinProtocolLevel(network.ReplySetProtocolLevel), network.ProtocolLevelBase)
}

func TestTCPEngine(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	test.ExpectedSuccess(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	eng := network.NewTCPEngine(ln.Addr().String())
	defer eng.Shutdown()

	// nothing works before the connection is restored
	test.ExpectedFailure(t, eng.IsConnected())
	err = eng.Send(network.Command{})
	test.ExpectedSuccess(t, curated.Is(err, network.NotConnected))

	test.ExpectedSuccess(t, eng.Restore())
	test.ExpectedSuccess(t, eng.IsConnected())

	peer := <-accepted
	defer peer.Close()

	// command frame arrives at the peer intact
	cmd := network.Command{Kind: 1, Addr: 0x10, Value: 5, Tick: 99}
	test.ExpectedSuccess(t, eng.Send(cmd))

	var buf [network.CommandSize]byte
	_, err = io.ReadFull(peer, buf[:])
	test.ExpectedSuccess(t, err)
	dec, err := network.DecodeCommand(buf[:])
	test.ExpectedSuccess(t, err)
	test.Equate(t, dec, cmd)

	// reply frame is buffered for Recv
	var rbuf [network.ReplySize]byte
	network.Reply{Kind: network.ReplyReturnValue, Value: 7}.Encode(rbuf[:])
	_, err = peer.Write(rbuf[:])
	test.ExpectedSuccess(t, err)

	r, ok := waitRecv(eng)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, r.Kind, network.ReplyReturnValue)
	test.Equate(t, r.Value, uint32(7))

	// a second restore while connected is a no-op
	test.ExpectedSuccess(t, eng.Restore())
}

func TestRestoreCooldown(t *testing.T) {
	// nothing is listening on this address
	eng := network.NewTCPEngine("127.0.0.1:1")

	err := eng.Restore()
	test.ExpectedFailure(t, err)

	// an immediate retry is refused
	err = eng.Restore()
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, network.RestoreCooldown))
}

// waitRecv polls Recv until the reader goroutine has delivered a reply.
func waitRecv(eng *network.TCPEngine) (network.Reply, bool) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r, ok := eng.Recv(); ok {
			return r, true
		}
		time.Sleep(time.Millisecond)
	}
	return network.Reply{}, false
}
