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
	"encoding/binary"

	"github.com/gopher800/gopher800/curated"
)

// Sentinel errors for the wire codec.
const (
	ShortFrame   = "network: short frame (%d of %d bytes)"
	UnknownReply = "network: unknown reply opcode %#02x"
)

// Protocol levels. A connection starts at the base level and stays there
// until the peer negotiates higher with SetProtocolLevel.
const (
	ProtocolLevelBase = 1
	ProtocolLevelV2   = 2
	MaxProtocolLevel  = ProtocolLevelV2
)

// Command opcodes reserved by the device runtime. Scripts use the range
// above CmdReserved for their own traffic.
const (
	CmdNone uint8 = iota
	CmdReturnValue
	CmdColdReset
	CmdWarmReset
	CmdError

	CmdReserved uint8 = 0x10
)

// Command is a message from the device script to the external engine.
type Command struct {
	Kind  uint8
	Addr  uint32
	Value uint32

	// the device cycle count at which the command was issued
	Tick uint64
}

// CommandSize is the encoded size of a Command in bytes.
const CommandSize = 17

// Encode serialises the command into buf, which must be at least
// CommandSize bytes long.
func (c Command) Encode(buf []byte) {
	buf[0] = c.Kind
	binary.LittleEndian.PutUint32(buf[1:], c.Addr)
	binary.LittleEndian.PutUint32(buf[5:], c.Value)
	binary.LittleEndian.PutUint64(buf[9:], c.Tick)
}

// DecodeCommand deserialises a command from buf.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) < CommandSize {
		return Command{}, curated.Errorf(ShortFrame, len(buf), CommandSize)
	}
	return Command{
		Kind:  buf[0],
		Addr:  binary.LittleEndian.Uint32(buf[1:]),
		Value: binary.LittleEndian.Uint32(buf[5:]),
		Tick:  binary.LittleEndian.Uint64(buf[9:]),
	}, nil
}

// Reply opcodes sent by the external engine.
const (
	ReplyNone uint8 = iota
	ReplyReturnValue
	ReplyEnableMemoryLayer
	ReplySetMemoryLayerOffset
	ReplySetMemoryLayerSegmentOffset
	ReplySetMemoryLayerReadOnly
	ReplyReadSegmentMemory
	ReplyWriteSegmentMemory
	ReplyCopySegmentMemory
	ReplyScriptInterrupt
	ReplyGetSegmentNames
	ReplyGetMemoryLayerNames
	ReplySetProtocolLevel
	ReplyFillSegmentMemory

	numReplyKinds
)

// Reply is a message from the external engine. ReplyReturnValue correlates
// with the oldest unanswered command; ReplyScriptInterrupt is out-of-band;
// every other kind is an engine-initiated operation on the device.
type Reply struct {
	Kind  uint8
	Addr  uint32
	Value uint32
}

// ReplySize is the encoded size of a Reply in bytes.
const ReplySize = 9

// Encode serialises the reply into buf, which must be at least ReplySize
// bytes long.
func (r Reply) Encode(buf []byte) {
	buf[0] = r.Kind
	binary.LittleEndian.PutUint32(buf[1:], r.Addr)
	binary.LittleEndian.PutUint32(buf[5:], r.Value)
}

// DecodeReply deserialises a reply from buf.
func DecodeReply(buf []byte) (Reply, error) {
	if len(buf) < ReplySize {
		return Reply{}, curated.Errorf(ShortFrame, len(buf), ReplySize)
	}
	if buf[0] >= numReplyKinds {
		return Reply{}, curated.Errorf(UnknownReply, buf[0])
	}
	return Reply{
		Kind:  buf[0],
		Addr:  binary.LittleEndian.Uint32(buf[1:]),
		Value: binary.LittleEndian.Uint32(buf[5:]),
	}, nil
}

// MinProtocolLevel returns the protocol level at which a reply kind becomes
// valid. Kinds received from a peer that has not negotiated the required
// level must be rejected, not applied.
// Note that ReplySetProtocolLevel is valid at the base level. It is how a
// peer negotiates up in the first place.
func MinProtocolLevel(kind uint8) int {
	switch kind {
	case ReplyGetSegmentNames, ReplyGetMemoryLayerNames, ReplyFillSegmentMemory:
		return ProtocolLevelV2
	}
	return ProtocolLevelBase
}
