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

// Package network is the command/reply bridge between the device scripts
// and an external device engine.
//
// Commands flow outward as fixed 17 byte frames. Replies flow inward as
// fixed 9 byte frames: a ReturnValue answering the oldest unanswered
// command, a ScriptInterrupt delivered out-of-band, or an engine initiated
// operation on the device's memory. Reply kinds introduced at protocol
// level 2 are only honoured once the peer has negotiated that level with
// SetProtocolLevel; until then they are rejected rather than applied.
//
// Matching replies to commands and dispatching engine operations is the
// business of the device, not this package. See the netclient code in the
// hardware/device package.
package network
