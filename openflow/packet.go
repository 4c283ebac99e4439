/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package openflow

import (
	"encoding"
)

// NoBuffer is the buffer ID a switch reports for a packet it did not keep in
// its own buffer. It has the same value in every OpenFlow version we speak.
const NoBuffer = 0xFFFFFFFF

type PacketIn interface {
	Header
	BufferID() uint32
	// IsBuffered reports whether the switch holds the packet in its buffer.
	IsBuffered() bool
	TotalLength() uint16
	InPort() uint32
	Reason() uint8
	Data() []byte
	encoding.BinaryUnmarshaler
}

type PacketOut interface {
	Header
	BufferID() uint32
	SetBufferID(id uint32)
	InPort() InPort
	SetInPort(port InPort)
	Action() Action
	SetAction(action Action)
	Data() []byte
	SetData(data []byte)
	encoding.BinaryMarshaler
}

type FlowModCmd uint8

const (
	FlowAdd FlowModCmd = iota
	FlowModify
	FlowDelete
)

type FlowMod interface {
	Header
	Cookie() uint64
	SetCookie(cookie uint64)
	IdleTimeout() uint16
	SetIdleTimeout(timeout uint16)
	HardTimeout() uint16
	SetHardTimeout(timeout uint16)
	Priority() uint16
	SetPriority(priority uint16)
	BufferID() uint32
	SetBufferID(id uint32)
	OutPort() OutPort
	SetOutPort(port OutPort)
	FlowMatch() Match
	SetFlowMatch(match Match)
	// FlowAction may return nil, which means the flow drops matching packets.
	FlowAction() Action
	SetFlowAction(action Action)
	encoding.BinaryMarshaler
}
