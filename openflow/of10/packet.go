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

package of10

import (
	"encoding/binary"

	"github.com/moonfalir/containernet/openflow"
)

type PacketIn struct {
	openflow.Message
	bufferID uint32
	length   uint16
	inPort   uint16
	reason   uint8
	data     []byte
}

func (r *PacketIn) BufferID() uint32 {
	return r.bufferID
}

func (r *PacketIn) IsBuffered() bool {
	return r.bufferID != openflow.NoBuffer
}

func (r *PacketIn) TotalLength() uint16 {
	return r.length
}

func (r *PacketIn) InPort() uint32 {
	return uint32(r.inPort)
}

func (r *PacketIn) Reason() uint8 {
	return r.reason
}

func (r *PacketIn) Data() []byte {
	return r.data
}

func (r *PacketIn) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}

	payload := r.Payload()
	if len(payload) < 10 {
		return openflow.ErrInvalidPacketLength
	}
	r.bufferID = binary.BigEndian.Uint32(payload[0:4])
	r.length = binary.BigEndian.Uint16(payload[4:6])
	r.inPort = binary.BigEndian.Uint16(payload[6:8])
	r.reason = payload[8]
	// payload[9] is padding
	r.data = payload[10:]

	return nil
}

type PacketOut struct {
	openflow.Message
	bufferID uint32
	inPort   openflow.InPort
	action   openflow.Action
	data     []byte
}

func NewPacketOut(xid uint32) openflow.PacketOut {
	return &PacketOut{
		Message:  openflow.NewMessage(openflow.OF10_VERSION, OFPT_PACKET_OUT, xid),
		bufferID: openflow.NoBuffer,
		inPort:   openflow.NewInPort(),
	}
}

func (r *PacketOut) BufferID() uint32 {
	return r.bufferID
}

func (r *PacketOut) SetBufferID(id uint32) {
	r.bufferID = id
}

func (r *PacketOut) InPort() openflow.InPort {
	return r.inPort
}

func (r *PacketOut) SetInPort(port openflow.InPort) {
	r.inPort = port
}

func (r *PacketOut) Action() openflow.Action {
	return r.action
}

func (r *PacketOut) SetAction(action openflow.Action) {
	r.action = action
}

func (r *PacketOut) Data() []byte {
	return r.data
}

func (r *PacketOut) SetData(data []byte) {
	r.data = data
}

func (r *PacketOut) MarshalBinary() ([]byte, error) {
	var action []byte
	if r.action != nil {
		a, err := r.action.MarshalBinary()
		if err != nil {
			return nil, err
		}
		action = a
	}

	v := make([]byte, 8, 8+len(action)+len(r.data))
	binary.BigEndian.PutUint32(v[0:4], r.bufferID)
	port := uint16(r.inPort.Value())
	if r.inPort.IsController() {
		port = OFPP_CONTROLLER
	}
	binary.BigEndian.PutUint16(v[4:6], port)
	binary.BigEndian.PutUint16(v[6:8], uint16(len(action)))
	v = append(v, action...)
	// The switch ignores the data if the packet is in its buffer.
	if r.bufferID == openflow.NoBuffer {
		v = append(v, r.data...)
	}

	r.SetPayload(v)
	return r.Message.MarshalBinary()
}
