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

func NewHello(xid uint32) openflow.Hello {
	return &openflow.BaseHello{
		Message: openflow.NewMessage(openflow.OF10_VERSION, OFPT_HELLO, xid),
	}
}

func NewEchoRequest(xid uint32) openflow.EchoRequest {
	return &openflow.BaseEcho{
		Message: openflow.NewMessage(openflow.OF10_VERSION, OFPT_ECHO_REQUEST, xid),
	}
}

func NewEchoReply(xid uint32) openflow.EchoReply {
	return &openflow.BaseEcho{
		Message: openflow.NewMessage(openflow.OF10_VERSION, OFPT_ECHO_REPLY, xid),
	}
}

type BarrierRequest struct {
	openflow.Message
}

func NewBarrierRequest(xid uint32) openflow.BarrierRequest {
	return &BarrierRequest{
		Message: openflow.NewMessage(openflow.OF10_VERSION, OFPT_BARRIER_REQUEST, xid),
	}
}

func (r *BarrierRequest) MarshalBinary() ([]byte, error) {
	return r.Message.MarshalBinary()
}

type BarrierReply struct {
	openflow.Message
}

func (r *BarrierReply) UnmarshalBinary(data []byte) error {
	return r.Message.UnmarshalBinary(data)
}

type SetConfig struct {
	openflow.Message
	flags          uint16
	missSendLength uint16
}

func NewSetConfig(xid uint32) openflow.SetConfig {
	return &SetConfig{
		Message:        openflow.NewMessage(openflow.OF10_VERSION, OFPT_SET_CONFIG, xid),
		flags:          OFPC_FRAG_NORMAL,
		missSendLength: 0xFFFF,
	}
}

func (r *SetConfig) Flags() openflow.ConfigFlag {
	switch r.flags {
	case OFPC_FRAG_DROP:
		return openflow.FragDrop
	case OFPC_FRAG_REASM:
		return openflow.FragReasm
	case OFPC_FRAG_MASK:
		return openflow.FragMask
	default:
		return openflow.FragNormal
	}
}

func (r *SetConfig) SetFlags(flags openflow.ConfigFlag) {
	switch flags {
	case openflow.FragDrop:
		r.flags = OFPC_FRAG_DROP
	case openflow.FragReasm:
		r.flags = OFPC_FRAG_REASM
	case openflow.FragMask:
		r.flags = OFPC_FRAG_MASK
	default:
		r.flags = OFPC_FRAG_NORMAL
	}
}

func (r *SetConfig) MissSendLength() uint16 {
	return r.missSendLength
}

func (r *SetConfig) SetMissSendLength(length uint16) {
	r.missSendLength = length
}

func (r *SetConfig) MarshalBinary() ([]byte, error) {
	v := make([]byte, 4)
	binary.BigEndian.PutUint16(v[0:2], r.flags)
	binary.BigEndian.PutUint16(v[2:4], r.missSendLength)
	r.SetPayload(v)

	return r.Message.MarshalBinary()
}
