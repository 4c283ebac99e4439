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

type Action struct {
	*openflow.BaseAction
}

func NewAction() openflow.Action {
	return &Action{
		openflow.NewBaseAction(),
	}
}

func portValue(p openflow.OutPort) uint16 {
	switch {
	case p.IsTable():
		return OFPP_TABLE
	case p.IsFlood():
		return OFPP_FLOOD
	case p.IsAll():
		return OFPP_ALL
	case p.IsController():
		return OFPP_CONTROLLER
	case p.IsNone():
		return OFPP_NONE
	case p.IsInPort():
		return OFPP_IN_PORT
	default:
		return uint16(p.Value())
	}
}

func marshalOutPort(p openflow.OutPort) []byte {
	v := make([]byte, 8)
	binary.BigEndian.PutUint16(v[0:2], OFPAT_OUTPUT)
	binary.BigEndian.PutUint16(v[2:4], 8)
	binary.BigEndian.PutUint16(v[4:6], portValue(p))
	// max_len only matters when the output port is the controller.
	binary.BigEndian.PutUint16(v[6:8], 0xFFFF)

	return v
}

func (r *Action) MarshalBinary() ([]byte, error) {
	result := make([]byte, 0)
	for _, p := range r.OutPort() {
		result = append(result, marshalOutPort(p)...)
	}

	return result, nil
}

func (r *Action) UnmarshalBinary(data []byte) error {
	buf := data
	for len(buf) >= 4 {
		t := binary.BigEndian.Uint16(buf[0:2])
		length := binary.BigEndian.Uint16(buf[2:4])
		if length < 4 || len(buf) < int(length) {
			return openflow.ErrInvalidPacketLength
		}

		if t == OFPAT_OUTPUT {
			if length < 8 {
				return openflow.ErrInvalidPacketLength
			}
			outPort := openflow.NewOutPort()
			switch v := binary.BigEndian.Uint16(buf[4:6]); v {
			case OFPP_TABLE:
				outPort.SetTable()
			case OFPP_FLOOD:
				outPort.SetFlood()
			case OFPP_ALL:
				outPort.SetAll()
			case OFPP_CONTROLLER:
				outPort.SetController()
			case OFPP_NONE:
				outPort.SetNone()
			case OFPP_IN_PORT:
				outPort.SetInPort()
			default:
				outPort.SetValue(uint32(v))
			}
			r.SetOutPort(outPort)
		}
		// Other action types are not used by us.

		buf = buf[length:]
	}

	return nil
}
