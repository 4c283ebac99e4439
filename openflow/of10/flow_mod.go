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

type FlowMod struct {
	openflow.Message
	command     uint16
	cookie      uint64
	idleTimeout uint16
	hardTimeout uint16
	priority    uint16
	bufferID    uint32
	outPort     openflow.OutPort
	flags       uint16
	match       openflow.Match
	action      openflow.Action
}

func NewFlowMod(xid uint32, cmd uint16) openflow.FlowMod {
	// Default out_port value is OFPP_NONE
	outPort := openflow.NewOutPort()
	outPort.SetNone()

	return &FlowMod{
		Message:  openflow.NewMessage(openflow.OF10_VERSION, OFPT_FLOW_MOD, xid),
		command:  cmd,
		priority: OFP_DEFAULT_PRIORITY,
		bufferID: openflow.NoBuffer,
		outPort:  outPort,
	}
}

func (r *FlowMod) Command() uint16 {
	return r.command
}

func (r *FlowMod) Cookie() uint64 {
	return r.cookie
}

func (r *FlowMod) SetCookie(cookie uint64) {
	r.cookie = cookie
}

func (r *FlowMod) IdleTimeout() uint16 {
	return r.idleTimeout
}

func (r *FlowMod) SetIdleTimeout(timeout uint16) {
	r.idleTimeout = timeout
}

func (r *FlowMod) HardTimeout() uint16 {
	return r.hardTimeout
}

func (r *FlowMod) SetHardTimeout(timeout uint16) {
	r.hardTimeout = timeout
}

func (r *FlowMod) Priority() uint16 {
	return r.priority
}

func (r *FlowMod) SetPriority(priority uint16) {
	r.priority = priority
}

func (r *FlowMod) BufferID() uint32 {
	return r.bufferID
}

func (r *FlowMod) SetBufferID(id uint32) {
	r.bufferID = id
}

func (r *FlowMod) OutPort() openflow.OutPort {
	return r.outPort
}

func (r *FlowMod) SetOutPort(p openflow.OutPort) {
	r.outPort = p
}

func (r *FlowMod) Flags() uint16 {
	return r.flags
}

func (r *FlowMod) SetFlags(flags uint16) {
	r.flags = flags
}

func (r *FlowMod) FlowMatch() openflow.Match {
	return r.match
}

func (r *FlowMod) SetFlowMatch(match openflow.Match) {
	r.match = match
}

func (r *FlowMod) FlowAction() openflow.Action {
	return r.action
}

func (r *FlowMod) SetFlowAction(action openflow.Action) {
	r.action = action
}

func (r *FlowMod) MarshalBinary() ([]byte, error) {
	if r.match == nil {
		return nil, openflow.ErrMissingFlowMatch
	}
	match, err := r.match.MarshalBinary()
	if err != nil {
		return nil, err
	}

	v := make([]byte, 24)
	binary.BigEndian.PutUint64(v[0:8], r.cookie)
	binary.BigEndian.PutUint16(v[8:10], r.command)
	binary.BigEndian.PutUint16(v[10:12], r.idleTimeout)
	binary.BigEndian.PutUint16(v[12:14], r.hardTimeout)
	binary.BigEndian.PutUint16(v[14:16], r.priority)
	binary.BigEndian.PutUint32(v[16:20], r.bufferID)
	binary.BigEndian.PutUint16(v[20:22], portValue(r.outPort))
	binary.BigEndian.PutUint16(v[22:24], r.flags)

	result := append(match, v...)
	// No action means drop.
	if r.action != nil {
		action, err := r.action.MarshalBinary()
		if err != nil {
			return nil, err
		}
		result = append(result, action...)
	}

	r.SetPayload(result)
	return r.Message.MarshalBinary()
}
