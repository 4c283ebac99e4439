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
	"fmt"
	"sync/atomic"

	"github.com/moonfalir/containernet/openflow"
)

// Concrete factory
type Factory struct {
	xid uint32
}

func NewFactory() openflow.Factory {
	return &Factory{}
}

func (r *Factory) getTransactionID() uint32 {
	// Transaction ID will be started from 1, not 0.
	return atomic.AddUint32(&r.xid, 1)
}

func (r *Factory) ProtocolVersion() uint8 {
	return openflow.OF10_VERSION
}

func (r *Factory) NewHello() (openflow.Hello, error) {
	return NewHello(r.getTransactionID()), nil
}

func (r *Factory) NewEchoRequest() (openflow.EchoRequest, error) {
	return NewEchoRequest(r.getTransactionID()), nil
}

func (r *Factory) NewEchoReply() (openflow.EchoReply, error) {
	return NewEchoReply(r.getTransactionID()), nil
}

func (r *Factory) NewError() (openflow.Error, error) {
	return new(openflow.BaseError), nil
}

func (r *Factory) NewAction() (openflow.Action, error) {
	return NewAction(), nil
}

func (r *Factory) NewMatch() (openflow.Match, error) {
	return NewMatch(), nil
}

func (r *Factory) NewBarrierRequest() (openflow.BarrierRequest, error) {
	return NewBarrierRequest(r.getTransactionID()), nil
}

func (r *Factory) NewBarrierReply() (openflow.BarrierReply, error) {
	return new(BarrierReply), nil
}

func (r *Factory) NewSetConfig() (openflow.SetConfig, error) {
	return NewSetConfig(r.getTransactionID()), nil
}

func (r *Factory) NewFeaturesRequest() (openflow.FeaturesRequest, error) {
	return NewFeaturesRequest(r.getTransactionID()), nil
}

func (r *Factory) NewFeaturesReply() (openflow.FeaturesReply, error) {
	return new(FeaturesReply), nil
}

func getFlowModCmd(cmd openflow.FlowModCmd) (uint16, error) {
	switch cmd {
	case openflow.FlowAdd:
		return OFPFC_ADD, nil
	case openflow.FlowModify:
		return OFPFC_MODIFY, nil
	case openflow.FlowDelete:
		return OFPFC_DELETE, nil
	default:
		return 0, fmt.Errorf("unexpected FlowModCmd: %v", cmd)
	}
}

func (r *Factory) NewFlowMod(cmd openflow.FlowModCmd) (openflow.FlowMod, error) {
	c, err := getFlowModCmd(cmd)
	if err != nil {
		return nil, err
	}

	return NewFlowMod(r.getTransactionID(), c), nil
}

func (r *Factory) NewPacketIn() (openflow.PacketIn, error) {
	return new(PacketIn), nil
}

func (r *Factory) NewPacketOut() (openflow.PacketOut, error) {
	return NewPacketOut(r.getTransactionID()), nil
}
