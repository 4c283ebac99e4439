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

package network

import (
	"context"
	"encoding"
	"net"
	"time"

	"github.com/moonfalir/containernet/droplist"
	"github.com/moonfalir/containernet/events"
	"github.com/moonfalir/containernet/openflow"
	"github.com/moonfalir/containernet/openflow/transceiver"
	"github.com/moonfalir/containernet/protocol"

	"github.com/davecgh/go-spew/spew"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	errNotNegotiated = errors.New("invalid command on non-negotiated session")
)

// session is one switch connection. Every handler below runs on the
// transceiver's dispatcher goroutine, so packets are decided one at a time
// in arrival order.
type session struct {
	controller  *Controller
	device      *Device
	transceiver *transceiver.Transceiver
	decoder     *protocol.Decoder
	now         func() time.Time
	negotiated  bool
	dpid        uint64
	registered  bool
	// droplist is nil for ignored switches. It is set once, by the
	// controller, while registering the session.
	droplist *droplist.Switch
	ignored  bool
	// A cancel function to disconnect this session.
	canceller context.CancelFunc
}

func newSession(c *Controller, conn net.Conn, connected time.Time) *session {
	if c == nil {
		panic("Controller is nil")
	}
	if conn == nil {
		panic("Conn is nil")
	}

	stream := transceiver.NewStream(conn, 0xFFFF)
	v := &session{
		controller: c,
		device:     newDevice(stream.RemoteAddr(), connected),
		decoder:    protocol.NewDecoder(),
		now:        c.now,
	}
	v.transceiver = transceiver.NewTransceiver(stream, v)

	return v
}

func (r *session) OnHello(f openflow.Factory, w transceiver.Writer, v openflow.Hello) error {
	logger.Debugf("HELLO (ver=%v) is received from %v", v.Version(), r.device.RemoteAddr())

	// Ignore duplicated HELLO messages
	if r.negotiated {
		return nil
	}
	r.device.setFactory(f)
	r.negotiated = true

	if err := sendHello(f, w); err != nil {
		return errors.Wrap(err, "failed to send HELLO")
	}
	if err := sendFeaturesRequest(f, w); err != nil {
		return errors.Wrap(err, "failed to send FEATURES_REQUEST")
	}
	if err := sendSetConfig(f, w); err != nil {
		return errors.Wrap(err, "failed to send SET_CONFIG")
	}
	if err := sendBarrierRequest(f, w); err != nil {
		return errors.Wrap(err, "failed to send BARRIER_REQUEST")
	}
	// Start from an empty flow table so that no stale rule hides traffic
	// from the controller.
	if err := sendRemovingAllFlows(f, w); err != nil {
		return errors.Wrap(err, "failed to send the delete-all FLOW_MOD")
	}

	return sendBarrierRequest(f, w)
}

func (r *session) OnError(f openflow.Factory, w transceiver.Writer, v openflow.Error) error {
	// Is this the CHECK_OVERLAP error?
	if v.Class() == 3 && v.Code() == 1 {
		logger.Debug("FLOW_MOD is overlapped")
		return nil
	}
	logger.Errorf("ERROR from %v (class=%v, code=%v, data=%v)", r.name(), v.Class(), v.Code(), v.Data())

	return nil
}

func (r *session) OnFeaturesReply(f openflow.Factory, w transceiver.Writer, v openflow.FeaturesReply) error {
	logger.Debugf("FEATURES_REPLY (DPID=%v, NumBufs=%v, NumTables=%v)", v.DPID(), v.NumBuffers(), v.NumTables())

	if !r.negotiated {
		return errNotNegotiated
	}
	// The switch may answer again if it sees another FEATURES_REQUEST.
	if r.registered {
		logger.Debugf("ignoring an additional FEATURES_REPLY from %v", r.name())
		return nil
	}

	r.device.setFeatures(Features{
		DPID:       v.DPID(),
		NumBuffers: v.NumBuffers(),
		NumTables:  v.NumTables(),
		NumPorts:   len(v.Ports()),
	})
	r.device.setID(FormatDPID(v.DPID()))
	r.dpid = v.DPID()

	if err := r.controller.register(r); err != nil {
		return err
	}
	r.registered = true

	return nil
}

func (r *session) OnBarrierReply(f openflow.Factory, w transceiver.Writer, v openflow.BarrierReply) error {
	logger.Debugf("BARRIER_REPLY (xid=%v) is received from %v", v.TransactionID(), r.name())
	return nil
}

func (r *session) OnPacketIn(f openflow.Factory, w transceiver.Writer, v openflow.PacketIn) error {
	if !r.negotiated {
		return errNotNegotiated
	}
	// Unregistered and ignored switches are left alone.
	if !r.registered || r.droplist == nil {
		return nil
	}

	dpid := r.device.ID()
	packetInTotal.WithLabelValues(dpid).Inc()

	packet, err := r.decoder.Decode(v.Data())
	if err != nil {
		decodeErrorsTotal.Inc()
		logger.Warningf("ignoring an undecodable PACKET_IN from %v.%v: %v", dpid, v.InPort(), err)
		return nil
	}
	if logger.IsEnabledFor(logging.DEBUG) {
		logger.Debugf("PACKET_IN (device=%v, inport=%v, buffer=%v): %v", dpid, v.InPort(), v.BufferID(), spew.Sdump(packet))
	}

	now := r.now()
	d := r.droplist.Decide(now, v.InPort(), packet)
	logger.Debugf("%v.%v: %v -> %v: %v", dpid, v.InPort(), packet.SrcMAC, packet.DstMAC, d)
	decisionsTotal.WithLabelValues(d.Kind.String(), string(d.Reason)).Inc()
	if d.Kind == droplist.Drop && d.Reason == droplist.ReasonDroplist {
		droplistDropsTotal.WithLabelValues(dpid, string(d.Role)).Inc()
		r.publish(now, v.InPort(), packet, d)
	}

	msg, err := newCommand(f, v, packet, d)
	if err != nil {
		logger.Errorf("failed to build the command for %v on %v: %v", d, dpid, err)
		return nil
	}
	if msg == nil {
		return nil
	}
	r.send(msg)

	return nil
}

func (r *session) publish(now time.Time, inPort uint32, p *protocol.Packet, d droplist.Decision) {
	e := events.Event{
		Time:     now,
		DPID:     r.device.ID(),
		InPort:   inPort,
		Role:     string(d.Role),
		Sequence: d.Sequence,
	}
	if p.IPv4 != nil {
		e.SrcIP = p.IPv4.SrcIP.String()
		e.DstIP = p.IPv4.DstIP.String()
		e.Protocol = p.IPv4.Protocol
	}

	if err := r.controller.publisher.Publish(e); err != nil {
		logger.Warningf("failed to publish the drop event: %v", err)
	}
}

// send queues msg for the device writer. A full queue costs this command
// only.
func (r *session) send(msg encoding.BinaryMarshaler) {
	err := r.device.SendMessage(msg)
	switch {
	case err == nil:
		return
	case err == ErrQueueFull:
		commandsDroppedTotal.WithLabelValues(r.device.ID()).Inc()
		logger.Errorf("dropping a command for %v: %v", r.name(), err)
	default:
		logger.Debugf("failed to send a command to %v: %v", r.name(), err)
	}
}

func (r *session) name() string {
	if id := r.device.ID(); id != "" {
		return id
	}

	return r.device.RemoteAddr().String()
}

func (r *session) Run(ctx context.Context) {
	sessionCtx, canceller := context.WithCancel(ctx)
	defer canceller()
	// This canceller will be used to disconnect this session when it is necessary.
	r.canceller = canceller

	go r.device.runWriter(sessionCtx, r.transceiver)

	if err := r.transceiver.Run(sessionCtx); err != nil {
		logger.Errorf("openflow transceiver is unexpectedly closed: %v", err)
	}
	logger.Infof("disconnected device (DPID=%v, addr=%v)", r.device.ID(), r.device.RemoteAddr())

	canceller()
	r.transceiver.Close()
	r.device.Close()
	if r.registered {
		r.controller.unregister(r)
	}
}

// newCommand translates a decision into the message for the switch. It
// returns nil when nothing should be sent.
func newCommand(f openflow.Factory, in openflow.PacketIn, p *protocol.Packet, d droplist.Decision) (encoding.BinaryMarshaler, error) {
	switch d.Kind {
	case droplist.Drop:
		// An unbuffered packet is gone already.
		if !in.IsBuffered() {
			return nil, nil
		}
		return newPacketOut(f, in, nil)
	case droplist.Flood:
		outPort := openflow.NewOutPort()
		outPort.SetFlood()
		return newPacketOut(f, in, &outPort)
	case droplist.Forward:
		outPort := openflow.NewOutPort()
		outPort.SetValue(d.Port)
		return newPacketOut(f, in, &outPort)
	case droplist.InstallDrop:
		return newDropFlow(f, in, p, d)
	case droplist.Withhold:
		return nil, nil
	default:
		return nil, errors.Errorf("unexpected decision kind: %v", d.Kind)
	}
}

// newPacketOut returns a PACKET_OUT for the packet in. A nil outPort means
// no action, which drops the buffered packet.
func newPacketOut(f openflow.Factory, in openflow.PacketIn, outPort *openflow.OutPort) (openflow.PacketOut, error) {
	out, err := f.NewPacketOut()
	if err != nil {
		return nil, err
	}

	inPort := openflow.NewInPort()
	inPort.SetValue(in.InPort())
	out.SetInPort(inPort)
	if outPort != nil {
		action, err := f.NewAction()
		if err != nil {
			return nil, err
		}
		action.SetOutPort(*outPort)
		out.SetAction(action)
	}
	if in.IsBuffered() {
		out.SetBufferID(in.BufferID())
	} else {
		out.SetData(in.Data())
	}

	return out, nil
}

func newDropFlow(f openflow.Factory, in openflow.PacketIn, p *protocol.Packet, d droplist.Decision) (openflow.FlowMod, error) {
	match, err := newExactMatch(f, in.InPort(), p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build the flow match")
	}

	flow, err := f.NewFlowMod(openflow.FlowAdd)
	if err != nil {
		return nil, err
	}
	flow.SetFlowMatch(match)
	flow.SetIdleTimeout(d.IdleTimeout)
	flow.SetHardTimeout(d.HardTimeout)
	// The switch discards the held packet together with the new flow.
	if in.IsBuffered() {
		flow.SetBufferID(in.BufferID())
	}

	return flow, nil
}

func sendHello(f openflow.Factory, w transceiver.Writer) error {
	msg, err := f.NewHello()
	if err != nil {
		return err
	}

	return w.Write(msg)
}

func sendSetConfig(f openflow.Factory, w transceiver.Writer) error {
	msg, err := f.NewSetConfig()
	if err != nil {
		return err
	}
	msg.SetFlags(openflow.FragNormal)
	msg.SetMissSendLength(0xFFFF)

	return w.Write(msg)
}

func sendFeaturesRequest(f openflow.Factory, w transceiver.Writer) error {
	msg, err := f.NewFeaturesRequest()
	if err != nil {
		return err
	}

	return w.Write(msg)
}

func sendBarrierRequest(f openflow.Factory, w transceiver.Writer) error {
	msg, err := f.NewBarrierRequest()
	if err != nil {
		return err
	}

	return w.Write(msg)
}

func sendRemovingAllFlows(f openflow.Factory, w transceiver.Writer) error {
	match, err := f.NewMatch() // Wildcard
	if err != nil {
		return err
	}

	msg, err := f.NewFlowMod(openflow.FlowDelete)
	if err != nil {
		return err
	}
	msg.SetFlowMatch(match)

	return w.Write(msg)
}
