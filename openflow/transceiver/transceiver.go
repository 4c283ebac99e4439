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

package transceiver

import (
	"context"
	"encoding"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/moonfalir/containernet/openflow"
	"github.com/moonfalir/containernet/openflow/of10"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("transceiver")
)

const (
	// Allowed idle time before we send an echo request to a switch.
	maxIdleTime = 10 * time.Second
	// I/O timeouts. Both should be less than maxIdleTime.
	readTimeout  = 1 * time.Second
	writeTimeout = readTimeout * 2
	// Time allowed for the switch to send its HELLO.
	helloTimeout = 30 * time.Second
	// Number of unanswered echo requests before we give up on a switch.
	maxPendingEcho = 3
	// Incoming messages waiting for the dispatcher.
	readerQueueSize = 4096
)

type Writer interface {
	Write(msg encoding.BinaryMarshaler) error
}

// Handler receives the messages we care about, in arrival order, from a
// single goroutine. A returned error closes the connection unless it is a
// temporary one.
type Handler interface {
	OnHello(openflow.Factory, Writer, openflow.Hello) error
	OnError(openflow.Factory, Writer, openflow.Error) error
	OnFeaturesReply(openflow.Factory, Writer, openflow.FeaturesReply) error
	OnBarrierReply(openflow.Factory, Writer, openflow.BarrierReply) error
	OnPacketIn(openflow.Factory, Writer, openflow.PacketIn) error
}

type Transceiver struct {
	stream      *Stream
	observer    Handler
	factory     openflow.Factory
	pendingEcho uint32
	negotiated  uint32
	closed      uint32
}

func NewTransceiver(stream *Stream, handler Handler) *Transceiver {
	if stream == nil {
		panic("stream is nil")
	}
	if handler == nil {
		panic("handler is nil")
	}

	return &Transceiver{
		stream:   stream,
		observer: handler,
		// We only speak OpenFlow 1.0.
		factory: of10.NewFactory(),
	}
}

func (r *Transceiver) Factory() openflow.Factory {
	return r.factory
}

// Negotiated reports whether the switch has sent a usable HELLO.
func (r *Transceiver) Negotiated() bool {
	return atomic.LoadUint32(&r.negotiated) == 1
}

func isTimeout(err error) bool {
	v, ok := errors.Cause(err).(interface{ Timeout() bool })
	return ok && v.Timeout()
}

func isTemporaryErr(err error) bool {
	e, ok := errors.Cause(err).(interface{ Temporary() bool })
	return ok && e.Temporary()
}

// Run reads and dispatches messages until ctx is canceled or the connection
// fails. It returns nil when the switch simply goes away.
func (r *Transceiver) Run(ctx context.Context) error {
	defer logger.Debugf("transceiver for %v is closed", r.stream.RemoteAddr())
	r.stream.SetReadTimeout(readTimeout)
	r.stream.SetWriteTimeout(writeTimeout)

	readerCtx, cancelReader := context.WithCancel(ctx)
	defer cancelReader()
	reader := r.runReader(readerCtx)

	packet, err := r.negotiate(ctx, reader)
	if err != nil {
		return errors.Wrap(err, "failed to negotiate the protocol version")
	}

	for {
		if err := r.dispatch(packet); err != nil {
			if !isTemporaryErr(err) {
				return err
			}
			logger.Errorf("failed to dispatch the packet: %v", err)
		}

		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case packet, ok = <-reader:
			if !ok {
				logger.Debug("the reader channel is closed")
				return nil
			}
		}
	}
}

func (r *Transceiver) negotiate(ctx context.Context, reader <-chan []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, errors.New("context done")
	case <-time.After(helloTimeout):
		return nil, errors.New("inactive for too long")
	case packet, ok := <-reader:
		if !ok {
			return nil, errors.New("the reader channel is closed")
		}
		if packet[1] != of10.OFPT_HELLO {
			return nil, errors.New("missing HELLO message")
		}
		// A switch offering a newer version falls back to ours when it
		// receives our HELLO.
		if packet[0] < openflow.OF10_VERSION {
			return nil, openflow.ErrUnsupportedVersion
		}
		atomic.StoreUint32(&r.negotiated, 1)
		logger.Debugf("negotiated to OpenFlow 1.0 (switch offered version %v)", packet[0])

		return packet, nil
	}
}

func (r *Transceiver) runReader(ctx context.Context) <-chan []byte {
	c := make(chan []byte, readerQueueSize)

	go func() {
		// Closing c tells the dispatcher that the connection is gone.
		defer close(c)

		lastActivated := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			packet, err := r.readPacket()
			if err != nil {
				if !isTimeout(err) {
					logger.Debugf("failed to read the next packet: %v", err)
					return
				}
				if time.Since(lastActivated) > maxIdleTime {
					if err := r.sendEchoRequest(); err != nil {
						logger.Errorf("failed to send an echo request: %v", err)
						return
					}
					lastActivated = time.Now()
				}
				continue
			}
			lastActivated = time.Now()

			ok, err := r.handleEcho(packet)
			if err != nil {
				logger.Errorf("failed to handle the echo message: %v", err)
				return
			}
			if ok {
				continue
			}

			select {
			case c <- packet:
			default:
				logger.Error("transceiver buffer full: drop the incoming packet!")
			}
		}
	}()

	return c
}

func (r *Transceiver) readPacket() ([]byte, error) {
	header, err := r.stream.Peek(8) // ofp_header
	if err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint16(header[2:4])
	if length < 8 {
		return nil, openflow.ErrInvalidPacketLength
	}

	return r.stream.ReadN(int(length))
}

func (r *Transceiver) Write(msg encoding.BinaryMarshaler) error {
	packet, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := r.stream.Write(packet); err != nil {
		return err
	}

	return nil
}

func (r *Transceiver) sendEchoRequest() error {
	if atomic.LoadUint32(&r.pendingEcho) >= maxPendingEcho {
		return errors.New("device does not respond to our echo request")
	}

	echo, err := r.factory.NewEchoRequest()
	if err != nil {
		return err
	}
	// The timestamp comes back in the reply so we can measure latency.
	timestamp, err := time.Now().GobEncode()
	if err != nil {
		return err
	}
	echo.SetData(timestamp)

	if err := r.Write(echo); err != nil {
		return errors.Wrap(err, "failed to send ECHO_REQUEST message")
	}
	atomic.AddUint32(&r.pendingEcho, 1)

	return nil
}

func (r *Transceiver) handleEcho(packet []byte) (handled bool, err error) {
	if packet[0] != openflow.OF10_VERSION {
		return false, nil
	}

	switch packet[1] {
	case of10.OFPT_ECHO_REQUEST:
		return true, r.handleEchoRequest(packet)
	case of10.OFPT_ECHO_REPLY:
		return true, r.handleEchoReply(packet)
	default:
		return false, nil
	}
}

func (r *Transceiver) handleEchoRequest(packet []byte) error {
	msg, err := r.factory.NewEchoRequest()
	if err != nil {
		return err
	}
	if err := msg.UnmarshalBinary(packet); err != nil {
		return err
	}

	reply, err := r.factory.NewEchoReply()
	if err != nil {
		return err
	}
	reply.SetTransactionID(msg.TransactionID())
	reply.SetData(msg.Data())

	if err := r.Write(reply); err != nil {
		return errors.Wrap(err, "failed to send ECHO_REPLY message")
	}

	return nil
}

func (r *Transceiver) handleEchoReply(packet []byte) error {
	msg, err := r.factory.NewEchoReply()
	if err != nil {
		return err
	}
	if err := msg.UnmarshalBinary(packet); err != nil {
		return err
	}
	atomic.StoreUint32(&r.pendingEcho, 0)

	// Some switches echo back garbage. That is not worth a disconnection.
	timestamp := time.Time{}
	if err := timestamp.GobDecode(msg.Data()); err != nil {
		return nil
	}
	logger.Debugf("%v latency: %v", r.stream.RemoteAddr(), time.Since(timestamp))

	return nil
}

func (r *Transceiver) dispatch(packet []byte) error {
	if packet[0] != openflow.OF10_VERSION && packet[1] != of10.OFPT_HELLO {
		return fmt.Errorf("mis-matched OpenFlow version: negotiated=%v, packet=%v", openflow.OF10_VERSION, packet[0])
	}

	switch packet[1] {
	case of10.OFPT_HELLO:
		return r.handleHello(packet)
	case of10.OFPT_ERROR:
		return r.handleError(packet)
	case of10.OFPT_FEATURES_REPLY:
		return r.handleFeaturesReply(packet)
	case of10.OFPT_BARRIER_REPLY:
		return r.handleBarrierReply(packet)
	case of10.OFPT_PACKET_IN:
		return r.handlePacketIn(packet)
	default:
		// PORT_STATUS, FLOW_REMOVED and the others are not used.
		return nil
	}
}

func (r *Transceiver) handleHello(packet []byte) error {
	msg, err := r.factory.NewHello()
	if err != nil {
		return err
	}
	if err := msg.UnmarshalBinary(packet); err != nil {
		return err
	}

	return r.observer.OnHello(r.factory, r, msg)
}

func (r *Transceiver) handleError(packet []byte) error {
	msg, err := r.factory.NewError()
	if err != nil {
		return err
	}
	if err := msg.UnmarshalBinary(packet); err != nil {
		return err
	}

	return r.observer.OnError(r.factory, r, msg)
}

func (r *Transceiver) handleFeaturesReply(packet []byte) error {
	msg, err := r.factory.NewFeaturesReply()
	if err != nil {
		return err
	}
	if err := msg.UnmarshalBinary(packet); err != nil {
		return err
	}

	return r.observer.OnFeaturesReply(r.factory, r, msg)
}

func (r *Transceiver) handleBarrierReply(packet []byte) error {
	msg, err := r.factory.NewBarrierReply()
	if err != nil {
		return err
	}
	if err := msg.UnmarshalBinary(packet); err != nil {
		return err
	}

	return r.observer.OnBarrierReply(r.factory, r, msg)
}

func (r *Transceiver) handlePacketIn(packet []byte) error {
	msg, err := r.factory.NewPacketIn()
	if err != nil {
		return err
	}
	// A broken PACKET_IN costs us that packet, not the connection.
	if err := msg.UnmarshalBinary(packet); err != nil {
		logger.Warningf("ignoring malformed PACKET_IN from %v: %v", r.stream.RemoteAddr(), err)
		return nil
	}

	return r.observer.OnPacketIn(r.factory, r, msg)
}

func (r *Transceiver) Close() error {
	if !atomic.CompareAndSwapUint32(&r.closed, 0, 1) {
		return nil
	}

	return r.stream.Close()
}
