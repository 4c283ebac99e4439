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
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/moonfalir/containernet/openflow"
	"github.com/moonfalir/containernet/openflow/of10"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	hellos    chan openflow.Hello
	packetIns chan openflow.PacketIn
}

func newRecorder() *recorder {
	return &recorder{
		hellos:    make(chan openflow.Hello, 4),
		packetIns: make(chan openflow.PacketIn, 4),
	}
}

func (r *recorder) OnHello(f openflow.Factory, w Writer, v openflow.Hello) error {
	r.hellos <- v
	return nil
}

func (r *recorder) OnError(f openflow.Factory, w Writer, v openflow.Error) error {
	return nil
}

func (r *recorder) OnFeaturesReply(f openflow.Factory, w Writer, v openflow.FeaturesReply) error {
	return nil
}

func (r *recorder) OnBarrierReply(f openflow.Factory, w Writer, v openflow.BarrierReply) error {
	return nil
}

func (r *recorder) OnPacketIn(f openflow.Factory, w Writer, v openflow.PacketIn) error {
	r.packetIns <- v
	return nil
}

func message(msgType uint8, xid uint32, payload []byte) []byte {
	v := make([]byte, 8+len(payload))
	v[0] = openflow.OF10_VERSION
	v[1] = msgType
	binary.BigEndian.PutUint16(v[2:4], uint16(len(v)))
	binary.BigEndian.PutUint32(v[4:8], xid)
	copy(v[8:], payload)

	return v
}

func readMessage(t *testing.T, conn net.Conn) []byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	header := make([]byte, 8)
	_, err := io.ReadFull(conn, header)
	require.NoError(t, err)
	v := make([]byte, binary.BigEndian.Uint16(header[2:4]))
	copy(v, header)
	_, err = io.ReadFull(conn, v[8:])
	require.NoError(t, err)

	return v
}

func start(t *testing.T, handler Handler) (net.Conn, <-chan error) {
	t.Helper()

	controllerSide, switchSide := net.Pipe()
	trans := NewTransceiver(NewStream(controllerSide, 0xFFFF), handler)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		trans.Close()
		switchSide.Close()
	})

	result := make(chan error, 1)
	go func() {
		result <- trans.Run(ctx)
	}()

	return switchSide, result
}

func TestMissingHello(t *testing.T) {
	conn, result := start(t, newRecorder())

	_, err := conn.Write(message(of10.OFPT_FEATURES_REPLY, 1, make([]byte, 24)))
	require.NoError(t, err)

	select {
	case err := <-result:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("the transceiver did not give up")
	}
}

func TestEchoAndDispatch(t *testing.T) {
	handler := newRecorder()
	conn, result := start(t, handler)

	// A switch offering a newer version is still accepted.
	hello := message(of10.OFPT_HELLO, 1, nil)
	hello[0] = openflow.OF13_VERSION
	_, err := conn.Write(hello)
	require.NoError(t, err)
	select {
	case <-handler.hellos:
	case <-time.After(5 * time.Second):
		t.Fatal("HELLO was not dispatched")
	}

	_, err = conn.Write(message(of10.OFPT_ECHO_REQUEST, 42, []byte("ping")))
	require.NoError(t, err)
	reply := readMessage(t, conn)
	assert.Equal(t, uint8(of10.OFPT_ECHO_REPLY), reply[1])
	assert.Equal(t, uint32(42), binary.BigEndian.Uint32(reply[4:8]))
	assert.Equal(t, []byte("ping"), reply[8:])

	payload := make([]byte, 10+4)
	binary.BigEndian.PutUint32(payload[0:4], openflow.NoBuffer)
	binary.BigEndian.PutUint16(payload[4:6], 4)
	binary.BigEndian.PutUint16(payload[6:8], 9)
	copy(payload[10:], []byte{1, 2, 3, 4})
	_, err = conn.Write(message(of10.OFPT_PACKET_IN, 2, payload))
	require.NoError(t, err)
	select {
	case v := <-handler.packetIns:
		assert.Equal(t, uint32(9), v.InPort())
		assert.False(t, v.IsBuffered())
		assert.Equal(t, []byte{1, 2, 3, 4}, v.Data())
	case <-time.After(5 * time.Second):
		t.Fatal("PACKET_IN was not dispatched")
	}

	// A broken PACKET_IN does not cost the connection.
	_, err = conn.Write(message(of10.OFPT_PACKET_IN, 3, []byte{0x00}))
	require.NoError(t, err)
	_, err = conn.Write(message(of10.OFPT_ECHO_REQUEST, 43, nil))
	require.NoError(t, err)
	reply = readMessage(t, conn)
	assert.Equal(t, uint32(43), binary.BigEndian.Uint32(reply[4:8]))

	require.NoError(t, conn.Close())
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("the transceiver did not notice the closed connection")
	}
}
