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
	"net"
	"testing"

	"github.com/moonfalir/containernet/openflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchWildcardAll(t *testing.T) {
	v, err := NewMatch().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, v, 40)

	// Every flag bit plus 32 wildcard bits for both addresses.
	assert.Equal(t, uint32(0x3820FF), binary.BigEndian.Uint32(v[0:4]))
}

func TestMatchIPPrefix(t *testing.T) {
	_, src, err := net.ParseCIDR("10.0.0.0/24")
	require.NoError(t, err)

	m := NewMatch()
	m.SetSrcIP(src)
	m.SetDstIP(&net.IPNet{IP: net.IPv4(10, 0, 0, 251), Mask: net.CIDRMask(32, 32)})
	v, err := m.MarshalBinary()
	require.NoError(t, err)

	w := parseWildcard(binary.BigEndian.Uint32(v[0:4]))
	assert.Equal(t, uint8(8), w.SrcIP)
	assert.Equal(t, uint8(0), w.DstIP)
	assert.Equal(t, []byte{10, 0, 0, 0}, v[28:32])
	assert.Equal(t, []byte{10, 0, 0, 251}, v[32:36])

	decoded := NewMatch()
	require.NoError(t, decoded.UnmarshalBinary(v))
	assert.Equal(t, "10.0.0.0/24", decoded.SrcIP().String())
	assert.Equal(t, "10.0.0.251/32", decoded.DstIP().String())
}

func TestMatchKeepsFirstError(t *testing.T) {
	m := NewMatch()
	m.SetSrcMAC(net.HardwareAddr{0x01})
	m.SetSrcIP(&net.IPNet{IP: net.ParseIP("::1"), Mask: net.CIDRMask(128, 128)})

	require.Error(t, m.Error())
	assert.Contains(t, m.Error().Error(), "SetSrcMAC")
	_, err := m.MarshalBinary()
	assert.Error(t, err)
}

func TestPacketInTooShort(t *testing.T) {
	v := []byte{openflow.OF10_VERSION, OFPT_PACKET_IN, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01}

	msg := new(PacketIn)
	assert.Equal(t, openflow.ErrInvalidPacketLength, msg.UnmarshalBinary(v))
}

func TestFeaturesReplyPorts(t *testing.T) {
	v := make([]byte, 32+48)
	v[0] = openflow.OF10_VERSION
	v[1] = OFPT_FEATURES_REPLY
	binary.BigEndian.PutUint16(v[2:4], uint16(len(v)))
	binary.BigEndian.PutUint64(v[8:16], 0x0001000000000002)
	binary.BigEndian.PutUint32(v[16:20], 256)
	v[20] = 2
	port := v[32:]
	binary.BigEndian.PutUint16(port[0:2], 3)
	copy(port[2:8], []byte{0, 0, 0, 0, 0, 3})
	copy(port[8:24], "s1-eth3")
	binary.BigEndian.PutUint32(port[28:32], OFPPS_LINK_DOWN)

	msg := new(FeaturesReply)
	require.NoError(t, msg.UnmarshalBinary(v))
	assert.Equal(t, uint64(0x0001000000000002), msg.DPID())
	assert.Equal(t, uint32(256), msg.NumBuffers())
	assert.Equal(t, uint8(2), msg.NumTables())
	require.Len(t, msg.Ports(), 1)
	p := msg.Ports()[0]
	assert.Equal(t, uint32(3), p.Number())
	assert.Equal(t, "s1-eth3", p.Name())
	assert.False(t, p.IsPortDown())
	assert.True(t, p.IsLinkDown())
}

func TestSetConfig(t *testing.T) {
	msg := NewSetConfig(7)
	msg.SetFlags(openflow.FragNormal)
	msg.SetMissSendLength(0xFFFF)

	v, err := msg.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, OFPT_SET_CONFIG, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x07,
		0x00, 0x00, 0xFF, 0xFF,
	}, v)
}

func TestFlowModWithoutMatch(t *testing.T) {
	flow, err := NewFactory().NewFlowMod(openflow.FlowAdd)
	require.NoError(t, err)

	_, err = flow.MarshalBinary()
	assert.Equal(t, openflow.ErrMissingFlowMatch, err)
}

func TestActionRoundTrip(t *testing.T) {
	a := NewAction()
	flood := openflow.NewOutPort()
	flood.SetFlood()
	a.SetOutPort(flood)
	port := openflow.NewOutPort()
	port.SetValue(4)
	a.SetOutPort(port)
	// Added only once.
	a.SetOutPort(port)

	v, err := a.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, v, 16)

	decoded := NewAction()
	require.NoError(t, decoded.UnmarshalBinary(v))
	out := decoded.OutPort()
	require.Len(t, out, 2)
	assert.True(t, out[0].IsFlood())
	assert.Equal(t, uint32(4), out[1].Value())
}
