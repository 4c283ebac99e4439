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
	"net"
	"testing"

	"github.com/moonfalir/containernet/openflow/of10"
	"github.com/moonfalir/containernet/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatchUDP(t *testing.T) {
	p := &protocol.Packet{
		SrcMAC:    net.HardwareAddr{0, 0, 0, 0, 0, 0x0a},
		DstMAC:    net.HardwareAddr{0, 0, 0, 0, 0, 0x0b},
		EtherType: protocol.EtherTypeIPv4,
		IPv4: &protocol.IPv4{
			SrcIP:    net.IPv4(10, 0, 0, 252).To4(),
			DstIP:    net.IPv4(10, 0, 0, 251).To4(),
			Protocol: protocol.IPProtocolUDP,
			TOS:      0x2e,
		},
		Transport: &protocol.Transport{SrcPort: 4433, DstPort: 53},
	}

	match, err := newExactMatch(of10.NewFactory(), 3, p)
	require.NoError(t, err)

	wildcard, port := match.InPort()
	assert.False(t, wildcard)
	assert.Equal(t, uint32(3), port)
	wildcard, mac := match.SrcMAC()
	assert.False(t, wildcard)
	assert.Equal(t, p.SrcMAC, mac)
	wildcard, mac = match.DstMAC()
	assert.False(t, wildcard)
	assert.Equal(t, p.DstMAC, mac)
	// Untagged frames match on the "no VLAN" value.
	wildcard, vlan := match.VLANID()
	assert.False(t, wildcard)
	assert.Equal(t, uint16(0xFFFF), vlan)
	wildcard, etherType := match.EtherType()
	assert.False(t, wildcard)
	assert.Equal(t, uint16(protocol.EtherTypeIPv4), etherType)
	wildcard, tos := match.TOS()
	assert.False(t, wildcard)
	assert.Equal(t, uint8(0x2c), tos)
	wildcard, proto := match.IPProtocol()
	assert.False(t, wildcard)
	assert.Equal(t, uint8(protocol.IPProtocolUDP), proto)
	assert.Equal(t, "10.0.0.252/32", match.SrcIP().String())
	assert.Equal(t, "10.0.0.251/32", match.DstIP().String())
	wildcard, srcPort := match.SrcPort()
	assert.False(t, wildcard)
	assert.Equal(t, uint16(4433), srcPort)
	wildcard, dstPort := match.DstPort()
	assert.False(t, wildcard)
	assert.Equal(t, uint16(53), dstPort)

	v, err := match.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, v, 40)
}

func TestExactMatchVLANAndARP(t *testing.T) {
	p := &protocol.Packet{
		SrcMAC:    net.HardwareAddr{0, 0, 0, 0, 0, 0x0a},
		DstMAC:    net.HardwareAddr{0, 0, 0, 0, 0, 0x0b},
		EtherType: protocol.EtherTypeARP,
		VLAN:      &protocol.VLAN{ID: 100, Priority: 5},
		ARP: &protocol.ARP{
			Operation: 2,
			SrcIP:     net.IPv4(10, 0, 0, 1).To4(),
			DstIP:     net.IPv4(10, 0, 0, 2).To4(),
		},
	}

	match, err := newExactMatch(of10.NewFactory(), 1, p)
	require.NoError(t, err)

	_, vlan := match.VLANID()
	assert.Equal(t, uint16(100), vlan)
	_, pcp := match.VLANPriority()
	assert.Equal(t, uint8(5), pcp)
	// The ARP opcode goes in nw_proto.
	wildcard, proto := match.IPProtocol()
	assert.False(t, wildcard)
	assert.Equal(t, uint8(2), proto)
	assert.Equal(t, "10.0.0.1/32", match.SrcIP().String())
	wildcard, _ = match.SrcPort()
	assert.True(t, wildcard)
	wildcard, _ = match.TOS()
	assert.True(t, wildcard)
}

func TestExactMatchDamagedIP(t *testing.T) {
	// The IPv4 layer failed to decode: only the Ethernet fields are set.
	p := &protocol.Packet{
		SrcMAC:    net.HardwareAddr{0, 0, 0, 0, 0, 0x0a},
		DstMAC:    net.HardwareAddr{0, 0, 0, 0, 0, 0x0b},
		EtherType: protocol.EtherTypeIPv4,
	}

	match, err := newExactMatch(of10.NewFactory(), 1, p)
	require.NoError(t, err)

	wildcard, _ := match.IPProtocol()
	assert.True(t, wildcard)
	wildcard, _ = match.DstPort()
	assert.True(t, wildcard)
	wildcard, _ = match.EtherType()
	assert.False(t, wildcard)
}
