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

package droplist

import (
	"net"
	"testing"
	"time"

	"github.com/moonfalir/containernet/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	macA      = net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x0a}
	macB      = net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x0b}
	macC      = net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x0c}
	broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	lldpDst   = net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e}
	stpDst    = net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x00}
	otherIP   = net.IPv4(10, 0, 0, 1)
	epoch     = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func ethernet(src, dst net.HardwareAddr) *protocol.Packet {
	return &protocol.Packet{SrcMAC: src, DstMAC: dst, EtherType: protocol.EtherTypeARP}
}

func ipPacket(src, dst net.HardwareAddr, srcIP net.IP, proto uint8) *protocol.Packet {
	return &protocol.Packet{
		SrcMAC:    src,
		DstMAC:    dst,
		EtherType: protocol.EtherTypeIPv4,
		IPv4: &protocol.IPv4{
			SrcIP:    srcIP.To4(),
			DstIP:    otherIP.To4(),
			Protocol: proto,
		},
	}
}

func newTestSwitch(c Config) *Switch {
	if c.ClientIP == nil {
		c.ClientIP = DefaultClientIP
	}
	if c.ServerIP == nil {
		c.ServerIP = DefaultServerIP
	}

	return NewSwitch("00-00-00-00-00-01", c, epoch)
}

func TestSourceIsAlwaysLearned(t *testing.T) {
	sw := newTestSwitch(Config{ClientDroplist: []uint64{1}})

	packets := []struct {
		inPort uint32
		packet *protocol.Packet
	}{
		// Dropped by the droplist.
		{1, ipPacket(macA, macB, DefaultClientIP, protocol.IPProtocolUDP)},
		// Dropped as link-local.
		{2, ethernet(macA, lldpDst)},
		// Flooded.
		{3, ethernet(macA, broadcast)},
		// Same port as the learned destination.
		{4, ethernet(macA, macA)},
	}

	for _, p := range packets {
		sw.Decide(epoch, p.inPort, p.packet)
		port, ok := sw.Lookup(macA)
		require.True(t, ok)
		assert.Equal(t, p.inPort, port)
	}
}

func TestDroplistClient(t *testing.T) {
	sw := newTestSwitch(Config{ClientDroplist: []uint64{2, 5}})

	var dropped []int
	for i := 1; i <= 5; i++ {
		proto := uint8(protocol.IPProtocolTCP)
		if i%2 == 0 {
			proto = protocol.IPProtocolUDP
		}
		d := sw.Decide(epoch, 1, ipPacket(macA, macB, DefaultClientIP, proto))
		if d.Kind == Drop && d.Reason == ReasonDroplist {
			dropped = append(dropped, i)
			assert.Equal(t, RoleClient, d.Role)
			assert.Equal(t, uint64(i), d.Sequence)
		}
	}
	assert.Equal(t, []int{2, 5}, dropped)

	status := sw.Status()
	assert.Equal(t, uint64(5), status.ClientCounter)
	assert.Equal(t, uint64(0), status.ServerCounter)
}

func TestDroplistIgnoresOtherTraffic(t *testing.T) {
	sw := newTestSwitch(Config{ClientDroplist: []uint64{1}, ServerDroplist: []uint64{1}})

	packets := []*protocol.Packet{
		// Neither client nor server.
		ipPacket(macA, macB, otherIP, protocol.IPProtocolTCP),
		ipPacket(macA, macB, otherIP, protocol.IPProtocolUDP),
		// Client and server, but not TCP or UDP.
		ipPacket(macA, macB, DefaultClientIP, protocol.IPProtocolICMP),
		ipPacket(macA, macB, DefaultServerIP, protocol.IPProtocolICMP),
		// Not IP at all, or a damaged IP header.
		ethernet(macA, macB),
	}
	for _, p := range packets {
		d := sw.Decide(epoch, 1, p)
		assert.NotEqual(t, ReasonDroplist, d.Reason)
	}

	status := sw.Status()
	assert.Equal(t, uint64(0), status.ClientCounter)
	assert.Equal(t, uint64(0), status.ServerCounter)
}

func TestDroplistServer(t *testing.T) {
	sw := newTestSwitch(Config{ClientDroplist: []uint64{1}, ServerDroplist: []uint64{3}})

	// Client traffic does not move the server counter.
	d := sw.Decide(epoch, 1, ipPacket(macA, macB, DefaultClientIP, protocol.IPProtocolTCP))
	assert.Equal(t, RoleClient, d.Role)

	for i := 1; i <= 3; i++ {
		d = sw.Decide(epoch, 2, ipPacket(macB, macA, DefaultServerIP, protocol.IPProtocolUDP))
	}
	assert.Equal(t, Drop, d.Kind)
	assert.Equal(t, RoleServer, d.Role)
	assert.Equal(t, uint64(3), d.Sequence)
	assert.Equal(t, uint64(1), sw.Status().ClientCounter)
}

func TestUnknownDestinationFloods(t *testing.T) {
	sw := newTestSwitch(Config{})

	d := sw.Decide(epoch, 1, ethernet(macA, macB))
	assert.Equal(t, Flood, d.Kind)
	assert.Equal(t, ReasonUnknownDst, d.Reason)
}

func TestHoldDown(t *testing.T) {
	sw := newTestSwitch(Config{HoldDown: 5 * time.Second})

	tests := []struct {
		offset   time.Duration
		dst      net.HardwareAddr
		expected Kind
		reason   Reason
	}{
		{0, broadcast, Withhold, ReasonMulticast},
		{0, macB, Withhold, ReasonUnknownDst},
		{4 * time.Second, broadcast, Withhold, ReasonMulticast},
		{4 * time.Second, macB, Withhold, ReasonUnknownDst},
		{5 * time.Second, macB, Flood, ReasonUnknownDst},
		{5 * time.Second, broadcast, Flood, ReasonMulticast},
		{6 * time.Second, broadcast, Flood, ReasonMulticast},
		{time.Hour, macB, Flood, ReasonUnknownDst},
	}
	for _, test := range tests {
		d := sw.Decide(epoch.Add(test.offset), 1, ethernet(macA, test.dst))
		if d.Kind != test.expected || d.Reason != test.reason {
			t.Fatalf("offset %v, dst %v: expected=%v/%v, got=%v/%v", test.offset, test.dst, test.expected, test.reason, d.Kind, d.Reason)
		}
	}
	assert.True(t, sw.Status().HoldDownExpired)
	assert.Equal(t, uint64(4), sw.Status().Decisions["withhold"])
}

func TestSamePortInstallsDrop(t *testing.T) {
	sw := newTestSwitch(Config{})
	sw.Decide(epoch, 3, ethernet(macB, macA))

	// Whatever else the packet carries, macB on port 3 means a timed drop.
	packets := []*protocol.Packet{
		ethernet(macA, macB),
		ipPacket(macC, macB, otherIP, protocol.IPProtocolTCP),
		ipPacket(macA, macB, DefaultServerIP, protocol.IPProtocolICMP),
	}
	for _, p := range packets {
		d := sw.Decide(epoch, 3, p)
		assert.Equal(t, Decision{Kind: InstallDrop, Reason: ReasonSamePort, IdleTimeout: 10, HardTimeout: 10}, d)
	}
}

func TestLearnedPortForwards(t *testing.T) {
	sw := newTestSwitch(Config{})
	sw.Decide(epoch, 7, ethernet(macB, broadcast))

	d := sw.Decide(epoch, 1, ethernet(macA, macB))
	assert.Equal(t, Decision{Kind: Forward, Reason: ReasonLearned, Port: 7}, d)
}

func TestLinkLocalDrop(t *testing.T) {
	lldp := &protocol.Packet{SrcMAC: macA, DstMAC: macB, EtherType: protocol.EtherTypeLLDP}

	sw := newTestSwitch(Config{})
	d := sw.Decide(epoch, 1, lldp)
	assert.Equal(t, Decision{Kind: Drop, Reason: ReasonLinkLocal}, d)
	d = sw.Decide(epoch, 1, ethernet(macA, stpDst))
	assert.Equal(t, Decision{Kind: Drop, Reason: ReasonLinkLocal}, d)

	// Transparent switches treat them like anything else.
	sw = newTestSwitch(Config{Transparent: true})
	d = sw.Decide(epoch, 1, lldp)
	assert.Equal(t, Flood, d.Kind)
	d = sw.Decide(epoch, 1, ethernet(macA, stpDst))
	assert.Equal(t, Decision{Kind: Flood, Reason: ReasonMulticast}, d)
}

func TestZeroHoldDownFloodsFirstPacket(t *testing.T) {
	sw := newTestSwitch(Config{})
	require.True(t, sw.Status().HoldDownExpired)

	d := sw.Decide(epoch, 1, ethernet(macA, macB))
	assert.Equal(t, Flood, d.Kind)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		config Config
		valid  bool
	}{
		{DefaultConfig(), true},
		{Config{HoldDown: -time.Second, ClientIP: DefaultClientIP, ServerIP: DefaultServerIP}, false},
		{Config{ClientIP: DefaultClientIP, ServerIP: DefaultClientIP}, false},
		{Config{ClientIP: net.ParseIP("::1"), ServerIP: DefaultServerIP}, false},
		{Config{ClientIP: DefaultClientIP}, false},
	}

	for i, test := range tests {
		err := test.config.Validate()
		if test.valid && err != nil {
			t.Errorf("#%v: unexpected error: %v", i, err)
		}
		if !test.valid && err == nil {
			t.Errorf("#%v: expected an error", i)
		}
	}
}
