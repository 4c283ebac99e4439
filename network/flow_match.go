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

	"github.com/moonfalir/containernet/openflow"
	"github.com/moonfalir/containernet/protocol"
)

const (
	// dl_vlan of an untagged frame.
	vlanNone = 0xFFFF
)

func hostNet(ip net.IP) *net.IPNet {
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(32, 32)}
}

// newExactMatch returns a match on every header field the packet carries.
// Fields of layers the packet does not have stay wildcarded.
func newExactMatch(f openflow.Factory, inPort uint32, p *protocol.Packet) (openflow.Match, error) {
	match, err := f.NewMatch()
	if err != nil {
		return nil, err
	}

	match.SetInPort(inPort)
	match.SetSrcMAC(p.SrcMAC)
	match.SetDstMAC(p.DstMAC)
	match.SetEtherType(p.EtherType)
	if p.VLAN != nil {
		match.SetVLANID(p.VLAN.ID)
		match.SetVLANPriority(p.VLAN.Priority)
	} else {
		match.SetVLANID(vlanNone)
		match.SetVLANPriority(0)
	}

	switch {
	case p.IPv4 != nil:
		match.SetSrcIP(hostNet(p.IPv4.SrcIP))
		match.SetDstIP(hostNet(p.IPv4.DstIP))
		match.SetIPProtocol(p.IPv4.Protocol)
		match.SetTOS(p.IPv4.TOS)
		if p.Transport != nil {
			match.SetSrcPort(p.Transport.SrcPort)
			match.SetDstPort(p.Transport.DstPort)
		}
	case p.ARP != nil:
		// OpenFlow 1.0 matches the ARP opcode with nw_proto.
		match.SetIPProtocol(uint8(p.ARP.Operation))
		if p.ARP.SrcIP.To4() != nil {
			match.SetSrcIP(hostNet(p.ARP.SrcIP))
		}
		if p.ARP.DstIP.To4() != nil {
			match.SetDstIP(hostNet(p.ARP.DstIP))
		}
	}

	if err := match.Error(); err != nil {
		return nil, err
	}

	return match, nil
}
