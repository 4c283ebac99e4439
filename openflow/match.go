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

package openflow

import (
	"encoding"
	"net"
)

// Match is a flow match whose fields are wildcarded until they are set.
// Setters never fail immediately; the first invalid value is reported by
// Error() and by MarshalBinary().
type Match interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Error() error
	SetInPort(port uint32)
	InPort() (wildcard bool, port uint32)
	SetSrcMAC(mac net.HardwareAddr)
	SrcMAC() (wildcard bool, mac net.HardwareAddr)
	SetDstMAC(mac net.HardwareAddr)
	DstMAC() (wildcard bool, mac net.HardwareAddr)
	SetVLANID(id uint16)
	VLANID() (wildcard bool, id uint16)
	SetVLANPriority(p uint8)
	VLANPriority() (wildcard bool, priority uint8)
	SetEtherType(t uint16)
	EtherType() (wildcard bool, etherType uint16)
	SetTOS(tos uint8)
	TOS() (wildcard bool, tos uint8)
	SetIPProtocol(p uint8)
	IPProtocol() (wildcard bool, protocol uint8)
	SetSrcIP(ip *net.IPNet)
	SrcIP() *net.IPNet
	SetDstIP(ip *net.IPNet)
	DstIP() *net.IPNet
	// SetSrcPort sets the TCP/UDP source port, or the ICMP type.
	SetSrcPort(p uint16)
	SrcPort() (wildcard bool, port uint16)
	// SetDstPort sets the TCP/UDP destination port, or the ICMP code.
	SetDstPort(p uint16)
	DstPort() (wildcard bool, port uint16)
}
