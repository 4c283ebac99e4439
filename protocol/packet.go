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

package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	EtherTypeIPv4 = 0x0800
	EtherTypeARP  = 0x0806
	EtherTypeVLAN = 0x8100
	EtherTypeLLDP = 0x88CC
)

const (
	IPProtocolICMP = 1
	IPProtocolTCP  = 6
	IPProtocolUDP  = 17
)

var (
	ErrNotEthernet = errors.New("not an Ethernet frame")

	// 01:80:C2:00:00:00 - 01:80:C2:00:00:0F are reserved by IEEE 802.1D and
	// must not be forwarded by a bridge.
	bridgeFilteredPrefix = []byte{0x01, 0x80, 0xC2, 0x00, 0x00}
)

type VLAN struct {
	ID       uint16
	Priority uint8
}

type IPv4 struct {
	SrcIP    net.IP
	DstIP    net.IP
	Protocol uint8
	TOS      uint8
}

type ARP struct {
	Operation uint16
	SrcIP     net.IP
	DstIP     net.IP
}

// Transport holds the TCP/UDP ports. For ICMP, SrcPort is the type and
// DstPort is the code, the same way an OpenFlow 1.0 match stores them.
type Transport struct {
	SrcPort uint16
	DstPort uint16
}

// Packet is the part of an Ethernet frame the controller looks at. Optional
// layers are nil when the frame does not carry them or they failed to decode.
type Packet struct {
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr
	// EtherType is the type of the payload, after any 802.1Q tag.
	EtherType uint16
	VLAN      *VLAN
	IPv4      *IPv4
	ARP       *ARP
	Transport *Transport
	// Raw is the whole frame as received.
	Raw []byte
}

func (r *Packet) String() string {
	v := fmt.Sprintf("SrcMAC=%v, DstMAC=%v, EtherType=0x%04x", r.SrcMAC, r.DstMAC, r.EtherType)
	if r.VLAN != nil {
		v += fmt.Sprintf(", VLAN=%v/%v", r.VLAN.ID, r.VLAN.Priority)
	}
	if r.IPv4 != nil {
		v += fmt.Sprintf(", SrcIP=%v, DstIP=%v, Protocol=%v", r.IPv4.SrcIP, r.IPv4.DstIP, r.IPv4.Protocol)
	}
	if r.Transport != nil {
		v += fmt.Sprintf(", SrcPort=%v, DstPort=%v", r.Transport.SrcPort, r.Transport.DstPort)
	}

	return v
}

// IsTCPOrUDP reports whether the frame is an IPv4 packet carrying TCP or UDP.
// Only the protocol field counts; the transport header itself may be cut off.
func (r *Packet) IsTCPOrUDP() bool {
	if r.IPv4 == nil {
		return false
	}

	return r.IPv4.Protocol == IPProtocolTCP || r.IPv4.Protocol == IPProtocolUDP
}

func (r *Packet) IsLLDP() bool {
	return r.EtherType == EtherTypeLLDP
}

// IsMulticast is also true for the broadcast address.
func IsMulticast(mac net.HardwareAddr) bool {
	return len(mac) > 0 && mac[0]&0x01 != 0
}

func IsBroadcast(mac net.HardwareAddr) bool {
	return bytes.Equal(mac, layers.EthernetBroadcast)
}

func IsBridgeFiltered(mac net.HardwareAddr) bool {
	if len(mac) != 6 {
		return false
	}

	return bytes.Equal(mac[:5], bridgeFilteredPrefix) && mac[5] <= 0x0F
}

// Decoder decodes frames with a reusable layer parser. It is not safe for
// concurrent use; each switch session owns its own.
type Decoder struct {
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType

	eth  layers.Ethernet
	vlan layers.Dot1Q
	ip4  layers.IPv4
	arp  layers.ARP
	tcp  layers.TCP
	udp  layers.UDP
	icmp layers.ICMPv4
}

func NewDecoder() *Decoder {
	d := &Decoder{
		decoded: make([]gopacket.LayerType, 0, 8),
	}
	d.parser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet,
		&d.eth,
		&d.vlan,
		&d.ip4,
		&d.arp,
		&d.tcp,
		&d.udp,
		&d.icmp,
	)
	// Stop quietly at payloads and protocols we have no decoder for.
	d.parser.IgnoreUnsupported = true

	return d
}

// Decode returns an error only when the Ethernet header itself is unusable.
// A damaged upper layer leaves the matching Packet field nil.
func (r *Decoder) Decode(frame []byte) (*Packet, error) {
	// The error tells us where decoding stopped, which r.decoded already
	// records, so it is not checked here.
	r.parser.DecodeLayers(frame, &r.decoded)
	if len(r.decoded) == 0 || r.decoded[0] != layers.LayerTypeEthernet {
		return nil, ErrNotEthernet
	}

	p := &Packet{
		SrcMAC:    copyMAC(r.eth.SrcMAC),
		DstMAC:    copyMAC(r.eth.DstMAC),
		EtherType: uint16(r.eth.EthernetType),
		Raw:       frame,
	}
	for _, t := range r.decoded[1:] {
		switch t {
		case layers.LayerTypeDot1Q:
			p.VLAN = &VLAN{ID: r.vlan.VLANIdentifier, Priority: r.vlan.Priority}
			p.EtherType = uint16(r.vlan.Type)
		case layers.LayerTypeIPv4:
			p.IPv4 = &IPv4{
				SrcIP:    copyIP(r.ip4.SrcIP),
				DstIP:    copyIP(r.ip4.DstIP),
				Protocol: uint8(r.ip4.Protocol),
				TOS:      r.ip4.TOS,
			}
		case layers.LayerTypeARP:
			p.ARP = &ARP{
				Operation: r.arp.Operation,
				SrcIP:     copyIP(net.IP(r.arp.SourceProtAddress)),
				DstIP:     copyIP(net.IP(r.arp.DstProtAddress)),
			}
		case layers.LayerTypeTCP:
			p.Transport = &Transport{SrcPort: uint16(r.tcp.SrcPort), DstPort: uint16(r.tcp.DstPort)}
		case layers.LayerTypeUDP:
			p.Transport = &Transport{SrcPort: uint16(r.udp.SrcPort), DstPort: uint16(r.udp.DstPort)}
		case layers.LayerTypeICMPv4:
			p.Transport = &Transport{SrcPort: uint16(r.icmp.TypeCode.Type()), DstPort: uint16(r.icmp.TypeCode.Code())}
		}
	}

	return p, nil
}

// Decode is a convenience wrapper that allocates a new Decoder.
func Decode(frame []byte) (*Packet, error) {
	return NewDecoder().Decode(frame)
}

func copyMAC(mac net.HardwareAddr) net.HardwareAddr {
	return append(net.HardwareAddr(nil), mac...)
}

func copyIP(ip net.IP) net.IP {
	return append(net.IP(nil), ip...)
}
