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
	"fmt"
	"net"

	"github.com/moonfalir/containernet/openflow"
)

type Wildcard struct {
	InPort    bool /* Switch input port. */
	VLANID    bool /* VLAN id. */
	SrcMAC    bool /* Ethernet source address. */
	DstMAC    bool /* Ethernet destination address. */
	EtherType bool /* Ethernet frame type. */
	Protocol  bool /* IP protocol. */
	SrcPort   bool /* TCP/UDP source port. */
	DstPort   bool /* TCP/UDP destination port. */
	// IP source address wildcard bit count. 0 is exact match,
	// 1 ignores the LSB, 2 ignores the 2 least-significant bits, ...,
	// 32 and higher wildcard the entire field.
	SrcIP        uint8
	DstIP        uint8
	VLANPriority bool /* VLAN priority. */
	TOS          bool /* IP ToS (DSCP field, 6 bits). */
}

func newWildcardAll() Wildcard {
	return Wildcard{
		InPort:       true,
		VLANID:       true,
		SrcMAC:       true,
		DstMAC:       true,
		EtherType:    true,
		Protocol:     true,
		SrcPort:      true,
		DstPort:      true,
		SrcIP:        32,
		DstIP:        32,
		VLANPriority: true,
		TOS:          true,
	}
}

func (r Wildcard) value() uint32 {
	var v uint32

	if r.InPort {
		v |= OFPFW_IN_PORT
	}
	if r.VLANID {
		v |= OFPFW_DL_VLAN
	}
	if r.SrcMAC {
		v |= OFPFW_DL_SRC
	}
	if r.DstMAC {
		v |= OFPFW_DL_DST
	}
	if r.EtherType {
		v |= OFPFW_DL_TYPE
	}
	if r.Protocol {
		v |= OFPFW_NW_PROTO
	}
	if r.SrcPort {
		v |= OFPFW_TP_SRC
	}
	if r.DstPort {
		v |= OFPFW_TP_DST
	}
	v |= uint32(r.SrcIP) << OFPFW_NW_SRC_SHIFT
	v |= uint32(r.DstIP) << OFPFW_NW_DST_SHIFT
	if r.VLANPriority {
		v |= OFPFW_DL_VLAN_PCP
	}
	if r.TOS {
		v |= OFPFW_NW_TOS
	}

	return v
}

func parseWildcard(w uint32) Wildcard {
	return Wildcard{
		InPort:       w&OFPFW_IN_PORT != 0,
		VLANID:       w&OFPFW_DL_VLAN != 0,
		SrcMAC:       w&OFPFW_DL_SRC != 0,
		DstMAC:       w&OFPFW_DL_DST != 0,
		EtherType:    w&OFPFW_DL_TYPE != 0,
		Protocol:     w&OFPFW_NW_PROTO != 0,
		SrcPort:      w&OFPFW_TP_SRC != 0,
		DstPort:      w&OFPFW_TP_DST != 0,
		SrcIP:        uint8((w >> OFPFW_NW_SRC_SHIFT) & 0x3F),
		DstIP:        uint8((w >> OFPFW_NW_DST_SHIFT) & 0x3F),
		VLANPriority: w&OFPFW_DL_VLAN_PCP != 0,
		TOS:          w&OFPFW_NW_TOS != 0,
	}
}

// Match is ofp_match.
type Match struct {
	err          error
	wildcards    Wildcard
	inPort       uint16
	srcMAC       net.HardwareAddr
	dstMAC       net.HardwareAddr
	vlanID       uint16
	vlanPriority uint8
	etherType    uint16
	tos          uint8
	protocol     uint8
	srcIP        net.IP
	dstIP        net.IP
	srcPort      uint16
	dstPort      uint16
}

// NewMatch returns a Match whose fields are all wildcarded
func NewMatch() openflow.Match {
	return &Match{
		wildcards: newWildcardAll(),
		srcMAC:    net.HardwareAddr([]byte{0, 0, 0, 0, 0, 0}),
		dstMAC:    net.HardwareAddr([]byte{0, 0, 0, 0, 0, 0}),
		srcIP:     net.IPv4zero.To4(),
		dstIP:     net.IPv4zero.To4(),
	}
}

func (r *Match) Error() error {
	return r.err
}

func (r *Match) setError(err error) {
	// Keep the first error.
	if r.err == nil {
		r.err = err
	}
}

func (r *Match) Wildcards() Wildcard {
	return r.wildcards
}

func (r *Match) SetInPort(port uint32) {
	if port > OFPP_NONE {
		r.setError(fmt.Errorf("SetInPort: invalid port number %v", port))
		return
	}
	r.inPort = uint16(port)
	r.wildcards.InPort = false
}

func (r *Match) InPort() (wildcard bool, port uint32) {
	return r.wildcards.InPort, uint32(r.inPort)
}

func (r *Match) SetSrcMAC(mac net.HardwareAddr) {
	if len(mac) < 6 {
		r.setError(fmt.Errorf("SetSrcMAC: %v", openflow.ErrInvalidMACAddress))
		return
	}
	r.srcMAC = net.HardwareAddr(append([]byte(nil), mac[:6]...))
	r.wildcards.SrcMAC = false
}

func (r *Match) SrcMAC() (wildcard bool, mac net.HardwareAddr) {
	return r.wildcards.SrcMAC, r.srcMAC
}

func (r *Match) SetDstMAC(mac net.HardwareAddr) {
	if len(mac) < 6 {
		r.setError(fmt.Errorf("SetDstMAC: %v", openflow.ErrInvalidMACAddress))
		return
	}
	r.dstMAC = net.HardwareAddr(append([]byte(nil), mac[:6]...))
	r.wildcards.DstMAC = false
}

func (r *Match) DstMAC() (wildcard bool, mac net.HardwareAddr) {
	return r.wildcards.DstMAC, r.dstMAC
}

func (r *Match) SetVLANID(id uint16) {
	r.vlanID = id
	r.wildcards.VLANID = false
}

func (r *Match) VLANID() (wildcard bool, id uint16) {
	return r.wildcards.VLANID, r.vlanID
}

func (r *Match) SetVLANPriority(p uint8) {
	r.vlanPriority = p
	r.wildcards.VLANPriority = false
}

func (r *Match) VLANPriority() (wildcard bool, priority uint8) {
	return r.wildcards.VLANPriority, r.vlanPriority
}

func (r *Match) SetEtherType(t uint16) {
	r.etherType = t
	r.wildcards.EtherType = false
}

func (r *Match) EtherType() (wildcard bool, etherType uint16) {
	return r.wildcards.EtherType, r.etherType
}

func (r *Match) SetTOS(tos uint8) {
	// Only the DSCP bits are matched.
	r.tos = tos & 0xFC
	r.wildcards.TOS = false
}

func (r *Match) TOS() (wildcard bool, tos uint8) {
	return r.wildcards.TOS, r.tos
}

func (r *Match) SetIPProtocol(p uint8) {
	r.protocol = p
	r.wildcards.Protocol = false
}

func (r *Match) IPProtocol() (wildcard bool, protocol uint8) {
	return r.wildcards.Protocol, r.protocol
}

func maskBits(ip *net.IPNet) (net.IP, uint8, error) {
	if ip == nil || ip.IP.To4() == nil {
		return nil, 0, openflow.ErrInvalidIPAddress
	}
	ones, bits := 32, 32
	if ip.Mask != nil {
		ones, bits = ip.Mask.Size()
	}
	if bits != 32 {
		return nil, 0, openflow.ErrInvalidIPAddress
	}

	return ip.IP.To4(), uint8(32 - ones), nil
}

func (r *Match) SetSrcIP(ip *net.IPNet) {
	addr, wildcard, err := maskBits(ip)
	if err != nil {
		r.setError(fmt.Errorf("SetSrcIP: %v", err))
		return
	}
	r.srcIP = addr
	r.wildcards.SrcIP = wildcard
}

func (r *Match) SrcIP() *net.IPNet {
	return &net.IPNet{
		IP:   r.srcIP,
		Mask: net.CIDRMask(32-int(min(r.wildcards.SrcIP, 32)), 32),
	}
}

func (r *Match) SetDstIP(ip *net.IPNet) {
	addr, wildcard, err := maskBits(ip)
	if err != nil {
		r.setError(fmt.Errorf("SetDstIP: %v", err))
		return
	}
	r.dstIP = addr
	r.wildcards.DstIP = wildcard
}

func (r *Match) DstIP() *net.IPNet {
	return &net.IPNet{
		IP:   r.dstIP,
		Mask: net.CIDRMask(32-int(min(r.wildcards.DstIP, 32)), 32),
	}
}

func (r *Match) SetSrcPort(p uint16) {
	r.srcPort = p
	r.wildcards.SrcPort = false
}

func (r *Match) SrcPort() (wildcard bool, port uint16) {
	return r.wildcards.SrcPort, r.srcPort
}

func (r *Match) SetDstPort(p uint16) {
	r.dstPort = p
	r.wildcards.DstPort = false
}

func (r *Match) DstPort() (wildcard bool, port uint16) {
	return r.wildcards.DstPort, r.dstPort
}

func (r *Match) MarshalBinary() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	data := make([]byte, 40)
	binary.BigEndian.PutUint32(data[0:4], r.wildcards.value())
	binary.BigEndian.PutUint16(data[4:6], r.inPort)
	copy(data[6:12], r.srcMAC)
	copy(data[12:18], r.dstMAC)
	binary.BigEndian.PutUint16(data[18:20], r.vlanID)
	data[20] = r.vlanPriority
	// data[21] is padding
	binary.BigEndian.PutUint16(data[22:24], r.etherType)
	data[24] = r.tos
	data[25] = r.protocol
	// data[26:28] is padding
	copy(data[28:32], r.srcIP.To4())
	copy(data[32:36], r.dstIP.To4())
	binary.BigEndian.PutUint16(data[36:38], r.srcPort)
	binary.BigEndian.PutUint16(data[38:40], r.dstPort)

	return data, nil
}

func (r *Match) UnmarshalBinary(data []byte) error {
	if len(data) < 40 {
		return openflow.ErrInvalidPacketLength
	}

	r.wildcards = parseWildcard(binary.BigEndian.Uint32(data[0:4]))
	r.inPort = binary.BigEndian.Uint16(data[4:6])
	r.srcMAC = net.HardwareAddr(append([]byte(nil), data[6:12]...))
	r.dstMAC = net.HardwareAddr(append([]byte(nil), data[12:18]...))
	r.vlanID = binary.BigEndian.Uint16(data[18:20])
	r.vlanPriority = data[20]
	r.etherType = binary.BigEndian.Uint16(data[22:24])
	r.tos = data[24]
	r.protocol = data[25]
	r.srcIP = net.IP(append([]byte(nil), data[28:32]...))
	r.dstIP = net.IP(append([]byte(nil), data[32:36]...))
	r.srcPort = binary.BigEndian.Uint16(data[36:38])
	r.dstPort = binary.BigEndian.Uint16(data[38:40])

	return nil
}
