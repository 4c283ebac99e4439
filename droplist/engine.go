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
	"sync"
	"time"

	"github.com/moonfalir/containernet/protocol"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("droplist")
)

var (
	DefaultClientIP = net.IPv4(10, 0, 0, 252)
	DefaultServerIP = net.IPv4(10, 0, 0, 251)
)

// Config is shared by every switch. Each switch gets its own counters and
// address table built from it.
type Config struct {
	// Transparent passes LLDP and 802.1D bridge-filtered frames like any
	// other traffic.
	Transparent bool
	// HoldDown is how long after a switch connects flooding stays off.
	HoldDown       time.Duration
	ClientIP       net.IP
	ServerIP       net.IP
	ClientDroplist []uint64
	ServerDroplist []uint64
}

func DefaultConfig() Config {
	return Config{
		ClientIP: DefaultClientIP,
		ServerIP: DefaultServerIP,
	}
}

func (r Config) Validate() error {
	if r.HoldDown < 0 {
		return errors.Errorf("negative flood hold-down: %v", r.HoldDown)
	}
	if r.ClientIP.To4() == nil {
		return errors.Errorf("invalid client IPv4 address: %v", r.ClientIP)
	}
	if r.ServerIP.To4() == nil {
		return errors.Errorf("invalid server IPv4 address: %v", r.ServerIP)
	}
	if r.ClientIP.Equal(r.ServerIP) {
		return errors.New("client and server addresses should be different")
	}

	return nil
}

// Switch is the decision state of one connected switch. Decide calls must
// come in packet arrival order; the lock only protects Status readers.
type Switch struct {
	mutex       sync.Mutex
	name        string
	transparent bool
	table       *AddressTable
	client      *Filter
	server      *Filter
	gate        *FloodGate
	decisions   map[Kind]uint64
}

// NewSwitch returns the state of the switch called name (its DPID, used in
// logs) that connected at the given time. c should be validated already.
func NewSwitch(name string, c Config, connected time.Time) *Switch {
	return &Switch{
		name:        name,
		transparent: c.Transparent,
		table:       NewAddressTable(),
		client:      NewFilter(RoleClient, c.ClientIP, c.ClientDroplist),
		server:      NewFilter(RoleServer, c.ServerIP, c.ServerDroplist),
		gate:        NewFloodGate(connected, c.HoldDown),
		decisions:   make(map[Kind]uint64),
	}
}

// Decide returns what to do with a packet that arrived on inPort. The only
// side effects are on the switch state and the log.
func (r *Switch) Decide(now time.Time, inPort uint32, p *protocol.Packet) Decision {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	d := r.decide(now, inPort, p)
	r.decisions[d.Kind]++

	return d
}

func (r *Switch) decide(now time.Time, inPort uint32, p *protocol.Packet) Decision {
	r.table.Record(p.SrcMAC, inPort)

	if d, ok := r.checkDroplist(p); ok {
		return d
	}

	if !r.transparent && (p.IsLLDP() || protocol.IsBridgeFiltered(p.DstMAC)) {
		return Decision{Kind: Drop, Reason: ReasonLinkLocal}
	}

	if protocol.IsMulticast(p.DstMAC) {
		return r.flood(now, ReasonMulticast)
	}

	port, ok := r.table.Lookup(p.DstMAC)
	if !ok {
		return r.flood(now, ReasonUnknownDst)
	}

	if port == inPort {
		logger.Warningf("Same port for packet from %v -> %v on %v.%v. Drop.", p.SrcMAC, p.DstMAC, r.name, port)
		return Decision{
			Kind:        InstallDrop,
			Reason:      ReasonSamePort,
			IdleTimeout: samePortIdleTimeout,
			HardTimeout: samePortHardTimeout,
		}
	}

	return Decision{Kind: Forward, Reason: ReasonLearned, Port: port}
}

func (r *Switch) checkDroplist(p *protocol.Packet) (Decision, bool) {
	var src net.IP
	if p.IPv4 != nil {
		src = p.IPv4.SrcIP
	}
	qualifying := p.IsTCPOrUDP()

	// The addresses differ, so at most one filter counts the packet.
	for _, f := range []*Filter{r.client, r.server} {
		if !f.Test(src, qualifying) {
			continue
		}
		logger.Debugf("Dropping %v packet: number %v", f.Role(), f.Counter())
		return Decision{Kind: Drop, Reason: ReasonDroplist, Role: f.Role(), Sequence: f.Counter()}, true
	}

	return Decision{}, false
}

func (r *Switch) flood(now time.Time, reason Reason) Decision {
	if !r.gate.MayFlood(now) {
		return Decision{Kind: Withhold, Reason: reason}
	}
	if r.gate.NoteExpired() {
		logger.Infof("%v: flood hold-down expired -- flooding", r.name)
	}

	return Decision{Kind: Flood, Reason: reason}
}

type Status struct {
	Name            string            `json:"name"`
	Transparent     bool              `json:"transparent"`
	HoldDown        string            `json:"hold_down"`
	HoldDownExpired bool              `json:"hold_down_expired"`
	ClientIP        string            `json:"client_ip"`
	ClientCounter   uint64            `json:"client_counter"`
	ClientDroplist  []uint64          `json:"client_droplist"`
	ServerIP        string            `json:"server_ip"`
	ServerCounter   uint64            `json:"server_counter"`
	ServerDroplist  []uint64          `json:"server_droplist"`
	Addresses       []Entry           `json:"addresses"`
	Decisions       map[string]uint64 `json:"decisions"`
}

// Status returns a snapshot of the switch state.
func (r *Switch) Status() Status {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	decisions := make(map[string]uint64, len(r.decisions))
	for k, v := range r.decisions {
		decisions[k.String()] = v
	}

	return Status{
		Name:            r.name,
		Transparent:     r.transparent,
		HoldDown:        r.gate.HoldDown().String(),
		HoldDownExpired: r.gate.Expired(),
		ClientIP:        r.client.Target().String(),
		ClientCounter:   r.client.Counter(),
		ClientDroplist:  r.client.List(),
		ServerIP:        r.server.Target().String(),
		ServerCounter:   r.server.Counter(),
		ServerDroplist:  r.server.List(),
		Addresses:       r.table.Entries(),
		Decisions:       decisions,
	}
}

// Lookup returns the learned port of mac.
func (r *Switch) Lookup(mac net.HardwareAddr) (port uint32, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.table.Lookup(mac)
}
