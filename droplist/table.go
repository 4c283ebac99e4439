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
	"bytes"
	"net"
	"sort"
)

// AddressTable maps a MAC address to the port it was last seen on. Entries
// are never expired; the table lives as long as its switch connection.
type AddressTable struct {
	ports map[string]uint32
}

type Entry struct {
	MAC  net.HardwareAddr `json:"mac"`
	Port uint32           `json:"port"`
}

func NewAddressTable() *AddressTable {
	return &AddressTable{
		ports: make(map[string]uint32),
	}
}

// Record overwrites any previous port of mac.
func (r *AddressTable) Record(mac net.HardwareAddr, port uint32) {
	r.ports[string(mac)] = port
}

func (r *AddressTable) Lookup(mac net.HardwareAddr) (port uint32, ok bool) {
	port, ok = r.ports[string(mac)]
	return port, ok
}

func (r *AddressTable) Len() int {
	return len(r.ports)
}

// Entries returns a copy of the table sorted by MAC address.
func (r *AddressTable) Entries() []Entry {
	v := make([]Entry, 0, len(r.ports))
	for mac, port := range r.ports {
		v = append(v, Entry{MAC: net.HardwareAddr(mac), Port: port})
	}
	sort.Slice(v, func(i, j int) bool {
		return bytes.Compare(v[i].MAC, v[j].MAC) < 0
	})

	return v
}
