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

package events

import (
	"time"
)

// Event describes a packet dropped because its number is on a droplist.
type Event struct {
	Time     time.Time `json:"time"`
	DPID     string    `json:"dpid"`
	InPort   uint32    `json:"in_port"`
	Role     string    `json:"role"`
	Sequence uint64    `json:"sequence"`
	SrcIP    string    `json:"src_ip"`
	DstIP    string    `json:"dst_ip"`
	Protocol uint8     `json:"protocol"`
}

// Publisher must not block the caller on network I/O.
type Publisher interface {
	Publish(Event) error
	Close() error
}

// Discard drops every event. It is used when no message bus is configured.
type Discard struct{}

func (r Discard) Publish(Event) error {
	return nil
}

func (r Discard) Close() error {
	return nil
}
