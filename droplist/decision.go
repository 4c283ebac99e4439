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
	"fmt"
)

type Kind uint8

const (
	// Invalid is the zero value. No command is ever built from it.
	Invalid Kind = iota
	// Drop discards this packet only.
	Drop
	// Flood sends the packet out of every port but the ingress one.
	Flood
	// Forward sends the packet out of Decision.Port.
	Forward
	// InstallDrop discards the packet and makes the switch drop the same
	// traffic on its own for the given timeouts.
	InstallDrop
	// Withhold does nothing. The packet would have been flooded but the
	// flood hold-down has not expired yet.
	Withhold
)

func (r Kind) String() string {
	switch r {
	case Invalid:
		return "invalid"
	case Drop:
		return "drop"
	case Flood:
		return "flood"
	case Forward:
		return "forward"
	case InstallDrop:
		return "install-drop"
	case Withhold:
		return "withhold"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

type Reason string

const (
	ReasonDroplist   Reason = "droplist"
	ReasonLinkLocal  Reason = "link-local"
	ReasonMulticast  Reason = "multicast"
	ReasonUnknownDst Reason = "unknown-destination"
	ReasonSamePort   Reason = "same-port"
	ReasonLearned    Reason = "learned"
)

const (
	// Timeouts of the flow installed when the destination sits on the
	// ingress port.
	samePortIdleTimeout = 10
	samePortHardTimeout = 10
)

type Decision struct {
	Kind   Kind
	Reason Reason
	// Port is the output port of Forward.
	Port uint32
	// Timeouts in seconds of InstallDrop.
	IdleTimeout uint16
	HardTimeout uint16
	// Role and Sequence identify the packet dropped by a droplist.
	Role     Role
	Sequence uint64
}

func (r Decision) String() string {
	switch r.Kind {
	case Forward:
		return fmt.Sprintf("%v(port=%v, reason=%v)", r.Kind, r.Port, r.Reason)
	case InstallDrop:
		return fmt.Sprintf("%v(idle=%v, hard=%v, reason=%v)", r.Kind, r.IdleTimeout, r.HardTimeout, r.Reason)
	case Drop:
		if r.Reason == ReasonDroplist {
			return fmt.Sprintf("%v(%v packet #%v)", r.Kind, r.Role, r.Sequence)
		}
		fallthrough
	default:
		return fmt.Sprintf("%v(reason=%v)", r.Kind, r.Reason)
	}
}
