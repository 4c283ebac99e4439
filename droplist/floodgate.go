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
	"time"
)

// FloodGate holds off flooding until holdDown has passed since the switch
// connected.
type FloodGate struct {
	connected time.Time
	holdDown  time.Duration
	expired   bool
}

func NewFloodGate(connected time.Time, holdDown time.Duration) *FloodGate {
	if holdDown < 0 {
		panic("negative flood hold-down")
	}

	return &FloodGate{
		connected: connected,
		holdDown:  holdDown,
		expired:   holdDown == 0,
	}
}

// MayFlood never goes back to false once it has returned true, as long as
// the clock does not go backwards.
func (r *FloodGate) MayFlood(now time.Time) bool {
	return now.Sub(r.connected) >= r.holdDown
}

// NoteExpired marks the hold-down as expired. It returns true only for the
// call that did the marking.
func (r *FloodGate) NoteExpired() bool {
	if r.expired {
		return false
	}
	r.expired = true

	return true
}

func (r *FloodGate) Expired() bool {
	return r.expired
}

func (r *FloodGate) HoldDown() time.Duration {
	return r.holdDown
}
