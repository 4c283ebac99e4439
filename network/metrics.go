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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// switchesConnected counts the switches that finished the handshake.
	switchesConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "droplist_switches_connected",
			Help: "Number of connected switches",
		},
	)

	packetInTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droplist_packet_in_total",
			Help: "Total number of PACKET_IN messages received",
		},
		[]string{"dpid"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droplist_decisions_total",
			Help: "Total number of forwarding decisions by kind and reason",
		},
		[]string{"kind", "reason"},
	)

	droplistDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droplist_droplist_drops_total",
			Help: "Total number of packets dropped because their number is on a droplist",
		},
		[]string{"dpid", "role"},
	)

	decodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "droplist_decode_errors_total",
			Help: "Total number of PACKET_IN frames that could not be decoded",
		},
	)

	commandsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droplist_commands_dropped_total",
			Help: "Total number of switch commands discarded because the write queue was full",
		},
		[]string{"dpid"},
	)
)
