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
	"strings"
	"testing"
	"time"

	"github.com/moonfalir/containernet/droplist"
	"github.com/moonfalir/containernet/openflow/of10"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, c *Controller, dpid uint64) *session {
	t.Helper()

	conn, peer := net.Pipe()
	t.Cleanup(func() {
		conn.Close()
		peer.Close()
	})
	s := newSession(c, conn, c.now())
	s.negotiated = true
	s.dpid = dpid
	s.device.setID(FormatDPID(dpid))
	s.device.setFactory(of10.NewFactory())

	return s
}

func TestControllerRegister(t *testing.T) {
	c, err := NewController(Config{Droplist: droplist.DefaultConfig(), Ignore: []uint64{0x2}})
	require.NoError(t, err)

	s1 := newTestSession(t, c, 0x1)
	require.NoError(t, c.register(s1))
	assert.NotNil(t, s1.droplist)
	assert.False(t, s1.ignored)

	// Ignored switches are registered without droplist state.
	s2 := newTestSession(t, c, 0x2)
	require.NoError(t, c.register(s2))
	assert.Nil(t, s2.droplist)
	assert.True(t, s2.ignored)

	sessions := c.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "00-00-00-00-00-01", sessions[0].DPID)
	assert.NotNil(t, sessions[0].Droplist)
	assert.Equal(t, "00-00-00-00-00-02", sessions[1].DPID)
	assert.True(t, sessions[1].Ignored)
	assert.Nil(t, sessions[1].Droplist)

	assert.True(t, strings.Contains(c.String(), "Connected switches: 2"))
}

func TestControllerDuplicatedDPID(t *testing.T) {
	c, err := NewController(Config{Droplist: droplist.DefaultConfig()})
	require.NoError(t, err)

	cancelled := false
	s1 := newTestSession(t, c, 0x1)
	s1.canceller = func() { cancelled = true }
	require.NoError(t, c.register(s1))

	// The newcomer is rejected and the old session is told to go away.
	s2 := newTestSession(t, c, 0x1)
	assert.Error(t, c.register(s2))
	assert.True(t, cancelled)

	// The rejected session does not own the registry entry.
	c.unregister(s2)
	_, ok := c.Session(0x1)
	assert.True(t, ok)
	assert.Len(t, c.History(), 0)

	c.unregister(s1)
	_, ok = c.Session(0x1)
	assert.False(t, ok)
	assert.Len(t, c.History(), 1)
}

func TestControllerHistoryIsBounded(t *testing.T) {
	c, err := NewController(Config{Droplist: droplist.DefaultConfig(), HistorySize: 2})
	require.NoError(t, err)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	for i := uint64(1); i <= 3; i++ {
		s := newTestSession(t, c, i)
		require.NoError(t, c.register(s))
		clock = clock.Add(time.Minute)
		c.unregister(s)
	}

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, "00-00-00-00-00-02", history[0].DPID)
	assert.Equal(t, "00-00-00-00-00-03", history[1].DPID)
	assert.Equal(t, clock, *history[1].DisconnectedAt)
	assert.Equal(t, clock.Add(-time.Minute), history[1].ConnectedAt)
}

func TestNewControllerRejectsInvalidConfig(t *testing.T) {
	config := droplist.DefaultConfig()
	config.ServerIP = config.ClientIP

	_, err := NewController(Config{Droplist: config})
	assert.Error(t, err)
}
