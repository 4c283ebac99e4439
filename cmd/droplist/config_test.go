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

package main

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/op/go-logging"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	return v
}

func TestDefaultConfig(t *testing.T) {
	c, err := loadConfig(newViper())
	require.NoError(t, err)

	assert.Equal(t, 6633, c.port)
	assert.Equal(t, logging.INFO, c.log.Level)
	assert.False(t, c.network.Droplist.Transparent)
	assert.Equal(t, time.Duration(0), c.network.Droplist.HoldDown)
	assert.Empty(t, c.network.Droplist.ClientDroplist)
	assert.Empty(t, c.network.Droplist.ServerDroplist)
	assert.Empty(t, c.network.Ignore)
	assert.True(t, c.network.Droplist.ClientIP.Equal(net.IPv4(10, 0, 0, 252)))
	assert.True(t, c.network.Droplist.ServerIP.Equal(net.IPv4(10, 0, 0, 251)))
	assert.Equal(t, uint16(0), c.rest.port)
	assert.Equal(t, "", c.nats.url)
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "droplist.yaml")
	content := `
default:
  port: 6653
  log_level: debug
  log_output: stderr
droplist:
  transparent: true
  hold_down: 5
  ignore: "00-00-00-00-00-03, 0x4"
  client: [2, 5]
  server: "3,7"
rest:
  port: 8080
events:
  nats_url: nats://127.0.0.1:4222
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v := newViper()
	found, err := readConfig(v, path, true)
	require.NoError(t, err)
	require.True(t, found)
	c, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 6653, c.port)
	assert.Equal(t, logging.DEBUG, c.log.Level)
	assert.Equal(t, "stderr", c.log.Output)
	assert.True(t, c.network.Droplist.Transparent)
	assert.Equal(t, 5*time.Second, c.network.Droplist.HoldDown)
	assert.Equal(t, []uint64{3, 4}, c.network.Ignore)
	assert.Equal(t, []uint64{2, 5}, c.network.Droplist.ClientDroplist)
	assert.Equal(t, []uint64{3, 7}, c.network.Droplist.ServerDroplist)
	assert.Equal(t, uint16(8080), c.rest.port)
	assert.Equal(t, "nats://127.0.0.1:4222", c.nats.url)
}

func TestReadMissingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	found, err := readConfig(newViper(), path, false)
	assert.NoError(t, err)
	assert.False(t, found)

	_, err = readConfig(newViper(), path, true)
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
	}{
		{keyPort, 0},
		{keyPort, 70000},
		{keyLogLevel, "chatty"},
		{keyHoldDown, "soon"},
		{keyHoldDown, "-1"},
		{keyHoldDown, "500ms"},
		{keyClient, "1,two"},
		{keyServer, []interface{}{1, "x"}},
		{keyIgnore, "00-00-zz"},
		{keyClientIP, "not-an-ip"},
		{keyServerIP, "10.0.0.252"},
		{keyRESTPort, -1},
		{keyRESTTLS, true},
	}

	for _, test := range tests {
		v := newViper()
		v.Set(test.key, test.value)
		_, err := loadConfig(v)
		assert.Error(t, err, "%v=%v", test.key, test.value)
	}
}

func TestParseHoldDown(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		err      bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"5", 5 * time.Second, false},
		{" 10 ", 10 * time.Second, false},
		// Only whole seconds are accepted.
		{"1m30s", 0, true},
		{"500ms", 0, true},
		{"1.5s", 0, true},
		{"2h", 0, true},
		{"1.5", 0, true},
		{"soon", 0, true},
		{"-1", 0, true},
	}

	for _, test := range tests {
		v, err := parseHoldDown(test.input)
		if test.err {
			assert.Error(t, err, "input=%q", test.input)
			continue
		}
		require.NoError(t, err, "input=%q", test.input)
		assert.Equal(t, test.expected, v, "input=%q", test.input)
	}
}

func TestParseIgnore(t *testing.T) {
	v, err := parseIgnore([]interface{}{1, "00-00-00-00-00-10"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 0x10}, v)

	v, err = parseIgnore("")
	require.NoError(t, err)
	assert.Empty(t, v)
}
