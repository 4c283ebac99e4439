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
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moonfalir/containernet/droplist"
	"github.com/moonfalir/containernet/events"
	"github.com/moonfalir/containernet/log"
	"github.com/moonfalir/containernet/network"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	keyPort          = "default.port"
	keyLogLevel      = "default.log_level"
	keyLogOutput     = "default.log_output"
	keyLogFile       = "default.log_file"
	keyLogMaxSize    = "default.log_max_size"
	keyLogMaxBackups = "default.log_max_backups"
	keyTransparent   = "droplist.transparent"
	keyHoldDown      = "droplist.hold_down"
	keyIgnore        = "droplist.ignore"
	keyClient        = "droplist.client"
	keyServer        = "droplist.server"
	keyClientIP      = "droplist.client_ip"
	keyServerIP      = "droplist.server_ip"
	keyHistorySize   = "droplist.history_size"
	keyRESTPort      = "rest.port"
	keyRESTTLS       = "rest.tls"
	keyRESTCert      = "rest.cert_file"
	keyRESTKey       = "rest.key_file"
	keyNATSURL       = "events.nats_url"
	keyNATSSubject   = "events.subject"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyPort, 6633)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogOutput, log.OutputSyslog)
	v.SetDefault(keyLogMaxSize, 100)
	v.SetDefault(keyLogMaxBackups, 5)
	v.SetDefault(keyTransparent, false)
	v.SetDefault(keyHoldDown, "0")
	v.SetDefault(keyIgnore, "")
	v.SetDefault(keyClient, "")
	v.SetDefault(keyServer, "")
	v.SetDefault(keyClientIP, droplist.DefaultClientIP.String())
	v.SetDefault(keyServerIP, droplist.DefaultServerIP.String())
	v.SetDefault(keyHistorySize, 128)
	v.SetDefault(keyRESTPort, 0)
	v.SetDefault(keyNATSURL, "")
	v.SetDefault(keyNATSSubject, events.DefaultSubject)
}

type config struct {
	port    int
	log     log.Config
	network network.Config
	rest    struct {
		port uint16
		cert string
		key  string
	}
	nats struct {
		url     string
		subject string
	}
}

func loadConfig(v *viper.Viper) (*config, error) {
	c := new(config)

	c.port = v.GetInt(keyPort)
	if c.port <= 0 || c.port > 0xFFFF {
		return nil, fmt.Errorf("invalid %v: %v", keyPort, v.Get(keyPort))
	}

	level, ok := log.ParseLevel(v.GetString(keyLogLevel))
	if !ok {
		return nil, fmt.Errorf("invalid %v: %v", keyLogLevel, v.GetString(keyLogLevel))
	}
	c.log = log.Config{
		Output:     v.GetString(keyLogOutput),
		File:       v.GetString(keyLogFile),
		MaxSizeMB:  v.GetInt(keyLogMaxSize),
		MaxBackups: v.GetInt(keyLogMaxBackups),
		Level:      level,
	}

	d, err := loadDroplistConfig(v)
	if err != nil {
		return nil, err
	}
	c.network.Droplist = d
	c.network.HistorySize = v.GetInt(keyHistorySize)
	c.network.Ignore, err = parseIgnore(v.Get(keyIgnore))
	if err != nil {
		return nil, errors.Wrap(err, keyIgnore)
	}

	restPort := v.GetInt(keyRESTPort)
	if restPort < 0 || restPort > 0xFFFF {
		return nil, fmt.Errorf("invalid %v: %v", keyRESTPort, restPort)
	}
	c.rest.port = uint16(restPort)
	if v.GetBool(keyRESTTLS) {
		c.rest.cert = v.GetString(keyRESTCert)
		c.rest.key = v.GetString(keyRESTKey)
		if c.rest.cert == "" || c.rest.key == "" {
			return nil, fmt.Errorf("%v and %v are required with %v", keyRESTCert, keyRESTKey, keyRESTTLS)
		}
	}

	c.nats.url = v.GetString(keyNATSURL)
	c.nats.subject = v.GetString(keyNATSSubject)

	return c, nil
}

func loadDroplistConfig(v *viper.Viper) (droplist.Config, error) {
	c := droplist.Config{
		Transparent: v.GetBool(keyTransparent),
	}

	var err error
	c.HoldDown, err = parseHoldDown(v.GetString(keyHoldDown))
	if err != nil {
		return droplist.Config{}, err
	}
	c.ClientDroplist, err = parseDroplist(v.Get(keyClient))
	if err != nil {
		return droplist.Config{}, errors.Wrap(err, keyClient)
	}
	c.ServerDroplist, err = parseDroplist(v.Get(keyServer))
	if err != nil {
		return droplist.Config{}, errors.Wrap(err, keyServer)
	}
	if c.ClientIP = net.ParseIP(v.GetString(keyClientIP)); c.ClientIP == nil {
		return droplist.Config{}, fmt.Errorf("invalid %v: %v", keyClientIP, v.GetString(keyClientIP))
	}
	if c.ServerIP = net.ParseIP(v.GetString(keyServerIP)); c.ServerIP == nil {
		return droplist.Config{}, fmt.Errorf("invalid %v: %v", keyServerIP, v.GetString(keyServerIP))
	}

	if err := c.Validate(); err != nil {
		return droplist.Config{}, err
	}

	return c, nil
}

// parseHoldDown accepts a whole number of seconds.
func parseHoldDown(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected the flood hold-down to be a number: %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("expected the flood hold-down to be non-negative: %q", s)
	}

	return time.Duration(n) * time.Second, nil
}

// parseDroplist accepts a string such as "2,5" or "[2, 5]" as well as a
// YAML sequence.
func parseDroplist(v interface{}) ([]uint64, error) {
	switch value := v.(type) {
	case nil:
		return []uint64{}, nil
	case []interface{}:
		items := make([]string, len(value))
		for i, item := range value {
			items[i] = fmt.Sprint(item)
		}
		return droplist.ParseList(strings.Join(items, ","))
	default:
		return droplist.ParseList(fmt.Sprint(value))
	}
}

// parseIgnore reads DPIDs. Strings are hexadecimal like "00-00-00-00-00-01"
// while YAML integers are taken as they are.
func parseIgnore(v interface{}) ([]uint64, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case int:
		if value < 0 {
			return nil, fmt.Errorf("invalid DPID %v", value)
		}
		return []uint64{uint64(value)}, nil
	case []interface{}:
		result := make([]uint64, 0, len(value))
		for _, item := range value {
			dpids, err := parseIgnore(item)
			if err != nil {
				return nil, err
			}
			result = append(result, dpids...)
		}
		return result, nil
	default:
		return network.ParseDPIDList(fmt.Sprint(value))
	}
}

// readConfig reads path into v. A missing file is an error only when the
// user asked for it explicitly.
func readConfig(v *viper.Viper, path string, explicit bool) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return false, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return false, errors.Wrap(err, "failed to read the config file")
	}

	return true, nil
}
