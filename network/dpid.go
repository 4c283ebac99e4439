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
	"fmt"
	"strconv"
	"strings"
)

// FormatDPID formats a datapath ID as six dash separated MAC style octets,
// followed by "|n" when the upper 16 bits n are not zero.
func FormatDPID(dpid uint64) string {
	octets := make([]string, 6)
	for i := 0; i < 6; i++ {
		octets[i] = fmt.Sprintf("%02x", byte(dpid>>uint(40-8*i)))
	}
	v := strings.Join(octets, "-")
	if upper := dpid >> 48; upper != 0 {
		v += fmt.Sprintf("|%d", upper)
	}

	return v
}

// ParseDPID accepts what FormatDPID returns. The part before '|' is read as
// hexadecimal with or without dashes and a "0x" prefix, so "1",
// "0x1" and "00-00-00-00-00-01" are the same switch.
func ParseDPID(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "0x")
	parts := strings.SplitN(strings.Replace(s, "-", "", -1), "|", 2)
	if parts[0] == "" {
		return 0, fmt.Errorf("invalid DPID %q", s)
	}

	low, err := strconv.ParseUint(parts[0], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid DPID %q: %v", s, err)
	}
	upper := low >> 48
	low &= 0xFFFFFFFFFFFF
	if len(parts) == 2 {
		v, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid DPID %q: %v", s, err)
		}
		upper = v
	}

	return low | upper<<48, nil
}

// ParseDPIDList parses a comma or space separated list of DPIDs.
func ParseDPIDList(s string) ([]uint64, error) {
	fields := strings.FieldsFunc(s, func(c rune) bool {
		return c == ',' || c == ' ' || c == '\t'
	})
	v := make([]uint64, 0, len(fields))
	for _, f := range fields {
		dpid, err := ParseDPID(f)
		if err != nil {
			return nil, err
		}
		v = append(v, dpid)
	}

	return v, nil
}
