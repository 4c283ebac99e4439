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
	"net"
	"sort"
	"strconv"
	"strings"
)

// Role names the endpoint a filter watches.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// Filter counts the TCP and UDP packets sent by one IPv4 address and tells
// which of them are listed for dropping. The first such packet is number 1.
type Filter struct {
	role    Role
	target  net.IP
	list    map[uint64]struct{}
	counter uint64
}

func NewFilter(role Role, target net.IP, list []uint64) *Filter {
	v := &Filter{
		role:   role,
		target: target.To4(),
		list:   make(map[uint64]struct{}, len(list)),
	}
	for _, n := range list {
		v.list[n] = struct{}{}
	}

	return v
}

func (r *Filter) Role() Role {
	return r.role
}

func (r *Filter) Target() net.IP {
	return r.target
}

// Test counts the packet when it is a qualifying one from our target and
// reports whether its number is on the list. Other packets are not counted.
func (r *Filter) Test(src net.IP, qualifying bool) bool {
	if !qualifying || src == nil || !r.target.Equal(src) {
		return false
	}
	r.counter++
	_, ok := r.list[r.counter]

	return ok
}

// Counter returns the number of qualifying packets seen so far.
func (r *Filter) Counter() uint64 {
	return r.counter
}

// List returns the droplist in ascending order.
func (r *Filter) List() []uint64 {
	v := make([]uint64, 0, len(r.list))
	for n := range r.list {
		v = append(v, n)
	}
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })

	return v
}

// ParseList parses a droplist such as "2,5", "2 5" or "[2, 5]". Python style
// quoting of the items is accepted as well.
func ParseList(s string) ([]uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	fields := strings.FieldsFunc(s, func(c rune) bool {
		return c == ',' || c == ' ' || c == '\t'
	})
	v := make([]uint64, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `'"`)
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid droplist entry %q: must be a non-negative integer", f)
		}
		v = append(v, n)
	}

	return v, nil
}
