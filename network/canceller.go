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
	"context"
	"sync"
)

// canceller keeps the cancel function of every registered session so that a
// newer connection from the same DPID can tear down the stale one.
type canceller struct {
	mu    sync.Mutex
	elems map[uint64]context.CancelFunc
}

func newCanceller() *canceller {
	return &canceller{elems: make(map[uint64]context.CancelFunc)}
}

func (r *canceller) push(dpid uint64, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.elems[dpid] = cancel
}

func (r *canceller) pop(dpid uint64) (cancel context.CancelFunc, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok = r.elems[dpid]
	if !ok {
		return nil, false
	}
	delete(r.elems, dpid)

	return cancel, true
}
