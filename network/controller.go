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
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/moonfalir/containernet/droplist"
	"github.com/moonfalir/containernet/events"

	lru "github.com/hashicorp/golang-lru"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("network")
)

const (
	defaultHistorySize = 128
)

type Config struct {
	// Droplist is the template of the state created for each switch.
	Droplist droplist.Config
	// Ignore lists the DPIDs that get no droplist state. Their connections
	// stay up but their packets are never answered.
	Ignore []uint64
	// HistorySize is the number of closed sessions remembered.
	HistorySize int
	// Publisher receives the droplist drop events. Nil discards them.
	Publisher events.Publisher
}

// SessionInfo is a snapshot of a switch connection.
type SessionInfo struct {
	DPID           string           `json:"dpid"`
	RemoteAddr     string           `json:"remote_addr"`
	ConnectedAt    time.Time        `json:"connected_at"`
	DisconnectedAt *time.Time       `json:"disconnected_at,omitempty"`
	Ignored        bool             `json:"ignored"`
	Features       Features         `json:"features"`
	Droplist       *droplist.Status `json:"droplist,omitempty"`
}

// Controller keeps one session per connected DPID.
type Controller struct {
	mutex     sync.Mutex
	config    droplist.Config
	ignore    map[uint64]struct{}
	sessions  map[uint64]*session
	canceller *canceller
	history   *lru.Cache
	// Key of the next history entry. The LRU cache is used as a bounded
	// FIFO, so keys are never reused.
	seq       uint64
	publisher events.Publisher
	now       func() time.Time
}

func NewController(c Config) (*Controller, error) {
	if err := c.Droplist.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid droplist configuration")
	}
	if c.HistorySize <= 0 {
		c.HistorySize = defaultHistorySize
	}
	history, err := lru.New(c.HistorySize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create the session history")
	}
	publisher := c.Publisher
	if publisher == nil {
		publisher = events.Discard{}
	}

	ignore := make(map[uint64]struct{}, len(c.Ignore))
	for _, dpid := range c.Ignore {
		ignore[dpid] = struct{}{}
	}

	return &Controller{
		config:    c.Droplist,
		ignore:    ignore,
		sessions:  make(map[uint64]*session),
		canceller: newCanceller(),
		history:   history,
		publisher: publisher,
		now:       time.Now,
	}, nil
}

// AddConnection serves a new switch connection until it is closed or ctx
// is canceled. It does not block.
func (r *Controller) AddConnection(ctx context.Context, conn net.Conn) {
	s := newSession(r, conn, r.now())
	logger.Infof("new switch connection from %v", conn.RemoteAddr())

	go s.Run(ctx)
}

func (r *Controller) register(s *session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	dpid := s.dpid
	// Already connected device?
	if _, ok := r.sessions[dpid]; ok {
		// Some switches open a fresh connection while the old one still
		// looks alive. Drop both so the switch can start over cleanly.
		if cancel, ok := r.canceller.pop(dpid); ok && cancel != nil {
			cancel()
		}
		return errors.Errorf("duplicated device DPID %v (aux. connection is not supported)", FormatDPID(dpid))
	}

	if _, ok := r.ignore[dpid]; ok {
		s.ignored = true
		logger.Infof("ignoring connection to %v", FormatDPID(dpid))
	} else {
		s.droplist = droplist.NewSwitch(FormatDPID(dpid), r.config, s.device.ConnectedAt())
		logger.Infof("connected device (DPID=%v, addr=%v)", FormatDPID(dpid), s.device.RemoteAddr())
	}
	r.sessions[dpid] = s
	r.canceller.push(dpid, s.canceller)
	switchesConnected.Set(float64(len(r.sessions)))

	return nil
}

func (r *Controller) unregister(s *session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// A rejected duplicate never owned the entry.
	if v, ok := r.sessions[s.dpid]; !ok || v != s {
		return
	}
	delete(r.sessions, s.dpid)
	r.canceller.pop(s.dpid)
	switchesConnected.Set(float64(len(r.sessions)))

	info := s.info()
	disconnected := r.now()
	info.DisconnectedAt = &disconnected
	r.seq++
	r.history.Add(r.seq, info)
}

func (r *session) info() SessionInfo {
	v := SessionInfo{
		DPID:        r.device.ID(),
		RemoteAddr:  r.device.RemoteAddr().String(),
		ConnectedAt: r.device.ConnectedAt(),
		Ignored:     r.ignored,
		Features:    r.device.Features(),
	}
	if r.droplist != nil {
		status := r.droplist.Status()
		v.Droplist = &status
	}

	return v
}

// Sessions returns the registered sessions ordered by DPID.
func (r *Controller) Sessions() []SessionInfo {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	dpids := make([]uint64, 0, len(r.sessions))
	for k := range r.sessions {
		dpids = append(dpids, k)
	}
	sort.Slice(dpids, func(i, j int) bool { return dpids[i] < dpids[j] })

	result := make([]SessionInfo, 0, len(dpids))
	for _, v := range dpids {
		result = append(result, r.sessions[v].info())
	}

	return result
}

func (r *Controller) Session(dpid uint64) (info SessionInfo, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.sessions[dpid]
	if !ok {
		return SessionInfo{}, false
	}

	return s.info(), true
}

// History returns the closed sessions, oldest first.
func (r *Controller) History() []SessionInfo {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	keys := r.history.Keys()
	result := make([]SessionInfo, 0, len(keys))
	for _, k := range keys {
		v, ok := r.history.Peek(k)
		if !ok {
			continue
		}
		result = append(result, v.(SessionInfo))
	}

	return result
}

func (r *Controller) String() string {
	sessions := r.Sessions()

	var b strings.Builder
	fmt.Fprintf(&b, "Connected switches: %v\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(&b, "  %v (addr=%v, connected=%v, ignored=%v)\n", s.DPID, s.RemoteAddr, s.ConnectedAt.Format(time.RFC3339), s.Ignored)
		if s.Droplist == nil {
			continue
		}
		d := s.Droplist
		fmt.Fprintf(&b, "    client %v: counter=%v, droplist=%v\n", d.ClientIP, d.ClientCounter, d.ClientDroplist)
		fmt.Fprintf(&b, "    server %v: counter=%v, droplist=%v\n", d.ServerIP, d.ServerCounter, d.ServerDroplist)
		fmt.Fprintf(&b, "    hold-down=%v (expired=%v), addresses=%v\n", d.HoldDown, d.HoldDownExpired, len(d.Addresses))
	}

	return b.String()
}
