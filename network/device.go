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
	"encoding"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/moonfalir/containernet/openflow"
	"github.com/moonfalir/containernet/openflow/transceiver"
)

var (
	ErrClosedDevice = errors.New("already closed device")
	ErrQueueFull    = errors.New("device write queue is full")
)

const (
	// Commands waiting for the device writer.
	writeQueueSize = 1024
)

type Features struct {
	DPID       uint64 `json:"dpid"`
	NumBuffers uint32 `json:"n_buffers"`
	NumTables  uint8  `json:"n_tables"`
	NumPorts   int    `json:"n_ports"`
}

// Device is a connected switch. Commands sent to it are written in order by
// a dedicated goroutine so that packet processing never waits on the socket.
type Device struct {
	mutex      sync.RWMutex
	id         string
	remoteAddr net.Addr
	connected  time.Time
	features   Features
	factory    openflow.Factory
	queue      chan encoding.BinaryMarshaler
	closed     bool
}

func newDevice(remoteAddr net.Addr, connected time.Time) *Device {
	return &Device{
		remoteAddr: remoteAddr,
		connected:  connected,
		queue:      make(chan encoding.BinaryMarshaler, writeQueueSize),
	}
}

func (r *Device) String() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return fmt.Sprintf("Device ID=%v, Addr=%v, Features=%+v, Connected=%v", r.id, r.remoteAddr, r.features, !r.closed)
}

func (r *Device) ID() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.id
}

func (r *Device) setID(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.id = id
}

func (r *Device) RemoteAddr() net.Addr {
	return r.remoteAddr
}

// ConnectedAt returns the time the TCP connection was accepted.
func (r *Device) ConnectedAt() time.Time {
	return r.connected
}

func (r *Device) Factory() openflow.Factory {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.factory
}

func (r *Device) setFactory(f openflow.Factory) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if f == nil {
		panic("Factory is nil")
	}
	r.factory = f
}

func (r *Device) Features() Features {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.features
}

func (r *Device) setFeatures(f Features) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.features = f
}

// SendMessage queues msg for the device writer. It never blocks: a full
// queue returns ErrQueueFull and msg is discarded.
func (r *Device) SendMessage(msg encoding.BinaryMarshaler) error {
	if msg == nil {
		panic("Message is nil")
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.closed {
		return ErrClosedDevice
	}
	select {
	case r.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// runWriter writes the queued messages to w until ctx is done.
func (r *Device) runWriter(ctx context.Context, w transceiver.Writer) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			if err := w.Write(msg); err != nil {
				logger.Errorf("failed to write a message to %v: %v", r.remoteAddr, err)
			}
		}
	}
}

func (r *Device) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.closed = true
}
