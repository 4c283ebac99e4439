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

package transceiver

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"
)

// Stream wraps a switch connection with a buffered reader and per-direction
// I/O timeouts.
type Stream struct {
	conn io.ReadWriteCloser

	reader struct {
		sync.Mutex
		// Peek() returns a slice of rd's internal buffer, so every read
		// path holds the mutex until it has copied what it needs.
		rd      *bufio.Reader
		timeout time.Duration
	}

	writer struct {
		sync.Mutex
		timeout time.Duration
	}
}

type deadline interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// NewStream returns a stream on conn. bufSize should be at least the size
// of the largest OpenFlow message we expect, which is 64KB for OpenFlow 1.0.
func NewStream(conn io.ReadWriteCloser, bufSize int) *Stream {
	if conn == nil {
		panic("nil connection")
	}

	s := &Stream{conn: conn}
	s.reader.rd = bufio.NewReaderSize(conn, bufSize)

	return s
}

type unknownAddr struct{}

func (r unknownAddr) Network() string {
	return "unknown"
}

func (r unknownAddr) String() string {
	return "unknown"
}

func (r *Stream) RemoteAddr() net.Addr {
	v, ok := r.conn.(interface{ RemoteAddr() net.Addr })
	if !ok {
		return unknownAddr{}
	}

	return v.RemoteAddr()
}

// SetReadTimeout sets the read timeout applied before every read. Zero means
// no timeout.
func (r *Stream) SetReadTimeout(t time.Duration) {
	r.reader.Lock()
	defer r.reader.Unlock()

	r.reader.timeout = t
}

// SetWriteTimeout sets the write timeout applied before every write. Zero
// means no timeout.
func (r *Stream) SetWriteTimeout(t time.Duration) {
	r.writer.Lock()
	defer r.writer.Unlock()

	r.writer.timeout = t
}

// NOTE: the caller should hold the reader lock.
func (r *Stream) setReadDeadline() {
	d, ok := r.conn.(deadline)
	if !ok {
		return
	}

	if r.reader.timeout > 0 {
		d.SetReadDeadline(time.Now().Add(r.reader.timeout))
	} else {
		d.SetReadDeadline(time.Time{})
	}
}

// Peek returns a copy of the next n bytes without consuming them.
func (r *Stream) Peek(n int) ([]byte, error) {
	r.reader.Lock()
	defer r.reader.Unlock()

	if n <= 0 {
		return []byte{}, nil
	}

	r.setReadDeadline()
	v, err := r.reader.rd.Peek(n)
	if err != nil {
		return nil, err
	}
	p := make([]byte, len(v))
	copy(p, v)

	return p, nil
}

// ReadN reads exactly n bytes. On error nothing is consumed, so a timed out
// caller can retry without losing the partially received message.
func (r *Stream) ReadN(n int) ([]byte, error) {
	r.reader.Lock()
	defer r.reader.Unlock()

	r.setReadDeadline()
	// Wait until the whole message is in the buffer.
	if _, err := r.reader.rd.Peek(n); err != nil {
		return nil, err
	}

	p := make([]byte, n)
	if _, err := io.ReadFull(r.reader.rd, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Write writes p to the connection. It is safe for concurrent use.
func (r *Stream) Write(p []byte) (n int, err error) {
	r.writer.Lock()
	defer r.writer.Unlock()

	if d, ok := r.conn.(deadline); ok {
		if r.writer.timeout > 0 {
			d.SetWriteDeadline(time.Now().Add(r.writer.timeout))
		} else {
			d.SetWriteDeadline(time.Time{})
		}
	}

	return r.conn.Write(p)
}

func (r *Stream) Close() error {
	return r.conn.Close()
}
