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

package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("events")
)

const DefaultSubject = "droplist.drops"

// NATS publishes events as JSON on a NATS subject. nats.Conn buffers
// outgoing messages and flushes them from its own goroutine, so Publish
// returns without waiting for the server.
type NATS struct {
	conn    *nats.Conn
	subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("droplist-controller"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warningf("disconnected from NATS: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infof("reconnected to NATS at %v", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to NATS")
	}
	logger.Infof("connected to NATS at %v (subject=%v)", url, subject)

	return &NATS{conn: conn, subject: subject}, nil
}

func (r *NATS) Publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return r.conn.Publish(r.subject, data)
}

// Close flushes the pending events and closes the connection.
func (r *NATS) Close() error {
	return r.conn.Drain()
}
