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

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/moonfalir/containernet/network"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	logger = logging.MustGetLogger("api")
)

const (
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	Port uint16
	TLS  struct {
		Cert string // Path for a TLS certification file.
		Key  string // Path for a TLS private key file.
	}
	Controller Controller
}

type Controller interface {
	Sessions() []network.SessionInfo
	Session(dpid uint64) (network.SessionInfo, bool)
	History() []network.SessionInfo
}

func (r *Server) validate() error {
	if r.Controller == nil {
		return errors.New("nil controller")
	}

	return nil
}

// Handler returns the REST API under /api/ and the Prometheus metrics under
// /metrics.
func (r *Server) Handler() (http.Handler, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	api := rest.NewApi()
	// Middleware to set the CORS header.
	api.Use(rest.MiddlewareSimple(func(handler rest.HandlerFunc) rest.HandlerFunc {
		return func(writer rest.ResponseWriter, request *rest.Request) {
			writer.Header().Set("Access-Control-Allow-Origin", "*")
			handler(writer, request)
		}
	}))
	router, err := rest.MakeRouter(
		rest.Get("/api/v1/switch", r.listSwitch),
		rest.Get("/api/v1/switch/:dpid", r.getSwitch),
		rest.Get("/api/v1/history", r.listHistory),
	)
	if err != nil {
		return nil, err
	}
	api.SetApp(router)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.MakeHandler())
	mux.Handle("/metrics", promhttp.Handler())

	return mux, nil
}

// Serve listens on all interfaces until ctx is canceled.
func (r *Server) Serve(ctx context.Context) error {
	handler, err := r.Handler()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", r.Port),
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("failed to shut down the REST server: %v", err)
		}
	}()

	logger.Infof("serving the REST API on %v", server.Addr)
	if r.TLS.Cert != "" && r.TLS.Key != "" {
		err = server.ListenAndServeTLS(r.TLS.Cert, r.TLS.Key)
	} else {
		err = server.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}

	return err
}
