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
	"net/http"

	"github.com/moonfalir/containernet/network"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/davecgh/go-spew/spew"
)

func (r *Server) listSwitch(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("switch list request from %v", req.RemoteAddr)

	writeResponse(w, Response{Status: StatusOkay, Data: r.Controller.Sessions()})
}

func (r *Server) getSwitch(w rest.ResponseWriter, req *rest.Request) {
	param := req.PathParam("dpid")
	logger.Debugf("switch request from %v: %v", req.RemoteAddr, spew.Sdump(param))

	dpid, err := network.ParseDPID(param)
	if err != nil {
		writeResponse(w, Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	session, ok := r.Controller.Session(dpid)
	if !ok {
		writeResponse(w, Response{Status: StatusNotFound, Message: "unknown switch: " + network.FormatDPID(dpid)})
		return
	}

	writeResponse(w, Response{Status: StatusOkay, Data: session})
}

func (r *Server) listHistory(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("history request from %v", req.RemoteAddr)

	writeResponse(w, Response{Status: StatusOkay, Data: r.Controller.History()})
}

// writeResponse encodes resp before anything is written, so a response that
// cannot be encoded is replaced by an internal server error.
func writeResponse(w rest.ResponseWriter, resp Response) {
	b, err := w.EncodeJson(resp)
	if err != nil {
		logger.Errorf("failed to encode the response: %v", err)
		b, err = w.EncodeJson(Response{Status: StatusInternalServerError, Message: "failed to encode the response"})
		if err != nil {
			logger.Errorf("failed to encode the error response: %v", err)
			return
		}
	}

	if _, err := w.(http.ResponseWriter).Write(b); err != nil {
		logger.Debugf("failed to write the response: %v", err)
	}
}
