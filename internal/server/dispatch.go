// Copyright Vane Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server wires the protocol listeners to the shared middleware
// chain, router and forwarder, and orchestrates their concurrent lifetime
// with internal/workgroup.
package server

import (
	"errors"
	"net/http"

	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/proxy"
	"github.com/canmi21/vane/internal/routing"
	"github.com/canmi21/vane/internal/statuspage"
	"github.com/canmi21/vane/internal/verror"
)

// dispatchHandler is the innermost handler of every pipeline: it resolves
// the route for (host, path) and forwards to the matched targets. Router
// and proxy errors alike are caught here and converted into a status-page
// response.
type dispatchHandler struct {
	router    *routing.Router
	forwarder *proxy.Forwarder
	pages     *statuspage.Server
	metrics   *metrics.Metrics
}

func newDispatchHandler(router *routing.Router, forwarder *proxy.Forwarder, pages *statuspage.Server, m *metrics.Metrics) http.Handler {
	return &dispatchHandler{router: router, forwarder: forwarder, pages: pages, metrics: m}
}

func (h *dispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	targets, err := h.router.Route(r.Host, r.URL.Path)
	if err != nil {
		h.writeRouterError(rec, err)
		h.observe(r.Host, rec.status)
		return
	}

	if err := h.forwarder.Forward(rec, r, targets); err != nil {
		h.writeForwarderError(rec, err)
		h.observe(r.Host, rec.status)
		return
	}

	h.observe(r.Host, rec.status)
}

func (h *dispatchHandler) observe(host string, status int) {
	if h.metrics != nil {
		h.metrics.ObserveRequest(host, status)
	}
}

// statusRecorder captures the status code written through it so the
// dispatch handler can report it to metrics after the fact, without the
// router/forwarder needing to know metrics exist.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *dispatchHandler) writeRouterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrHostNotFound):
		h.pages.Write(w, verror.KindHostNotFound.Status(), "400 host not found")
	case errors.Is(err, routing.ErrNoRouteFound):
		h.pages.Write(w, verror.KindNoRouteFound.Status(), "404 not found")
	case errors.Is(err, routing.ErrAmbiguousRoute):
		h.pages.Write(w, verror.KindAmbiguousRoute.Status(), "500 ambiguous route configuration")
	default:
		h.pages.Write(w, http.StatusInternalServerError, "500 internal error")
	}
}

func (h *dispatchHandler) writeForwarderError(w http.ResponseWriter, err error) {
	var verr *verror.Error
	if errors.As(err, &verr) {
		switch verr.Kind {
		case verror.KindRequestTooLarge:
			h.pages.Write(w, verr.Kind.Status(), "413 request entity too large")
			return
		default:
			h.pages.Write(w, verr.Kind.Status(), "502 bad gateway")
			return
		}
	}
	h.pages.Write(w, http.StatusBadGateway, "502 bad gateway")
}
