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

package server

import (
	"net/http"

	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/middleware"
	"github.com/canmi21/vane/internal/proxy"
	"github.com/canmi21/vane/internal/ratelimit"
	"github.com/canmi21/vane/internal/routing"
	"github.com/canmi21/vane/internal/statuspage"
)

// Shared is the set of process-wide collaborators every pipeline is built
// from: the frozen AppConfig, the pre-built rate-limit engine, the router,
// the outbound forwarder, the status-page server, and the metrics
// registry. It is constructed once in Serve and shared by reference across
// all three listeners.
type Shared struct {
	Config    *config.AppConfig
	Engine    *ratelimit.Engine
	Router    *routing.Router
	Forwarder *proxy.Forwarder
	Pages     *statuspage.Server
	Metrics   *metrics.Metrics
}

// httpPipeline builds the plain-HTTP listener pipeline:
// method-filter -> CORS -> rate-limit -> http-mode -> router -> forwarder.
func (s *Shared) httpPipeline() http.Handler {
	dispatch := newDispatchHandler(s.Router, s.Forwarder, s.Pages, s.Metrics)

	chain := middleware.Chain(
		middleware.RequestID(),
		middleware.MethodFilter(s.Config, s.Pages),
		middleware.CORS(s.Config),
		middleware.RateLimit(s.Engine, s.Pages, s.Metrics),
		middleware.HTTPModePolicy(s.Config, s.Pages),
	)

	return chain(dispatch)
}

// httpsPipeline builds the HTTPS-TCP listener pipeline:
// inject-host -> method-filter -> CORS -> rate-limit -> alt-svc -> hsts ->
// router -> forwarder.
func (s *Shared) httpsPipeline() http.Handler {
	dispatch := newDispatchHandler(s.Router, s.Forwarder, s.Pages, s.Metrics)

	chain := middleware.Chain(
		middleware.RequestID(),
		middleware.InjectHost(),
		middleware.MethodFilter(s.Config, s.Pages),
		middleware.CORS(s.Config),
		middleware.RateLimit(s.Engine, s.Pages, s.Metrics),
		middleware.AltSvc(s.Config),
		middleware.HSTS(s.Config),
	)

	return chain(dispatch)
}

// http3Pipeline builds the HTTP/3 listener pipeline: identical
// to httpsPipeline but without Alt-Svc (an HTTP/3 connection has nothing
// further to advertise to).
func (s *Shared) http3Pipeline() http.Handler {
	dispatch := newDispatchHandler(s.Router, s.Forwarder, s.Pages, s.Metrics)

	chain := middleware.Chain(
		middleware.RequestID(),
		middleware.InjectHost(),
		middleware.MethodFilter(s.Config, s.Pages),
		middleware.CORS(s.Config),
		middleware.RateLimit(s.Engine, s.Pages, s.Metrics),
		middleware.HSTS(s.Config),
	)

	return chain(dispatch)
}

// anyHTTPS reports whether at least one domain participates in TLS, the
// gate on starting the HTTPS-TCP listener at all.
func anyHTTPS(cfg *config.AppConfig) bool {
	for _, dc := range cfg.Domains {
		if dc.HTTPS {
			return true
		}
	}
	return false
}

// anyHTTP3 reports whether at least one domain advertises HTTP/3, the gate
// on starting the HTTP/3 listener at all.
func anyHTTP3(cfg *config.AppConfig) bool {
	for _, dc := range cfg.Domains {
		if dc.HTTP3 {
			return true
		}
	}
	return false
}
