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
	"context"
	"net/http"
	"time"

	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/proxy"
	"github.com/canmi21/vane/internal/ratelimit"
	"github.com/canmi21/vane/internal/routing"
	"github.com/canmi21/vane/internal/statuspage"
	"github.com/canmi21/vane/internal/tlsregistry"
	"github.com/canmi21/vane/internal/workgroup"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

// shutdownGrace bounds how long an individual listener's Shutdown is
// allowed to drain in-flight requests once the group is cancelled.
const shutdownGrace = 30 * time.Second

// Serve builds the shared pipeline collaborators from cfg and runs the
// three protocol listeners concurrently in a workgroup.Group, blocking
// until ctx is cancelled or any listener exits. The HTTPS-TCP listener
// only starts if at least one domain has https=true; the HTTP/3 listener
// only starts if at least one domain has http3=true.
func Serve(ctx context.Context, cfg *config.AppConfig, configDir string, outboundClient *http.Client, registry *prometheus.Registry, log logr.Logger) error {
	m := metrics.NewMetrics(registry)

	shared := &Shared{
		Config:    cfg,
		Engine:    ratelimit.New(cfg, ratelimit.NewShield()),
		Router:    routing.New(cfg),
		Forwarder: proxy.New(outboundClient, m),
		Pages:     statuspage.New(configDir),
		Metrics:   m,
	}

	resolver := tlsregistry.New(cfg, log)

	var g workgroup.Group

	g.AddContext(func(ctx context.Context) error {
		return serveHTTP(ctx, cfg.HTTPPort, shared.httpPipeline(), log.WithValues("listener", "http"))
	})

	if anyHTTPS(cfg) {
		g.AddContext(func(ctx context.Context) error {
			return serveHTTPS(ctx, cfg.HTTPSPort, shared.httpsPipeline(), resolver, log.WithValues("listener", "https"))
		})
	}

	if anyHTTP3(cfg) {
		g.AddContext(func(ctx context.Context) error {
			return serveHTTP3(ctx, cfg.HTTPSPort, shared.http3Pipeline(), resolver, log.WithValues("listener", "http3"))
		})
	}

	// Ties the caller's cancellation (SIGINT/SIGTERM) into the group: when
	// ctx is done, this function returns, which makes Run() close the
	// shared stop channel that every AddContext-registered listener above
	// is watching.
	g.Add(func(stop <-chan struct{}) error {
		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		}
	})

	return g.Run()
}
