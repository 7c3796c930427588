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

package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/canmi21/vane/internal/build"
	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/server"
	"github.com/canmi21/vane/internal/setup"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// registerServe registers the "serve" subcommand, mirroring contour's
// cmd/contour/serve.go split between flag registration and the context
// those flags populate.
func registerServe(app *kingpin.Application) (*kingpin.CmdClause, *serveContext) {
	ctx := newServeContext()

	serve := app.Command("serve", "Run the reverse proxy.")

	serve.Flag("config", "Path to the main config file.").Envar("CONFIG").PlaceHolder(ctx.configPath).StringVar(&ctx.configPath)
	serve.Flag("http-port", "Plain HTTP listener port.").Envar("BIND_HTTP_PORT").IntVar(&ctx.httpPort)
	serve.Flag("https-port", "HTTPS/HTTP3 listener port.").Envar("BIND_HTTPS_PORT").IntVar(&ctx.httpsPort)
	serve.Flag("log-level", "One of debug, info, warn, error.").Envar("LOG_LEVEL").StringVar(&ctx.logLevel)
	serve.Flag("cert-dir", "Directory holding first-run certificates.").Envar("CERT_DIR").StringVar(&ctx.certDir)
	serve.Flag("cert-server", "ACME helper URL; if set, first-run fetches certs instead of self-signing.").Envar("CERT_SERVER").StringVar(&ctx.certServer)
	serve.Flag("config-dir", "Directory containing status/<code>.html status pages.").StringVar(&ctx.configDir)
	serve.Flag("metrics-addr", "Loopback address the Prometheus /metrics endpoint binds to.").StringVar(&ctx.metricsAddr)

	return serve, ctx
}

// doServe runs the serve subcommand to completion, returning the process
// exit code: 0 normal, 1 generic failure, 75 (EX_TEMPFAIL) on a first-run
// certificate acquisition failure.
func doServe(sc *serveContext, log logr.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hosts, needFirstRun, err := probeFirstRun(sc)
	if err != nil {
		log.Error(err, "inspecting configuration for first-run scaffolding")
		return 1
	}

	if needFirstRun {
		if err := setup.EnsureConfig(sc.configPath); err != nil {
			log.Error(err, "scaffolding example configuration")
			return 1
		}
	}

	if setup.NeedsRenewal(sc.certDir) {
		if err := setup.EnsureCertificates(ctx, sc.certDir, hosts, sc.certServer, log); err != nil {
			log.Error(err, "acquiring first-run certificates")
			return 75
		}
	}

	cfg, err := config.Load(sc.configPath, sc.httpPort, sc.httpsPort)
	if err != nil {
		log.Error(err, "loading configuration", "path", sc.configPath)
		return 1
	}

	if err := config.Validate(cfg); err != nil {
		log.Error(err, "validating configuration")
		return 1
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if sc.metricsAddr != "" {
		go serveMetrics(sc.metricsAddr, registry, log.WithValues("listener", "metrics"))
	}

	log.Info("starting vane", "version", build.Version, "http_port", sc.httpPort, "https_port", sc.httpsPort)

	// Outbound requests stay on HTTP/1.1: an empty, non-nil TLSNextProto
	// keeps the transport from negotiating h2 with https backends.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = false
	transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	outbound := &http.Client{Transport: transport}

	if err := server.Serve(ctx, cfg, sc.configDir, outbound, registry, log); err != nil {
		log.Error(err, "server exited")
		return 1
	}

	return 0
}

// probeFirstRun reports whether the configured main config file is
// missing (triggering example-config scaffolding) and the set of
// configured HTTPS hostnames certificates must cover. When the config
// does not exist yet, it falls back to the example domain so a brand new
// install still gets a usable self-signed certificate.
func probeFirstRun(sc *serveContext) (hosts []string, needFirstRun bool, err error) {
	if _, statErr := os.Stat(sc.configPath); os.IsNotExist(statErr) {
		return []string{"example.test"}, true, nil
	} else if statErr != nil {
		return nil, false, statErr
	}

	cfg, err := config.Load(sc.configPath, sc.httpPort, sc.httpsPort)
	if err != nil {
		return nil, false, err
	}

	for host, dc := range cfg.Domains {
		if dc.HTTPS {
			hosts = append(hosts, host)
		}
	}
	return hosts, false, nil
}

func serveMetrics(addr string, registry *prometheus.Registry, log logr.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))

	log.Info("starting metrics listener", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Error(err, "metrics listener exited")
	}
}
