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

// Package metrics provides Prometheus metrics for Vane, grounded on
// contour's internal/metrics.Metrics: a registry-backed struct of
// pre-registered vectors, exposed over promhttp on a loopback debug port.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RequestsTotal        = "vane_requests_total"
	RateLimitedTotal     = "vane_rate_limited_total"
	BackendFailoverTotal = "vane_backend_failover_total"
	BuildInfoGauge       = "vane_build_info"
)

// Metrics holds the Prometheus collectors Vane updates from the request
// pipeline: one counter per completed request (labelled by host and status
// class), one per rate-limit rejection (labelled by which layer rejected
// it: shield, override, route, default), and one per ordered-target
// failover event.
type Metrics struct {
	requestsTotal        *prometheus.CounterVec
	rateLimitedTotal     *prometheus.CounterVec
	backendFailoverTotal *prometheus.CounterVec
	buildInfoGauge       *prometheus.GaugeVec
}

// NewMetrics constructs a Metrics and registers all of its collectors with
// registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RequestsTotal,
			Help: "Total number of requests dispatched, by host and response status class.",
		}, []string{"host", "status"}),
		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RateLimitedTotal,
			Help: "Total number of requests rejected by the rate limiter, by layer.",
		}, []string{"layer"}),
		backendFailoverTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: BackendFailoverTotal,
			Help: "Total number of times the forwarder moved to the next target for a route, by host.",
		}, []string{"host"}),
		buildInfoGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: BuildInfoGauge,
			Help: "Build information for the running vane binary.",
		}, []string{"version"}),
	}

	m.register(registry)
	return m
}

func (m *Metrics) register(registry *prometheus.Registry) {
	registry.MustRegister(
		m.requestsTotal,
		m.rateLimitedTotal,
		m.backendFailoverTotal,
		m.buildInfoGauge,
	)
}

// ObserveRequest records a completed request for host at the given status
// code, bucketed to its status class (2xx, 3xx, 4xx, 5xx).
func (m *Metrics) ObserveRequest(host string, status int) {
	m.requestsTotal.WithLabelValues(host, statusClass(status)).Inc()
}

// ObserveRateLimited records a rejection from the named layer: "shield",
// "override", "route", or "default", matching internal/ratelimit's tiers.
func (m *Metrics) ObserveRateLimited(layer string) {
	m.rateLimitedTotal.WithLabelValues(layer).Inc()
}

// ObserveFailover records the forwarder advancing to the next target for
// host after a connection error or 5xx response.
func (m *Metrics) ObserveFailover(host string) {
	m.backendFailoverTotal.WithLabelValues(host).Inc()
}

// SetBuildInfo publishes a constant 1-valued gauge labelled with version,
// the same "always-1, label-carries-the-value" trick contour's
// buildInfoGauge uses.
func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfoGauge.Reset()
	m.buildInfoGauge.WithLabelValues(version).Set(1)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// Handler returns the promhttp handler for registry, meant to be mounted
// on a loopback-only debug listener, never on the public HTTP/HTTPS/HTTP3
// listeners.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
