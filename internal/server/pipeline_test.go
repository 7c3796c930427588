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
	"net/http/httptest"
	"testing"

	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/proxy"
	"github.com/canmi21/vane/internal/ratelimit"
	"github.com/canmi21/vane/internal/routing"
	"github.com/canmi21/vane/internal/statuspage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShared(t *testing.T, cfg *config.AppConfig) *Shared {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return &Shared{
		Config:    cfg,
		Engine:    ratelimit.New(cfg, ratelimit.NewShield()),
		Router:    routing.New(cfg),
		Forwarder: proxy.New(nil, m),
		Pages:     statuspage.New(t.TempDir()),
		Metrics:   m,
	}
}

func TestHTTPSPipelineAdvertisesAltSvcAndHSTS(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	cfg := &config.AppConfig{
		HTTPSPort: 443,
		Domains: map[string]*config.DomainConfig{
			"example.com": {
				HTTPS: true, HTTP3: true, HSTS: true,
				Routes: []config.Route{{PathPattern: "/", Targets: []string{backend.URL}}},
			},
		},
	}
	s := newTestShared(t, cfg)
	h := s.httpsPipeline()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `h3=":443"; ma=86400`, rec.Header().Get("Alt-Svc"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHTTP3PipelineOmitsAltSvc(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	cfg := &config.AppConfig{
		HTTPSPort: 443,
		Domains: map[string]*config.DomainConfig{
			"example.com": {
				HTTPS: true, HTTP3: true, HSTS: true,
				Routes: []config.Route{{PathPattern: "/", Targets: []string{backend.URL}}},
			},
		},
	}
	s := newTestShared(t, cfg)
	h := s.http3Pipeline()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Alt-Svc"), "HTTP/3 has nothing further to advertise to")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHTTPPipelineAppliesHTTPModePolicyBeforeDispatch(t *testing.T) {
	cfg := &config.AppConfig{
		Domains: map[string]*config.DomainConfig{
			"example.com": {
				HTTPOptions: config.HTTPReject,
				Routes:      []config.Route{{PathPattern: "/", Targets: []string{"http://127.0.0.1:1"}}},
			},
		},
	}
	s := newTestShared(t, cfg)
	h := s.httpPipeline()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUpgradeRequired, rec.Code, "rejected before ever reaching the (unreachable) backend")
}

func TestAnyHTTPSReflectsDomainConfiguration(t *testing.T) {
	assert.False(t, anyHTTPS(&config.AppConfig{Domains: map[string]*config.DomainConfig{
		"a.com": {HTTPS: false},
	}}))
	assert.True(t, anyHTTPS(&config.AppConfig{Domains: map[string]*config.DomainConfig{
		"a.com": {HTTPS: false},
		"b.com": {HTTPS: true},
	}}))
}

func TestAnyHTTP3ReflectsDomainConfiguration(t *testing.T) {
	assert.False(t, anyHTTP3(&config.AppConfig{Domains: map[string]*config.DomainConfig{
		"a.com": {HTTP3: false},
	}}))
	assert.True(t, anyHTTP3(&config.AppConfig{Domains: map[string]*config.DomainConfig{
		"a.com": {HTTP3: false},
		"b.com": {HTTP3: true},
	}}))
}
