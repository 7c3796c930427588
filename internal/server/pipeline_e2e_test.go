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

	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/proxy"
	"github.com/canmi21/vane/internal/ratelimit"
	"github.com/canmi21/vane/internal/routing"
	"github.com/canmi21/vane/internal/statuspage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

func sharedFor(cfg *config.AppConfig, statusDir string) *Shared {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return &Shared{
		Config:    cfg,
		Engine:    ratelimit.New(cfg, ratelimit.NewShield()),
		Router:    routing.New(cfg),
		Forwarder: proxy.New(nil, m),
		Pages:     statuspage.New(statusDir),
		Metrics:   m,
	}
}

var _ = Describe("the plain-HTTP pipeline", func() {
	var backend *httptest.Server

	BeforeEach(func() {
		backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("backend:" + r.URL.Path))
		}))
	})

	AfterEach(func() {
		backend.Close()
	})

	Specify("an exact route beats a wildcard route for the same path", func() {
		wildcardBackend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("wildcard"))
		}))
		defer wildcardBackend.Close()

		cfg := &config.AppConfig{Domains: map[string]*config.DomainConfig{
			"example.com": {Routes: []config.Route{
				{PathPattern: "/api/widgets", Targets: []string{backend.URL}},
				{PathPattern: "/api/*", Targets: []string{wildcardBackend.URL}},
			}},
		}}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpPipeline()

		req := httptest.NewRequest(http.MethodGet, "/api/widgets", nil)
		req.Host = "example.com"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("backend:"))
	})

	Specify("an ordered target list fails over past a dead first target", func() {
		cfg := &config.AppConfig{Domains: map[string]*config.DomainConfig{
			"example.com": {Routes: []config.Route{
				{PathPattern: "/", Targets: []string{"http://127.0.0.1:1", backend.URL}},
			}},
		}}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpPipeline()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "example.com"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	Specify("a disallowed method never reaches the backend", func() {
		cfg := &config.AppConfig{Domains: map[string]*config.DomainConfig{
			"example.com": {
				Methods: &config.MethodsConfig{Allow: "GET"},
				Routes:  []config.Route{{PathPattern: "/", Targets: []string{backend.URL}}},
			},
		}}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpPipeline()

		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req.Host = "example.com"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
	})

	Specify("the shield rejects a client IP regardless of which domain it targets", func() {
		cfg := &config.AppConfig{Domains: map[string]*config.DomainConfig{
			"example.com": {Routes: []config.Route{{PathPattern: "/", Targets: []string{backend.URL}}}},
			"other.com":   {Routes: []config.Route{{PathPattern: "/", Targets: []string{backend.URL}}}},
		}}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpPipeline()

		var last *httptest.ResponseRecorder
		for i := 0; i < ratelimit.ShieldBurst+1; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = "example.com"
			if i == ratelimit.ShieldBurst {
				req.Host = "other.com"
			}
			req.RemoteAddr = "55.55.55.55:1111"
			last = httptest.NewRecorder()
			h.ServeHTTP(last, req)
		}

		Expect(last.Code).To(Equal(http.StatusTooManyRequests))
	})

	Specify("a rate-limit override for a path bypasses that path's own route limiter", func() {
		cfg := &config.AppConfig{Domains: map[string]*config.DomainConfig{
			"example.com": {
				RateLimit: &config.RateLimitConfig{
					Routes:    []config.RouteRule{{Path: "/admin", Rule: config.Rule{Period: "1h", Requests: 1}}},
					Overrides: []config.RouteRule{{Path: "/admin", Rule: config.Rule{Period: "1h", Requests: 3}}},
				},
				Routes: []config.Route{{PathPattern: "/admin", Targets: []string{backend.URL}}},
			},
		}}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpPipeline()

		var rec *httptest.ResponseRecorder
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Host = "example.com"
			req.RemoteAddr = "66.66.66.66:2222"
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)
		}

		Expect(rec.Code).To(Equal(http.StatusOK), "the override's own budget governs, not the 1-request route rule")
	})

	Specify("an http_options=upgrade domain redirects plain HTTP to HTTPS", func() {
		cfg := &config.AppConfig{Domains: map[string]*config.DomainConfig{
			"example.com": {
				HTTPOptions: config.HTTPUpgrade,
				Routes:      []config.Route{{PathPattern: "/", Targets: []string{backend.URL}}},
			},
		}}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpPipeline()

		req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
		req.Host = "example.com"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusMovedPermanently))
		Expect(rec.Header().Get("Location")).To(Equal("https://example.com/widgets"))
	})

	Specify("an unconfigured host is rejected with 400 Bad Request", func() {
		cfg := &config.AppConfig{Domains: map[string]*config.DomainConfig{}}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpPipeline()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "nowhere.test"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("the HTTPS-TCP pipeline", func() {
	Specify("a preflight request for an allowed origin is answered before dispatch", func() {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot) // would prove the request reached the backend, which it must not
		}))
		defer backend.Close()

		cfg := &config.AppConfig{
			HTTPSPort: 443,
			Domains: map[string]*config.DomainConfig{
				"example.com": {
					HTTPS: true,
					CORS:  &config.CORSConfig{Origins: map[string]string{"https://ui.test": "GET,POST"}},
					Routes: []config.Route{
						{PathPattern: "/", Targets: []string{backend.URL}},
					},
				},
			},
		}
		s := sharedFor(cfg, GinkgoT().TempDir())
		h := s.httpsPipeline()

		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Host = "example.com"
		req.Header.Set("Origin", "https://ui.test")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://ui.test"))
	})
})
