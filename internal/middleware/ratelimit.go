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

package middleware

import (
	"net/http"

	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/ratelimit"
	"github.com/canmi21/vane/internal/reqctx"
	"github.com/canmi21/vane/internal/statuspage"
)

// RateLimit applies the engine's three-tier
// check (shield, override, route+default) keyed by client IP. m may be nil
// in tests that do not care about metrics.
func RateLimit(engine *ratelimit.Engine, pages *statuspage.Server, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := reqctx.ClientIP(r)
			if allowed, layer := engine.Check(r.Host, r.URL.Path, ip); !allowed {
				if m != nil {
					m.ObserveRateLimited(layer)
				}
				pages.Write(w, http.StatusTooManyRequests, "429 too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
