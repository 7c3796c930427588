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
	"strings"

	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/statuspage"
)

// MethodFilter lets domains restrict the allowed
// HTTP methods with methods.allow, a comma list or "*". OPTIONS is subject
// to the filter unless explicitly listed — there is no implicit carve-out.
func MethodFilter(cfg *config.AppConfig, pages *statuspage.Server) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dc, ok := cfg.Domains[r.Host]
			if !ok || dc.Methods == nil || dc.Methods.Allow == "" || dc.Methods.Allow == "*" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := parseAllowList(dc.Methods.Allow)
			if !allowed[strings.ToUpper(r.Method)] {
				pages.Write(w, http.StatusMethodNotAllowed, "405 method not allowed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseAllowList(s string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range strings.Split(s, ",") {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			out[m] = true
		}
	}
	return out
}
