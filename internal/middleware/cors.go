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
)

// CORS handles preflight and origin checks. Preflight requests are terminal: they
// never reach the router or forwarder. Actual requests are stamped with
// Access-Control-Allow-Origin + Vary on the way back out if their origin
// was allowed.
func CORS(cfg *config.AppConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dc, ok := cfg.Domains[r.Host]
			if !ok || dc.CORS == nil {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			methods, allowed := lookupOrigin(dc.CORS.Origins, origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				handlePreflight(w, r, origin, methods, allowed)
				return
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func lookupOrigin(origins map[string]string, origin string) (methods string, allowed bool) {
	if m, ok := origins[origin]; ok {
		return m, true
	}
	if m, ok := origins["*"]; ok {
		return m, true
	}
	return "", false
}

func handlePreflight(w http.ResponseWriter, r *http.Request, origin, methods string, originAllowed bool) {
	w.Header().Add("Vary", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers")

	requested := strings.ToUpper(strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")))
	methodAllowed := methods == "" || methods == "*" || methodInList(methods, requested)

	if originAllowed && methodAllowed {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", "*")
	}

	// Either way the response is 200: an unmet condition simply omits the
	// ACAO header, which browsers treat as denial.
	w.WriteHeader(http.StatusOK)
}

func methodInList(methods, want string) bool {
	for _, m := range strings.Split(methods, ",") {
		if strings.ToUpper(strings.TrimSpace(m)) == want {
			return true
		}
	}
	return false
}
