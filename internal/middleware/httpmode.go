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

	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/statuspage"
)

// HTTPModePolicy is applied only on the plain-HTTP
// listener: allow forwards, reject answers 426, upgrade redirects to the
// HTTPS equivalent URL with a 301.
func HTTPModePolicy(cfg *config.AppConfig, pages *statuspage.Server) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dc, ok := cfg.Domains[r.Host]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			switch dc.HTTPOptions {
			case config.HTTPReject:
				pages.Write(w, http.StatusUpgradeRequired, "426 upgrade required")
			case config.HTTPUpgrade:
				target := "https://" + r.Host + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusMovedPermanently)
			default: // allow, or unset
				next.ServeHTTP(w, r)
			}
		})
	}
}
