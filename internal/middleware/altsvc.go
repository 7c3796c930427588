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
	"fmt"
	"net/http"

	"github.com/canmi21/vane/internal/config"
)

// AltSvc is an HTTPS-TCP listener-only layer: it advertises
// HTTP/3 availability for domains with http3=true so clients upgrade their
// next connection to QUIC.
func AltSvc(cfg *config.AppConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if dc, ok := cfg.Domains[r.Host]; ok && dc.HTTP3 {
				w.Header().Set("Alt-Svc", fmt.Sprintf(`h3=":%d"; ma=86400`, cfg.HTTPSPort))
			}
			next.ServeHTTP(w, r)
		})
	}
}
