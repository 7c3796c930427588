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

import "net/http"

// InjectHost is used only on the HTTPS-TCP and
// HTTP/3 listeners. HTTP/2 and HTTP/3 deliver the authority as the
// request URI's Host component (Go's net/http already folds ":authority"
// into r.Host for h2/h3), but some downstream extractors read the Host
// header directly; this layer copies it across when absent so both paths
// agree.
func InjectHost() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Host") == "" && r.Host != "" {
				r.Header.Set("Host", r.Host)
			}
			next.ServeHTTP(w, r)
		})
	}
}
