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

// Package middleware implements the ordered, single-pass request/response
// transformers as the classical onion model: each layer is
// a func(http.Handler) http.Handler, composed by nesting. No layer buffers
// the body; each produces or passes through a complete response.
package middleware

import "net/http"

// Middleware wraps an http.Handler with another layer of behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes layers outermost-first: Chain(a, b, c)(h) runs a, then b,
// then c, then h on the way in, and unwinds in reverse on the way out,
// preserving the configured layer ordering.
func Chain(layers ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		h := final
		for i := len(layers) - 1; i >= 0; i-- {
			h = layers[i](h)
		}
		return h
	}
}
