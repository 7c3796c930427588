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

	"github.com/canmi21/vane/internal/reqctx"
	"github.com/google/uuid"
)

// RequestID is the always-on, outermost layer that stamps a correlation ID
// into the request context, readable through reqctx.RequestID. It has no
// effect on the wire contract, and no pipeline layer logs or inspects it.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := reqctx.WithRequestID(r.Context(), uuid.NewString())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
