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
	"net/http/httptest"
	"testing"

	"github.com/canmi21/vane/internal/reqctx"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDStampsUniqueIDPerRequest(t *testing.T) {
	var seen []string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, reqctx.RequestID(r))
		w.WriteHeader(http.StatusOK)
	})
	h := RequestID()(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
	}

	assert.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.NotEmpty(t, seen[1])
	assert.NotEqual(t, seen[0], seen[1])
}

func TestRequestIDAbsentBeforeMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, reqctx.RequestID(req))
}
