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

// Package reqctx carries the handful of values every pipeline layer needs
// out of band: the client's IP address (injected by every listener, TCP
// and HTTP/3 alike, from http.Request.RemoteAddr) and the per-request
// correlation ID.
package reqctx

import (
	"context"
	"net"
	"net/http"
)

type contextKey int

const (
	clientIPKey contextKey = iota
	requestIDKey
)

// WithClientIP returns a context carrying the client's IP address (no
// port), overriding whatever http.Request.RemoteAddr would otherwise
// suggest. Every listener calls this once per request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP stashed by WithClientIP, falling back to
// parsing r.RemoteAddr if the listener never injected one (e.g. in unit
// tests that build requests by hand).
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WithRequestID returns a context carrying a per-request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation ID stashed by WithRequestID, or "".
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
