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

// Package proxy implements the forwarder: it buffers a request's body
// once, then tries an ordered list of backend targets, failing over on
// connection errors and 5xx responses but returning any other response
// (including 4xx) verbatim.
package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/canmi21/vane/internal/metrics"
	"github.com/canmi21/vane/internal/reqctx"
	"github.com/canmi21/vane/internal/verror"
)

// inboundIPHeaders are stripped from every outbound attempt before
// X-Forwarded-For is stamped. Prior hops are discarded rather than
// appended to, deliberately.
var inboundIPHeaders = []string{
	"X-Real-Ip", "X-Forwarded-For", "X-Forwarded", "Forwarded-For", "Forwarded",
}

// DefaultMaxBodyBytes bounds the forwarder's request body buffer,
// returning verror.KindRequestTooLarge past this limit.
const DefaultMaxBodyBytes = 10 << 20 // 10 MiB

// Forwarder proxies requests to an ordered set of backend targets.
type Forwarder struct {
	Client       *http.Client
	MaxBodyBytes int64
	Metrics      *metrics.Metrics
}

// New returns a Forwarder using client, forcing outbound requests to
// HTTP/1.1 regardless of the frontend protocol. m may be nil in tests
// that do not care about metrics.
func New(client *http.Client, m *metrics.Metrics) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Forwarder{Client: client, MaxBodyBytes: DefaultMaxBodyBytes, Metrics: m}
}

// Forward buffers r's body once and attempts each target in order,
// returning the first response that is not a connection error or 5xx. If
// every target fails, it returns a *verror.Error of KindBadGateway
// wrapping the last failure.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, targets []string) error {
	pathAndQuery := r.URL.RequestURI()

	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	var body []byte
	if r.Body != nil {
		limited := io.LimitReader(r.Body, limit+1)
		buf, err := io.ReadAll(limited)
		if err != nil {
			return verror.New(verror.KindBadGateway, err)
		}
		if int64(len(buf)) > limit {
			return verror.New(verror.KindRequestTooLarge, nil)
		}
		body = buf
	}

	clientIP := reqctx.ClientIP(r)

	var lastErr error
	for i, target := range targets {
		resp, err := f.attempt(r.Context(), r, target, pathAndQuery, body, clientIP)
		if err != nil {
			lastErr = err
			if i < len(targets)-1 && f.Metrics != nil {
				f.Metrics.ObserveFailover(r.Host)
			}
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = errStatus(resp.StatusCode)
			resp.Body.Close()
			if i < len(targets)-1 && f.Metrics != nil {
				f.Metrics.ObserveFailover(r.Host)
			}
			continue
		}

		// 4xx or better: a client-attributable response, never a
		// backend-liveness signal. Stream it back verbatim.
		return streamResponse(w, resp)
	}

	return verror.New(verror.KindBadGateway, lastErr)
}

type errStatus int

func (e errStatus) Error() string {
	return "backend responded " + http.StatusText(int(e))
}

func (f *Forwarder) attempt(ctx context.Context, orig *http.Request, target, pathAndQuery string, body []byte, clientIP string) (*http.Response, error) {
	fullURL := strings.TrimSuffix(target, "/") + pathAndQuery

	u, err := url.Parse(fullURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, orig.Method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = orig.Header.Clone()
	for _, h := range inboundIPHeaders {
		req.Header.Del(h)
	}
	req.Header.Set("X-Forwarded-For", clientIP)
	req.ContentLength = int64(len(body))
	req.Proto = "HTTP/1.1"
	req.ProtoMajor = 1
	req.ProtoMinor = 1

	return f.Client.Do(req)
}

func streamResponse(w http.ResponseWriter, resp *http.Response) error {
	defer resp.Body.Close()

	dst := w.Header()
	for k, vv := range resp.Header {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, err := io.Copy(w, resp.Body)
	return err
}
