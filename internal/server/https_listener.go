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

package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/canmi21/vane/internal/tlsregistry"
	"github.com/go-logr/logr"
	"golang.org/x/net/http2"
)

// serveHTTPS runs the HTTPS-TCP listener on port until ctx is cancelled:
// TLS terminated with SNI via resolver, ALPN negotiating h2 then http/1.1.
func serveHTTPS(ctx context.Context, port int, handler http.Handler, resolver *tlsregistry.Resolver, log logr.Logger) error {
	tlsConfig := &tls.Config{
		GetCertificate: resolver.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
	}

	srv := &http.Server{
		Addr:      fmt.Sprintf(":%d", port),
		Handler:   injectClientIP(handler),
		TLSConfig: tlsConfig,
	}

	if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
		return fmt.Errorf("configuring h2: %w", err)
	}

	return runAndDrainTLS(ctx, srv, log, "https")
}
