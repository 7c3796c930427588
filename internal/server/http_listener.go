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
	"fmt"
	"net"
	"net/http"

	"github.com/canmi21/vane/internal/reqctx"
	"github.com/go-logr/logr"
)

// injectClientIP wraps h so that every request's context carries the
// client IP taken from the underlying net.Conn, independent of any
// X-Forwarded-For the client may have sent — the forwarder's header
// hygiene depends on this being trustworthy.
func injectClientIP(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ctx := reqctx.WithClientIP(r.Context(), host)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// serveHTTP runs the plain-HTTP listener on port until ctx is cancelled.
func serveHTTP(ctx context.Context, port int, handler http.Handler, log logr.Logger) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: injectClientIP(handler),
	}

	return runAndDrain(ctx, srv, log, "http")
}

// runAndDrain starts srv.ListenAndServe in a goroutine, and on ctx
// cancellation calls srv.Shutdown to let in-flight requests drain.
func runAndDrain(ctx context.Context, srv *http.Server, log logr.Logger, name string) error {
	return runServerAndDrain(ctx, srv, log, name, srv.ListenAndServe)
}

// runAndDrainTLS is runAndDrain's TLS counterpart, used by the HTTPS-TCP
// listener whose certificates come from srv.TLSConfig.GetCertificate
// rather than a cert/key file pair.
func runAndDrainTLS(ctx context.Context, srv *http.Server, log logr.Logger, name string) error {
	return runServerAndDrain(ctx, srv, log, name, func() error {
		return srv.ListenAndServeTLS("", "")
	})
}

func runServerAndDrain(ctx context.Context, srv *http.Server, log logr.Logger, name string, start func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down listener", "listener", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
