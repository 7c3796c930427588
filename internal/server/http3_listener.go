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
	"net"
	"net/http"

	"github.com/canmi21/vane/internal/tlsregistry"
	"github.com/go-logr/logr"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

// serveHTTP3 runs the HTTP/3 listener on the same port number as the
// HTTPS-TCP listener, but over UDP/QUIC. quic-go/http3 rebuilds each QUIC
// request stream into an ordinary *http.Request (with RemoteAddr populated
// from the QUIC connection, same as net/http does for TCP) and dispatches
// it through handler — the same pipeline service used by the other two
// listeners, so middleware logic is written exactly once.
func serveHTTP3(ctx context.Context, port int, handler http.Handler, resolver *tlsregistry.Resolver, log logr.Logger) error {
	tlsConfig := &tls.Config{
		GetCertificate: resolver.GetCertificate,
		NextProtos:     []string{"h3"},
		MinVersion:     tls.VersionTLS12,
	}

	udpAddr := fmt.Sprintf(":%d", port)
	udpConn, err := net.ListenPacket("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("starting HTTP/3 QUIC listener: %w", err)
	}
	defer udpConn.Close()

	h3srv := &http3.Server{
		Handler:   injectClientIP(handler),
		TLSConfig: tlsConfig,
		QUICConfig: &quic.Config{
			Versions: []quic.Version{quic.Version1, quic.Version2},
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h3srv.Serve(udpConn)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down listener", "listener", "http3")
		return h3srv.Close()
	case err := <-errCh:
		if err == http3.ErrServerClosed {
			return nil
		}
		return err
	}
}
