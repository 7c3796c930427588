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

// Package tlsregistry implements the SNI certificate resolver: on each
// TLS ClientHello it looks up the domain by SNI name, loads its
// certificate+key from disk, and returns a certified key. It holds
// only an immutable config reference and is safe to call concurrently.
package tlsregistry

import (
	"crypto/tls"
	"fmt"

	"github.com/canmi21/vane/internal/config"
	"github.com/go-logr/logr"
)

// Resolver implements the tls.Config.GetCertificate capability.
type Resolver struct {
	cfg *config.AppConfig
	log logr.Logger
}

// New builds a Resolver over cfg. cfg is never mutated.
func New(cfg *config.AppConfig, log logr.Logger) *Resolver {
	return &Resolver{cfg: cfg, log: log}
}

// GetCertificate is the *tls.Config.GetCertificate callback: it rejects
// the handshake (by returning an error) when the SNI name is absent,
// unconfigured, or the domain doesn't participate in TLS. An SNI miss
// always terminates the handshake rather than falling back to a default
// certificate.
func (r *Resolver) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	name := hello.ServerName
	if name == "" {
		return nil, fmt.Errorf("tlsregistry: no SNI name presented")
	}

	dc, ok := r.cfg.Domains[name]
	if !ok || !dc.HTTPS || dc.TLS == nil {
		return nil, fmt.Errorf("tlsregistry: no certificate configured for %q", name)
	}

	cert, err := tls.LoadX509KeyPair(dc.TLS.CertPath, dc.TLS.KeyPath)
	if err != nil {
		r.log.Error(err, "loading certificate", "host", name)
		return nil, fmt.Errorf("tlsregistry: loading certificate for %q: %w", name, err)
	}

	return &cert, nil
}
