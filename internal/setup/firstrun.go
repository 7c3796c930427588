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

package setup

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/canmi21/vane/internal/acme"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// exampleMainConfig and exampleDomainConfig seed a fresh $CONFIG directory
// so first boot has something runnable.
const exampleMainConfig = `[domains]
"example.test" = "example.test.toml"
`

const exampleDomainConfig = `https = false
http3 = false
hsts = false
http_options = "allow"

[[routes]]
path = "/"
targets = ["http://127.0.0.1:8080"]
`

// certExpiry is how far out first-run certificates (CA and leaf) are
// issued: 365 days. NeedsRenewal regenerates them well before that, once
// the persisted timestamp is more than 86400 seconds (one day) old.
const certExpiry = 365 * 24 * time.Hour

// EnsureConfig writes an example main config and domain file into the
// directory containing configPath, if nothing is there yet.
func EnsureConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil // already present, do not overwrite operator config
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	if err := os.WriteFile(configPath, []byte(exampleMainConfig), 0o644); err != nil {
		return errors.Wrap(err, "writing example main config")
	}

	domainFile := filepath.Join(dir, "example.test.toml")
	if err := os.WriteFile(domainFile, []byte(exampleDomainConfig), 0o644); err != nil {
		return errors.Wrap(err, "writing example domain config")
	}

	return nil
}

// EnsureCertificates generates a CA and a leaf certificate for each host in
// hosts under certDir, unless certServer is set, in which case it fetches
// certificates from the ACME helper instead. It always refreshes
// "<cert_dir>/timestamp" on success as the persisted renewal state.
func EnsureCertificates(ctx context.Context, certDir string, hosts []string, certServer string, log logr.Logger) error {
	if err := os.MkdirAll(certDir, 0o700); err != nil {
		return errors.Wrap(err, "creating cert directory")
	}

	if certServer != "" {
		client := acme.New(nil)
		for _, host := range hosts {
			certPEM, keyPEM, err := client.FetchCertificate(ctx, certServer, host)
			if err != nil {
				return errors.Wrapf(err, "fetching certificate for %s from ACME helper", host)
			}
			if err := writeHostCert(certDir, host, certPEM, keyPEM); err != nil {
				return err
			}
			log.Info("fetched certificate from ACME helper", "host", host)
		}
		return writeTimestamp(certDir)
	}

	caCertPEM, caKeyPEM, err := NewCA("vane-local-ca", time.Now().Add(certExpiry))
	if err != nil {
		return errors.Wrap(err, "generating self-signed CA")
	}

	for _, host := range hosts {
		certPEM, keyPEM, err := NewLeafCert(caCertPEM, caKeyPEM, host, time.Now().Add(certExpiry))
		if err != nil {
			return errors.Wrapf(err, "generating certificate for %s", host)
		}
		if err := writeHostCert(certDir, host, certPEM, keyPEM); err != nil {
			return err
		}
		log.Info("generated self-signed certificate", "host", host)
	}

	return writeTimestamp(certDir)
}

func writeHostCert(certDir, host string, certPEM, keyPEM []byte) error {
	certPath := filepath.Join(certDir, host+".pem")
	keyPath := filepath.Join(certDir, host+".key")

	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return errors.Wrapf(err, "writing certificate for %s", host)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return errors.Wrapf(err, "writing key for %s", host)
	}
	return nil
}

func writeTimestamp(certDir string) error {
	path := filepath.Join(certDir, "timestamp")
	return os.WriteFile(path, []byte(strconv.FormatInt(time.Now().Unix(), 10)), 0o644)
}

// NeedsRenewal reports whether the persisted timestamp in certDir is older
// than 86400 seconds.
func NeedsRenewal(certDir string) bool {
	data, err := os.ReadFile(filepath.Join(certDir, "timestamp"))
	if err != nil {
		return true
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return true
	}
	return time.Now().Unix()-ts > 86400
}
