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

// Package acme is a client for the ACME helper HTTP endpoint that fetches
// certificate/key material for a host, used by first-run scaffolding when
// CERT_SERVER is configured.
package acme

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when the helper responds 404, a terminal
// condition: no further retries are attempted.
var ErrNotFound = errors.New("acme: certificate not found")

const (
	maxAttempts   = 5
	retryInterval = 5 * time.Second
)

type certResponse struct {
	Status string `json:"status"`
	Data   struct {
		CertificateBase64 string `json:"certificate_base64"`
		KeyBase64         string `json:"key_base64"`
	} `json:"data"`
}

// Client fetches certificates from an ACME helper server.
type Client struct {
	HTTPClient *http.Client
}

// New returns a Client using http.DefaultClient if hc is nil.
func New(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{HTTPClient: hc}
}

// FetchCertificate retrieves the certificate and key PEM bytes for host
// from server: GET {server}/v1/certificate/{host} and .../{host}/key,
// retried up to 5 times at 5-second intervals; a 404 short-circuits the
// retry loop.
func (c *Client) FetchCertificate(ctx context.Context, server, host string) (certPEM, keyPEM []byte, err error) {
	certB64, err := c.fetchField(ctx, fmt.Sprintf("%s/v1/certificate/%s", server, host))
	if err != nil {
		return nil, nil, err
	}
	keyB64, err := c.fetchField(ctx, fmt.Sprintf("%s/v1/certificate/%s/key", server, host))
	if err != nil {
		return nil, nil, err
	}

	cert, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding certificate")
	}
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding key")
	}
	return cert, key, nil
}

func (c *Client) fetchField(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, status, err := c.get(ctx, url)
		if err == nil && status == http.StatusOK {
			var cr certResponse
			if err := json.Unmarshal(body, &cr); err != nil {
				return "", errors.Wrapf(err, "decoding response from %s", url)
			}
			if cr.Data.CertificateBase64 != "" {
				return cr.Data.CertificateBase64, nil
			}
			return cr.Data.KeyBase64, nil
		}
		if status == http.StatusNotFound {
			return "", ErrNotFound
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %d from %s", status, url)
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}

	return "", errors.Wrapf(lastErr, "fetching %s after %d attempts", url, maxAttempts)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
