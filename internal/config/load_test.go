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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadResolvesRelativeDomainFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "domain-example.toml", `
https = true
http3 = true
hsts = true
http_options = "upgrade"

[tls]
cert_path = "/certs/example.crt"
key_path = "/certs/example.key"

[[routes]]
path = "/api/*"
targets = ["http://10.0.0.1:8080", "http://10.0.0.2:8080"]
websocket = false

[rate_limit.default]
period = "1m"
requests = 100

[[rate_limit.routes]]
path = "/api/*"
period = "1s"
requests = 5

[cors]
origins = { "https://allowed.test" = "GET,POST" }

[methods]
allow = "GET,POST"
`)
	mainPath := writeFile(t, dir, "config.toml", `
[domains]
"example.com" = "domain-example.toml"
`)

	cfg, err := Load(mainPath, 80, 443)
	require.NoError(t, err)
	require.Contains(t, cfg.Domains, "example.com")

	dc := cfg.Domains["example.com"]
	assert.True(t, dc.HTTPS)
	assert.True(t, dc.HTTP3)
	assert.True(t, dc.HSTS)
	assert.Equal(t, HTTPUpgrade, dc.HTTPOptions)
	require.NotNil(t, dc.TLS)
	assert.Equal(t, "/certs/example.crt", dc.TLS.CertPath)
	require.Len(t, dc.Routes, 1)
	assert.Equal(t, "/api/*", dc.Routes[0].PathPattern)
	assert.Equal(t, []string{"http://10.0.0.1:8080", "http://10.0.0.2:8080"}, dc.Routes[0].Targets)
	require.NotNil(t, dc.RateLimit)
	require.NotNil(t, dc.RateLimit.Default)
	assert.Equal(t, 100, dc.RateLimit.Default.Requests)
	require.Len(t, dc.RateLimit.Routes, 1)
	require.NotNil(t, dc.CORS)
	assert.Equal(t, "GET,POST", dc.CORS.Origins["https://allowed.test"])
	require.NotNil(t, dc.Methods)
	assert.Equal(t, "GET,POST", dc.Methods.Allow)
}

func TestLoadDefaultsHTTPOptionsToAllow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "domain-plain.toml", `https = false`)
	mainPath := writeFile(t, dir, "config.toml", `
[domains]
"plain.com" = "domain-plain.toml"
`)

	cfg, err := Load(mainPath, 80, 443)
	require.NoError(t, err)
	assert.Equal(t, HTTPAllow, cfg.Domains["plain.com"].HTTPOptions)
}

func TestLoadMissingMainFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), 80, 443)
	assert.Error(t, err)
}

func TestLoadMissingDomainFileErrors(t *testing.T) {
	dir := t.TempDir()
	mainPath := writeFile(t, dir, "config.toml", `
[domains]
"example.com" = "does-not-exist.toml"
`)
	_, err := Load(mainPath, 80, 443)
	assert.Error(t, err)
}
