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

package main

import (
	"os"
	"path/filepath"
)

// serveContext carries the flag/env values for the "serve" subcommand,
// mirroring contour's cmd/contour/serveContext split between flag
// definitions and the values they populate.
type serveContext struct {
	configPath string
	httpPort   int
	httpsPort  int
	logLevel   string
	certDir    string
	certServer string
	// configDir is the directory statuspage.Server reads "status/<code>.html"
	// from. It defaults to configPath's directory.
	configDir   string
	metricsAddr string
}

// newServeContext returns a serveContext with its built-in defaults, before
// flags or env vars are applied.
func newServeContext() *serveContext {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	configPath := filepath.Join(home, "vane", "config.toml")

	return &serveContext{
		configPath:  configPath,
		httpPort:    80,
		httpsPort:   443,
		logLevel:    "info",
		certDir:     filepath.Join(home, "vane", "certs"),
		configDir:   filepath.Dir(configPath),
		metricsAddr: "127.0.0.1:9100",
	}
}
