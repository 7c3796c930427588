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

import "github.com/alecthomas/kingpin/v2"

// firstRunContext carries the flags for the standalone "firstrun"
// subcommand, which lets an operator scaffold config and certificates
// without starting the listeners — useful for baking an image or
// pre-provisioning before the first `vane serve`.
type firstRunContext struct {
	configPath string
	certDir    string
	certServer string
	logLevel   string
}

func registerFirstRun(app *kingpin.Application) (*kingpin.CmdClause, *firstRunContext) {
	sc := newServeContext()
	fc := &firstRunContext{
		configPath: sc.configPath,
		certDir:    sc.certDir,
		logLevel:   sc.logLevel,
	}

	cmd := app.Command("firstrun", "Scaffold example configuration and certificates, then exit.")
	cmd.Flag("config", "Path to the main config file.").Envar("CONFIG").StringVar(&fc.configPath)
	cmd.Flag("cert-dir", "Directory to write first-run certificates into.").Envar("CERT_DIR").StringVar(&fc.certDir)
	cmd.Flag("cert-server", "ACME helper URL; if set, fetches certs instead of self-signing.").Envar("CERT_SERVER").StringVar(&fc.certServer)
	cmd.Flag("log-level", "One of debug, info, warn, error.").Envar("LOG_LEVEL").StringVar(&fc.logLevel)

	return cmd, fc
}
