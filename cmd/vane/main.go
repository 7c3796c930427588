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

// Command vane is a multi-protocol reverse proxy terminating HTTP/1.1,
// HTTP/2 and HTTP/3 with host-based virtual hosting, per-IP rate limiting
// and specificity-based routing with backend failover.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/bombsimon/logrusr/v4"
	"github.com/canmi21/vane/internal/build"
	"github.com/canmi21/vane/internal/setup"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"
)

func main() {
	os.Exit(run())
}

func run() int {
	app := kingpin.New("vane", "A multi-protocol reverse proxy.")
	app.HelpFlag.Short('h')

	serve, serveCtx := registerServe(app)
	firstrun, firstrunCtx := registerFirstRun(app)
	version := app.Command("version", "Print build information and exit.")

	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case version.FullCommand():
		print(build.Info() + "\n")
		return 0

	case firstrun.FullCommand():
		log := newLogger(firstrunCtx.logLevel)
		if err := setup.EnsureConfig(firstrunCtx.configPath); err != nil {
			log.Error(err, "scaffolding example configuration")
			return 1
		}
		if err := setup.EnsureCertificates(context.Background(), firstrunCtx.certDir, []string{"example.test"}, firstrunCtx.certServer, log); err != nil {
			log.Error(err, "acquiring first-run certificates")
			return 75
		}
		return 0

	case serve.FullCommand():
		log := newLogger(serveCtx.logLevel)
		return doServe(serveCtx, log)
	}

	return 1
}

// newLogger builds the logr.Logger every package depends on, wrapping a
// logrus.Logger configured from level via bombsimon/logrusr, the same
// boundary contour draws between its logrus root logger and the logr
// interface controller-runtime plumbing expects.
func newLogger(level string) logr.Logger {
	base := logrus.New()
	base.SetLevel(parseLevel(level))
	return logrusr.New(base)
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
