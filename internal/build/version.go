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

// Package build carries the queryable version information set at build
// time via -ldflags, the same pattern contour's internal/build/version.go
// uses for its own "contour version" output.
package build

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is set at build time via -ldflags "-X .../internal/build.Version=...".
// It defaults to "0.0.0-dev" for a local `go build`.
var Version = "0.0.0-dev"

// Sha is the git commit the binary was built from, set at build time.
var Sha string

// MinConfigSchema is the oldest config schema version CheckConfigSchema
// accepts. The config loader does not read a schema field from any config
// file, so only explicit callers of CheckConfigSchema compare against it.
const MinConfigSchema = "1.0.0"

// Info renders the build information, mirroring contour's PrintBuildInfo.
func Info() string {
	return fmt.Sprintf("vane version %s (%s)", Version, Sha)
}

// CheckConfigSchema parses declared and compares it against MinConfigSchema,
// returning an error if declared is older than this binary supports.
func CheckConfigSchema(declared string) error {
	if declared == "" {
		return nil
	}

	dv, err := semver.NewVersion(declared)
	if err != nil {
		return fmt.Errorf("parsing config schema version %q: %w", declared, err)
	}

	min, err := semver.NewVersion(MinConfigSchema)
	if err != nil {
		return err
	}

	if dv.LessThan(min) {
		return fmt.Errorf("config schema %s is older than the minimum %s this binary supports", declared, MinConfigSchema)
	}
	return nil
}
