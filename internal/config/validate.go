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
	"fmt"
	"strings"
)

// Validate enforces configuration invariants: every HTTPS domain carries
// a tls block, and every route has at least one target. It
// collects every violation it finds rather than stopping at the first,
// so a misconfigured fleet of domains is reported in one pass.
func Validate(cfg *AppConfig) error {
	var problems []string

	for host, dc := range cfg.Domains {
		if dc.HTTPS && dc.TLS == nil {
			problems = append(problems, fmt.Sprintf("domain %q: https=true requires a tls block", host))
		}
		if dc.HTTP3 && !dc.HTTPS {
			problems = append(problems, fmt.Sprintf("domain %q: http3=true requires https=true", host))
		}
		for i, r := range dc.Routes {
			if len(r.Targets) == 0 {
				problems = append(problems, fmt.Sprintf("domain %q: route %d (%s) has no targets", host, i, r.PathPattern))
			}
		}
		switch dc.HTTPOptions {
		case HTTPAllow, HTTPReject, HTTPUpgrade, "":
		default:
			problems = append(problems, fmt.Sprintf("domain %q: unknown http_options %q", host, dc.HTTPOptions))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
