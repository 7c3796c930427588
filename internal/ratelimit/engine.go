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

package ratelimit

import (
	"github.com/canmi21/vane/internal/config"
	"github.com/canmi21/vane/internal/routing"
)

// perDomainLimiters holds the three limiter maps for one DomainConfig, each
// keyed by "host||path_pattern".
type perDomainLimiters struct {
	overrides map[string]*keyedLimiter
	routes    map[string]*keyedLimiter
	def       *keyedLimiter
}

// Engine is the pre-built, immutable-after-construction set of limiter
// maps for an entire AppConfig, plus the mandatory shield. Build it once
// at startup; Check may be called concurrently from every listener
// goroutine thereafter.
type Engine struct {
	shield *Shield
	byHost map[string]*perDomainLimiters
}

func limiterKey(host, pattern string) string {
	return host + "||" + pattern
}

// New constructs an Engine from cfg. Each (host, rule.path) pair becomes a
// distinct keyed limiter, built once at startup.
func New(cfg *config.AppConfig, shield *Shield) *Engine {
	e := &Engine{
		shield: shield,
		byHost: make(map[string]*perDomainLimiters, len(cfg.Domains)),
	}

	for host, dc := range cfg.Domains {
		pd := &perDomainLimiters{
			overrides: make(map[string]*keyedLimiter),
			routes:    make(map[string]*keyedLimiter),
		}

		if dc.RateLimit != nil {
			if dc.RateLimit.Default != nil {
				pd.def = newKeyedLimiter(dc.RateLimit.Default.Period, dc.RateLimit.Default.Requests)
			}
			for _, rr := range dc.RateLimit.Routes {
				pd.routes[limiterKey(host, rr.Path)] = newKeyedLimiter(rr.Rule.Period, rr.Rule.Requests)
			}
			for _, rr := range dc.RateLimit.Overrides {
				pd.overrides[limiterKey(host, rr.Path)] = newKeyedLimiter(rr.Rule.Period, rr.Rule.Requests)
			}
		}

		e.byHost[host] = pd
	}

	return e
}

// bestMatch finds the limiter in m whose pattern has the highest
// routing.Score against path, returning nil if nothing matches. Ties are
// resolved arbitrarily here: unlike router ambiguity, two rate-limit rules
// tying on specificity is not treated as a configuration error, so the
// engine simply keeps the first-seen best match.
func bestMatch(host, path string, m map[string]*keyedLimiter) *keyedLimiter {
	var (
		best      *keyedLimiter
		bestScore routing.MatchScore
		have      bool
	)
	for key, lim := range m {
		// key is "host||pattern"; recover the pattern portion.
		pattern := key[len(host)+2:]
		score, ok := routing.Score(pattern, path)
		if !ok {
			continue
		}
		if !have || bestScore.Less(score) {
			best, bestScore, have = lim, score, true
		}
	}
	return best
}

// Layer names Check reports alongside a rejection, for
// internal/metrics.Metrics.ObserveRateLimited.
const (
	LayerShield   = "shield"
	LayerOverride = "override"
	LayerRoute    = "route"
	LayerDefault  = "default"
)

// Check applies the three-tier rate-limit policy for a request to
// host+path from client ip. It returns whether the request may proceed,
// and, when it may not, which layer rejected it.
func (e *Engine) Check(host, path, ip string) (allowed bool, layer string) {
	if !e.shield.Allow(ip) {
		return false, LayerShield
	}

	pd, ok := e.byHost[host]
	if !ok {
		return true, ""
	}

	if lim := bestMatch(host, path, pd.overrides); lim != nil {
		// An override match, pass or fail, bypasses route and default
		// layers entirely.
		if !lim.Allow(ip) {
			return false, LayerOverride
		}
		return true, ""
	}

	if lim := bestMatch(host, path, pd.routes); lim != nil {
		if !lim.Allow(ip) {
			return false, LayerRoute
		}
	}

	if pd.def != nil {
		if !pd.def.Allow(ip) {
			return false, LayerDefault
		}
	}

	return true, ""
}
