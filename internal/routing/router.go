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

package routing

import (
	"github.com/canmi21/vane/internal/config"
)

// Error is the router's own error kind, distinguished by the sentinel
// values below so that callers can map them onto the error taxonomy
// without string matching.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrHostNotFound is returned when the requested host has no
	// DomainConfig.
	ErrHostNotFound Error = "host not found"
	// ErrNoRouteFound is returned when no route in the domain matches
	// the path at all.
	ErrNoRouteFound Error = "no route found"
	// ErrAmbiguousRoute is returned when two distinct routes tie for
	// the best specificity score.
	ErrAmbiguousRoute Error = "ambiguous route"
)

// Router selects the best-matching route for a (host, path) pair out of an
// immutable config.AppConfig.
type Router struct {
	cfg *config.AppConfig
}

// New builds a Router over cfg. cfg is never mutated by the router.
func New(cfg *config.AppConfig) *Router {
	return &Router{cfg: cfg}
}

// Route returns the target list for the best-matching route of host+path,
// or one of ErrHostNotFound, ErrNoRouteFound, ErrAmbiguousRoute.
//
// Ties at the best score are a configuration bug, not an implementation
// choice to silently resolve, so they surface as ErrAmbiguousRoute rather
// than picking the first or last tied route.
func (r *Router) Route(host, path string) ([]string, error) {
	dc, ok := r.cfg.Domains[host]
	if !ok {
		return nil, ErrHostNotFound
	}

	var (
		bestScore MatchScore
		bestRoute *config.Route
		haveBest  bool
		ambiguous bool
	)

	for i := range dc.Routes {
		route := &dc.Routes[i]
		score, matched := Score(route.PathPattern, path)
		if !matched {
			continue
		}

		switch {
		case !haveBest:
			bestScore, bestRoute, haveBest, ambiguous = score, route, true, false
		case bestScore.Equal(score):
			ambiguous = true
		case bestScore.Less(score):
			bestScore, bestRoute, ambiguous = score, route, false
		}
	}

	if !haveBest {
		return nil, ErrNoRouteFound
	}
	if ambiguous {
		return nil, ErrAmbiguousRoute
	}

	targets := make([]string, len(bestRoute.Targets))
	copy(targets, bestRoute.Targets)
	return targets, nil
}

