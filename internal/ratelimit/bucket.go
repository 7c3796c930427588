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

// Package ratelimit implements three-layer per-IP rate limiting: a
// mandatory global shield, optional override limiters, and optional
// route + default limiters, all keyed by client IP.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// keyedLimiter is a concurrent map of client IP -> *rate.Limiter for one
// configured rule. Each IP gets its own independent golang.org/x/time/rate
// limiter object. One mutex per keyedLimiter guards the map, so every
// lookup or insert for any IP takes that lock; the token check itself runs
// on the per-IP limiter outside it.
type keyedLimiter struct {
	mu       sync.Mutex
	byIP     map[string]*rate.Limiter
	refill   rate.Limit
	burst    int
	disabled bool
}

// newKeyedLimiter builds a limiter for requests per period. A zero
// requests count or a zero/unparseable period disables the limiter
// (treated as absent).
func newKeyedLimiter(period string, requests int) *keyedLimiter {
	if requests <= 0 {
		return &keyedLimiter{disabled: true}
	}
	d, err := parsePeriod(period)
	if err != nil || d <= 0 {
		return &keyedLimiter{disabled: true}
	}

	perSecond := float64(requests) / d.Seconds()
	return &keyedLimiter{
		byIP:   make(map[string]*rate.Limiter),
		refill: rate.Limit(perSecond),
		burst:  requests,
	}
}

// Allow reports whether a request from ip is permitted under this
// limiter's bucket, creating the bucket on first use for that IP.
func (k *keyedLimiter) Allow(ip string) bool {
	if k.disabled {
		return true
	}

	k.mu.Lock()
	lim, ok := k.byIP[ip]
	if !ok {
		lim = rate.NewLimiter(k.refill, k.burst)
		k.byIP[ip] = lim
	}
	k.mu.Unlock()

	return lim.Allow()
}

// parsePeriod parses the "Ns"/"Nm"/"Nh" period syntax.
func parsePeriod(period string) (time.Duration, error) {
	if period == "" {
		return 0, nil
	}
	return time.ParseDuration(period)
}
