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

import "golang.org/x/time/rate"

// ShieldRequestsPerSecond and ShieldBurst are the mandatory, unconfigurable
// shield parameters: 30 req/s per client IP, burst 30.
const (
	ShieldRequestsPerSecond = 30
	ShieldBurst             = 30
)

// Shield is the mandatory global per-IP limiter that every request passes
// through first, regardless of domain configuration. It is constructed
// once at process startup and shared by every listener.
type Shield struct {
	limiter *keyedLimiter
}

// NewShield builds the process-wide shield limiter.
func NewShield() *Shield {
	return &Shield{
		limiter: &keyedLimiter{
			byIP:   make(map[string]*rate.Limiter),
			refill: ShieldRequestsPerSecond,
			burst:  ShieldBurst,
		},
	}
}

// Allow reports whether a request from ip passes the shield.
func (s *Shield) Allow(ip string) bool {
	return s.limiter.Allow(ip)
}
