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

// Package verror is the internal error taxonomy: a small set of Kinds,
// each with a fixed HTTP status, that every per-request error is
// normalized into before it reaches the response boundary.
package verror

import "net/http"

// Kind identifies which class of failure an error belongs to.
type Kind int

const (
	KindHostNotFound Kind = iota
	KindNoRouteFound
	KindAmbiguousRoute
	KindBadGateway
	KindMethodNotAllowed
	KindRateLimited
	KindRequestTooLarge
)

// Status returns the user-visible HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindHostNotFound:
		return http.StatusBadRequest
	case KindNoRouteFound:
		return http.StatusNotFound
	case KindAmbiguousRoute:
		return http.StatusInternalServerError
	case KindBadGateway:
		return http.StatusBadGateway
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Error is a Kind carrying an optional underlying cause, satisfying the
// error interface so it can flow through ordinary Go error returns and
// still be caught and classified at the outermost response boundary.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (k Kind) String() string {
	switch k {
	case KindHostNotFound:
		return "host not found"
	case KindNoRouteFound:
		return "no route found"
	case KindAmbiguousRoute:
		return "ambiguous route"
	case KindBadGateway:
		return "bad gateway"
	case KindMethodNotAllowed:
		return "method not allowed"
	case KindRateLimited:
		return "rate limited"
	case KindRequestTooLarge:
		return "request too large"
	default:
		return "internal error"
	}
}
