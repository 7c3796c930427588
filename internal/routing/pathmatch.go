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

// Package routing implements the specificity-based path matcher and the
// per-host route selector built on top of it.
package routing

import "strings"

// Wildcard is the pattern segment token that matches exactly one path
// segment.
const Wildcard = "*"

// MatchScore is a comparable specificity score: the number of non-wildcard
// ("exact") segments in the pattern, and the total number of pattern
// segments. Scores compare lexicographically on (ExactParts, TotalParts);
// a higher score wins.
type MatchScore struct {
	ExactParts int
	TotalParts int
}

// Less reports whether s is strictly less specific than other.
func (s MatchScore) Less(other MatchScore) bool {
	if s.ExactParts != other.ExactParts {
		return s.ExactParts < other.ExactParts
	}
	return s.TotalParts < other.TotalParts
}

// Equal reports whether s and other have identical specificity. Two
// distinct patterns with Equal scores on the same path are ambiguous.
func (s MatchScore) Equal(other MatchScore) bool {
	return s.ExactParts == other.ExactParts && s.TotalParts == other.TotalParts
}

func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Score matches pattern against path segment-by-segment. A literal segment
// must exact-match; "*" matches exactly one segment. Pattern segments never
// span more than one path segment, so this is a segment-wise prefix match,
// not a string-prefix match. The zero-segment pattern "/" matches every
// path at the lowest possible score (0, 0).
//
// Score returns ok=false if the pattern does not match path at all (it has
// more segments than the path, or a literal segment fails to match).
func Score(pattern, path string) (score MatchScore, ok bool) {
	patternSegs := splitSegments(pattern)
	pathSegs := splitSegments(path)

	if len(patternSegs) > len(pathSegs) {
		return MatchScore{}, false
	}

	exact := 0
	for i, seg := range patternSegs {
		if seg == Wildcard {
			continue
		}
		if seg != pathSegs[i] {
			return MatchScore{}, false
		}
		exact++
	}

	return MatchScore{ExactParts: exact, TotalParts: len(patternSegs)}, true
}
