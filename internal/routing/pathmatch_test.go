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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := map[string]struct {
		pattern string
		path    string
		want    MatchScore
		wantOK  bool
	}{
		"root matches everything at zero specificity": {
			pattern: "/",
			path:    "/anything/goes",
			want:    MatchScore{ExactParts: 0, TotalParts: 0},
			wantOK:  true,
		},
		"literal prefix match": {
			pattern: "/api",
			path:    "/api/v1/users",
			want:    MatchScore{ExactParts: 1, TotalParts: 1},
			wantOK:  true,
		},
		"wildcard segment counts toward total but not exact": {
			pattern: "/api/*/users",
			path:    "/api/v1/users",
			want:    MatchScore{ExactParts: 2, TotalParts: 3},
			wantOK:  true,
		},
		"all wildcard": {
			pattern: "/*/*",
			path:    "/a/b",
			want:    MatchScore{ExactParts: 0, TotalParts: 2},
			wantOK:  true,
		},
		"literal mismatch fails": {
			pattern: "/api/v2",
			path:    "/api/v1/users",
			wantOK:  false,
		},
		"pattern longer than path fails": {
			pattern: "/api/v1/users/extra",
			path:    "/api/v1/users",
			wantOK:  false,
		},
		"trailing slash is insignificant": {
			pattern: "/api/",
			path:    "/api",
			want:    MatchScore{ExactParts: 1, TotalParts: 1},
			wantOK:  true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := Score(tc.pattern, tc.path)
			require.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestMatchScoreLess(t *testing.T) {
	lo := MatchScore{ExactParts: 1, TotalParts: 2}
	hi := MatchScore{ExactParts: 2, TotalParts: 2}
	assert.True(t, lo.Less(hi))
	assert.False(t, hi.Less(lo))

	tieLo := MatchScore{ExactParts: 1, TotalParts: 1}
	tieHi := MatchScore{ExactParts: 1, TotalParts: 2}
	assert.True(t, tieLo.Less(tieHi))
}

func TestMatchScoreEqual(t *testing.T) {
	a := MatchScore{ExactParts: 2, TotalParts: 3}
	b := MatchScore{ExactParts: 2, TotalParts: 3}
	c := MatchScore{ExactParts: 2, TotalParts: 2}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
