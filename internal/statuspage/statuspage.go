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

// Package statuspage serves per-status-code HTML files from a configured
// directory, reading through to disk on every request with no in-memory
// cache, and falling back to a plain-text body when a file is missing or
// unreadable.
package statuspage

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Server resolves status pages under a single config directory.
type Server struct {
	// Dir is "<config_dir>/status".
	Dir string
}

// New returns a Server rooted at "<configDir>/status".
func New(configDir string) *Server {
	return &Server{Dir: filepath.Join(configDir, "status")}
}

// Write sets code on w and writes the body for code: the contents of
// "<dir>/<code>.html" if it exists and is readable, otherwise a one-line
// plain-text fallback. The directory is re-read on every call by design —
// operators can edit status pages without restarting Vane.
func (s *Server) Write(w http.ResponseWriter, code int, fallback string) {
	path := filepath.Join(s.Dir, fmt.Sprintf("%d.html", code))
	body, err := os.ReadFile(path)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		if fallback == "" {
			fallback = http.StatusText(code)
		}
		fmt.Fprintln(w, fallback)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(body)
}
