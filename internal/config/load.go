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
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// mainFile is the shape of the top-level config file: a table of
// hostname -> path to that host's domain file.
type mainFile struct {
	Domains map[string]string `toml:"domains"`
}

// domainFile is the on-disk shape of a DomainConfig, decoded by BurntSushi/toml
// and then translated into the frozen config.DomainConfig the core consumes.
type domainFile struct {
	HTTPS       bool   `toml:"https"`
	HTTP3       bool   `toml:"http3"`
	HSTS        bool   `toml:"hsts"`
	HTTPOptions string `toml:"http_options"`

	TLS *struct {
		CertPath string `toml:"cert_path"`
		KeyPath  string `toml:"key_path"`
	} `toml:"tls"`

	Routes []struct {
		Path      string   `toml:"path"`
		Targets   []string `toml:"targets"`
		WebSocket bool     `toml:"websocket"`
	} `toml:"routes"`

	RateLimit *struct {
		Default *ruleFile   `toml:"default"`
		Routes  []ruleFile  `toml:"routes"`
		Overrides []ruleFile `toml:"overrides"`
	} `toml:"rate_limit"`

	CORS *struct {
		Origins map[string]string `toml:"origins"`
	} `toml:"cors"`

	Methods *struct {
		Allow string `toml:"allow"`
	} `toml:"methods"`
}

type ruleFile struct {
	Path     string `toml:"path"`
	Period   string `toml:"period"`
	Requests int    `toml:"requests"`
}

// expandHome expands a leading ~ to the user's home directory, used for
// PEM paths and the certificate directory.
func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Load reads the main config file at mainPath and every domain file it
// references, returning a fully-populated, still-unvalidated AppConfig.
// Callers MUST call Validate before treating the result as authoritative.
func Load(mainPath string, httpPort, httpsPort int) (*AppConfig, error) {
	mainPath, err := expandHome(mainPath)
	if err != nil {
		return nil, err
	}

	var mf mainFile
	if _, err := toml.DecodeFile(mainPath, &mf); err != nil {
		return nil, errors.Wrapf(err, "decoding main config %s", mainPath)
	}

	baseDir := filepath.Dir(mainPath)

	cfg := &AppConfig{
		HTTPPort:  httpPort,
		HTTPSPort: httpsPort,
		Domains:   make(map[string]*DomainConfig, len(mf.Domains)),
	}

	for host, rel := range mf.Domains {
		path := rel
		if !filepath.IsAbs(path) {
			expanded, err := expandHome(path)
			if err != nil {
				return nil, err
			}
			if !filepath.IsAbs(expanded) {
				expanded = filepath.Join(baseDir, expanded)
			}
			path = expanded
		}

		dc, err := loadDomainFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "loading domain %q", host)
		}
		cfg.Domains[host] = dc
	}

	return cfg, nil
}

// domainFileDefaults is merged under every decoded domain file so that
// absent blocks take predictable zero values rather than Go's bare
// zero-value structs slipping through untyped.
var domainFileDefaults = domainFile{
	HTTPOptions: string(HTTPAllow),
}

func loadDomainFile(path string) (*DomainConfig, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	var df domainFile
	if _, err := toml.DecodeFile(path, &df); err != nil {
		return nil, errors.Wrapf(err, "decoding domain file %s", path)
	}
	if err := mergo.Merge(&df, domainFileDefaults); err != nil {
		return nil, errors.Wrap(err, "applying domain defaults")
	}

	dc := &DomainConfig{
		HTTPS:       df.HTTPS,
		HTTP3:       df.HTTP3,
		HSTS:        df.HSTS,
		HTTPOptions: HTTPOptions(df.HTTPOptions),
	}

	if df.TLS != nil {
		certPath, err := expandHome(df.TLS.CertPath)
		if err != nil {
			return nil, err
		}
		keyPath, err := expandHome(df.TLS.KeyPath)
		if err != nil {
			return nil, err
		}
		dc.TLS = &TLSConfig{CertPath: certPath, KeyPath: keyPath}
	}

	for _, r := range df.Routes {
		dc.Routes = append(dc.Routes, Route{
			PathPattern: r.Path,
			Targets:     append([]string(nil), r.Targets...),
			WebSocket:   r.WebSocket,
		})
	}

	if df.RateLimit != nil {
		rl := &RateLimitConfig{}
		if df.RateLimit.Default != nil {
			rl.Default = &Rule{Period: df.RateLimit.Default.Period, Requests: df.RateLimit.Default.Requests}
		}
		for _, rr := range df.RateLimit.Routes {
			rl.Routes = append(rl.Routes, RouteRule{Path: rr.Path, Rule: Rule{Period: rr.Period, Requests: rr.Requests}})
		}
		for _, rr := range df.RateLimit.Overrides {
			rl.Overrides = append(rl.Overrides, RouteRule{Path: rr.Path, Rule: Rule{Period: rr.Period, Requests: rr.Requests}})
		}
		dc.RateLimit = rl
	}

	if df.CORS != nil {
		dc.CORS = &CORSConfig{Origins: df.CORS.Origins}
	}

	if df.Methods != nil {
		dc.Methods = &MethodsConfig{Allow: df.Methods.Allow}
	}

	return dc, nil
}
