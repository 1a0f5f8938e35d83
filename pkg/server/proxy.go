// Copyright 2025 Agentdeck Authors
//
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

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// proxyHandler forwards /api/v1/* to the active agent's REST base with
// the stored authorization attached. FlushInterval -1 flushes every write
// immediately, which event streams require.
func (s *Server) proxyHandler() http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			record, ok := s.registry.Active()
			if !ok {
				// Guarded in ServeHTTP; nothing sensible to rewrite to.
				return
			}
			target, err := url.Parse(record.RESTBase)
			if err != nil {
				return
			}

			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = strings.TrimSuffix(target.Path, "/") + upstreamPath(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.Out.Host = target.Host

			pr.Out.Header.Del("Authorization")
			if record.Bearer != "" {
				pr.Out.Header.Set("Authorization", record.Bearer)
			}
		},
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Warn("Proxy request failed", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusBadGateway, fmt.Errorf("upstream request failed: %w", err))
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.registry.Active(); !ok {
			writeError(w, http.StatusConflict, fmt.Errorf("no active agent configured"))
			return
		}
		proxy.ServeHTTP(w, r)
	})
}

// upstreamPath maps /api/v1/... to /v1/... on the agent.
func upstreamPath(path string) string {
	return strings.TrimPrefix(path, "/api")
}
