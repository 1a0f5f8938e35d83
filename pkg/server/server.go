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

// Package server is the local control-plane endpoint. It proxies protocol
// requests to the active agent with the stored authorization attached, so
// callers on this host never handle the credential themselves.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentdeck/agentdeck/pkg/a2a"
	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/pkg/registry"
)

// Server hosts the proxy and management API.
type Server struct {
	cfg        config.Config
	registry   *registry.Registry
	httpServer *http.Server
}

// New creates the server.
func New(cfg config.Config, reg *registry.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		registry: reg,
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: s.routes(),
	}
	return s
}

// Handler returns the root handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Order: logging -> metrics -> cors
	r.Use(loggingMiddleware)
	r.Use(metricsMiddleware)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", metricsHandler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/proxy/config", s.handleProxyConfig)
		r.Get("/agents", s.handleListAgents)
		r.Post("/agents/{id}/activate", s.handleActivateAgent)
		r.Delete("/agents/{id}", s.handleRemoveAgent)
		r.Get("/summary", s.handleSummary)
		r.Handle("/v1/*", s.proxyHandler())
	})

	return r
}

// agentView is the management API's rendering of a registry record. The
// credential itself never leaves the server.
type agentView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Version   string         `json:"version,omitempty"`
	CardURL   string         `json:"cardUrl"`
	RESTBase  string         `json:"restBase"`
	AuthLabel string         `json:"authLabel"`
	Active    bool           `json:"active"`
	Card      *a2a.AgentCard `json:"card,omitempty"`
}

func (s *Server) agentView(record registry.Record, activeID string) agentView {
	return agentView{
		ID:        record.ID,
		Name:      record.Name,
		Version:   record.Version,
		CardURL:   record.CardURL,
		RESTBase:  record.RESTBase,
		AuthLabel: record.AuthLabel(),
		Active:    record.ID == activeID,
		Card:      record.Card,
	}
}

// handleProxyConfig registers an agent by card URL and selects it as the
// proxy target.
func (s *Server) handleProxyConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardURL    string `json:"cardUrl"`
		AuthBearer string `json:"authBearer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.CardURL == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("cardUrl is required"))
		return
	}

	record, err := s.registry.Add(r.Context(), req.CardURL, req.AuthBearer)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	slog.Info("Proxy target configured", "agent", record.Name, "rest_base", record.RESTBase)
	writeJSON(w, http.StatusOK, s.agentView(*record, record.ID))
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	var activeID string
	if active, ok := s.registry.Active(); ok {
		activeID = active.ID
	}

	views := make([]agentView, 0)
	for _, record := range s.registry.List() {
		views = append(views, s.agentView(record, activeID))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleActivateAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.SetActive(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": id})
}

func (s *Server) handleRemoveAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary reports the active agent's task counts grouped by
// lifecycle state.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	record, ok := s.registry.Active()
	if !ok {
		writeError(w, http.StatusConflict, fmt.Errorf("no active agent configured"))
		return
	}

	client := a2a.NewClient(a2a.ClientConfig{
		BaseURL: record.RESTBase,
		Bearer:  record.Bearer,
		Timeout: s.cfg.Client.Timeout,
	})
	defer client.Close()
	tasks, err := client.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	byState := make(map[a2a.TaskState]int)
	var active, terminal int
	for _, task := range tasks {
		byState[task.Status.State]++
		if task.Status.State.Terminal() {
			terminal++
		} else {
			active++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agent":    record.Name,
		"total":    len(tasks),
		"active":   active,
		"terminal": terminal,
		"byState":  byState,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
