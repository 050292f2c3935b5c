// Package transport exposes the execution layer over HTTP: a blocking
// execute endpoint, an SSE streaming variant, health, and metrics.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tactus-ai/tactus/pkg/protocol"
	"github.com/tactus-ai/tactus/pkg/reasoning"
)

// ExecuteRequest is the body of both execute endpoints.
type ExecuteRequest struct {
	Input     string             `json:"input"`
	Route     string             `json:"route,omitempty"`
	UserGoal  string             `json:"user_goal,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
	History   []protocol.Message `json:"history,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server wires the execution router into an http.Server.
type Server struct {
	router *reasoning.Router
	http   *http.Server
}

func New(router *reasoning.Router, addr string) *Server {
	s := &Server{router: router}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/execute", s.handleExecute)
		r.Post("/execute/stream", s.handleExecuteStream)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	slog.Info("HTTP server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	intent, sessionID, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.router.Execute(r.Context(), intent, sessionID)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		slog.Error("Execution failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"result":     result,
	})
}

// handleExecuteStream narrates the run as server-sent events, one SSE
// event per execution event, named by the event type.
func (s *Server) handleExecuteStream(w http.ResponseWriter, r *http.Request) {
	intent, sessionID, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range s.router.ExecuteStream(r.Context(), intent, sessionID) {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
		flusher.Flush()
	}
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (reasoning.IntentResult, string, bool) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return reasoning.IntentResult{}, "", false
	}
	if req.Input == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "input is required"})
		return reasoning.IntentResult{}, "", false
	}

	route := req.Route
	if route == "" {
		route = reasoning.RouteStandardL1
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	intent := reasoning.IntentResult{
		RawInput: req.Input,
		UserGoal: req.UserGoal,
		Route:    route,
		History:  req.History,
	}
	return intent, sessionID, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
