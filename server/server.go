// Package server exposes the agent over HTTP: a chat completion
// endpoint with optional streaming, and thread endpoints for creating
// and cancelling streaming runs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/smallnest/planexec/agent"
	"github.com/smallnest/planexec/log"
	"github.com/smallnest/planexec/registry"
)

// Runner is the agent capability the server drives.
type Runner interface {
	Run(ctx context.Context, query string) string
	Stream(ctx context.Context, query string, opts agent.StreamOptions) <-chan string
}

// Server is the HTTP front end.
type Server struct {
	addr    string
	agent   Runner
	threads registry.Store
	logger  log.Logger
	mux     *http.ServeMux
}

// New builds a server. threads may be nil, which disables the thread
// endpoints' cancellation semantics but keeps chat working.
func New(addr string, runner Runner, threads registry.Store, logger log.Logger) *Server {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	s := &Server{
		addr:    addr,
		agent:   runner,
		threads: threads,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	s.mux.HandleFunc("POST /v1/threads", s.handleCreateThread)
	s.mux.HandleFunc("POST /v1/threads/{id}/cancel", s.handleCancelThread)
	s.mux.HandleFunc("GET /v1/health", s.handleHealth)
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	s.logger.Info("serving on %s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// ChatRequest is the body of POST /v1/chat/completions.
type ChatRequest struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id,omitempty"`
	Stream   bool   `json:"stream,omitempty"`
}

// ChatResponse is the non-streaming reply.
type ChatResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	if !req.Stream {
		text := s.agent.Run(r.Context(), req.Query)
		writeJSON(w, http.StatusOK, ChatResponse{Text: text})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	if req.ThreadID != "" {
		s.setThreadStatus(r.Context(), req.ThreadID, registry.StatusRunning)
		defer s.setThreadStatus(r.Context(), req.ThreadID, registry.StatusReady)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for frame := range s.agent.Stream(r.Context(), req.Query, agent.StreamOptions{ThreadID: req.ThreadID}) {
		if _, err := fmt.Fprint(w, frame); err != nil {
			s.logger.Warn("client dropped the stream: %v", err)
			return
		}
		flusher.Flush()
	}
}

// ThreadResponse reports a thread id and its registry status.
type ThreadResponse struct {
	ThreadID string `json:"thread_id"`
	Status   string `json:"status"`
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	if s.threads == nil {
		http.Error(w, "thread registry not configured", http.StatusNotImplemented)
		return
	}

	entry, err := s.threads.Create(r.Context(), uuid.NewString())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ThreadResponse{ThreadID: entry.ThreadID, Status: string(entry.Status)})
}

func (s *Server) handleCancelThread(w http.ResponseWriter, r *http.Request) {
	if s.threads == nil {
		http.Error(w, "thread registry not configured", http.StatusNotImplemented)
		return
	}

	threadID := r.PathValue("id")
	if _, err := s.threads.Get(r.Context(), threadID); err != nil {
		http.Error(w, "thread not found", http.StatusNotFound)
		return
	}

	if err := s.threads.SetStatus(r.Context(), threadID, registry.StatusTryCancel); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ThreadResponse{ThreadID: threadID, Status: string(registry.StatusTryCancel)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) setThreadStatus(ctx context.Context, threadID string, status registry.Status) {
	if s.threads == nil {
		return
	}
	if err := s.threads.SetStatus(ctx, threadID, status); err != nil {
		s.logger.Warn("set thread %s status %s: %v", threadID, status, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
