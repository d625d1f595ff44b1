// Package server exposes the file browser, chat and research features over
// HTTP plus a WebSocket change feed, and serves the embedded single-page UI.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"filemind/app/assistant"
	"filemind/app/configs"
	"filemind/app/files"
	"filemind/app/models"
	"filemind/app/research"
)

//go:embed static/*
var staticFiles embed.FS

const maxBodySize = 1 << 20

type Server struct {
	cfg        *configs.Config
	assistant  *assistant.Assistant
	manager    *files.Manager
	researcher *research.Researcher
	model      models.Interface
	hub        *Hub
	httpServer *http.Server
}

func New(cfg *configs.Config, asst *assistant.Assistant, manager *files.Manager, researcher *research.Researcher, model models.Interface) *Server {
	s := &Server{
		cfg:        cfg,
		assistant:  asst,
		manager:    manager,
		researcher: researcher,
		model:      model,
		hub:        newHub(),
	}
	asst.SetNotifier(s.hub.BroadcastChange)
	return s
}

// Hub exposes the change-feed hub so other front-ends can publish events.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/files", s.handleListFiles)
	mux.HandleFunc("/api/files/navigate", s.handleNavigate)
	mux.HandleFunc("/api/files/read", s.handleReadFile)
	mux.HandleFunc("/api/files/write", s.handleWriteFile)
	mux.HandleFunc("/api/files/create-dir", s.handleCreateDir)
	mux.HandleFunc("/api/files/delete", s.handleDelete)
	mux.HandleFunc("/api/files/open", s.handleOpen)
	mux.HandleFunc("/api/files/change-dir", s.handleChangeDir)
	mux.HandleFunc("/api/files/current-dir", s.handleCurrentDir)
	mux.HandleFunc("/api/files/tree", s.handleTree)

	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/clear", s.handleChatClear)
	mux.HandleFunc("/api/chat/memory", s.handleChatMemory)

	mux.HandleFunc("/api/research/web-search", s.handleWebSearch)
	mux.HandleFunc("/api/research/fetch-page", s.handleFetchPage)

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", s.handleStatic)

	return s.corsMiddleware(mux)
}

// Start runs the HTTP server until the context is cancelled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go s.hub.run()

	log.Printf("🚀 Server listening on %s\n", addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "UI not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := s.allowedOrigin(origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowedOrigin permits only localhost origins unless an explicit origin is
// configured.
func (s *Server) allowedOrigin(origin string) string {
	if cfg := s.cfg.Server.CORSOrigin; cfg != "" {
		if cfg == "*" || cfg == origin {
			return cfg
		}
		return ""
	}
	if strings.HasPrefix(origin, "http://localhost:") ||
		strings.HasPrefix(origin, "http://127.0.0.1:") ||
		origin == "http://localhost" ||
		origin == "http://127.0.0.1" {
		return origin
	}
	return ""
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	writeBody(w, v)
}

func writeBody(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decodeBody reads a size-limited JSON body into dst, reporting malformed
// input to the client.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
