package server

import (
	"fmt"
	"net/http"
	"time"

	"filemind/app/models"
	"filemind/app/research"
)

type pathRequest struct {
	Path string `json:"path"`
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type fetchRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	listing, err := s.manager.ListDirectory("")
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, listing)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	listing, err := s.manager.ListDirectory(req.Path)
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, listing)
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	content, err := s.manager.ReadFile(req.Path)
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]string{"path": req.Path, "content": content})
}

func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req writeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	path, err := s.manager.WriteFile(req.Path, req.Content)
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	s.hub.BroadcastChange("write_file", path)
	writeJSON(w, map[string]any{"success": true, "path": path})
}

func (s *Server) handleCreateDir(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	path, err := s.manager.CreateDirectory(req.Path)
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	s.hub.BroadcastChange("create_directory", path)
	writeJSON(w, map[string]any{"success": true, "path": path})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	path, err := s.manager.DeleteItem(req.Path)
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	s.hub.BroadcastChange("delete_item", path)
	writeJSON(w, map[string]any{"success": true, "path": path})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	path, err := s.manager.OpenItem(req.Path)
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"success": true, "path": path})
}

func (s *Server) handleChangeDir(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	path, err := s.manager.ChangeDirectory(req.Path)
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"success": true, "current_path": path})
}

func (s *Server) handleCurrentDir(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, map[string]string{"current_directory": s.manager.CurrentDirectory()})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	tree, err := s.manager.Tree(r.URL.Query().Get("path"))
	if err != nil {
		writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]string{"tree": tree})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSON(w, map[string]string{"error": "Message is required"})
		return
	}
	response := s.assistant.Process(r.Context(), req.Message)
	writeJSON(w, map[string]string{"response": response})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.assistant.ClearMemory()
	writeJSON(w, map[string]string{"message": "Conversation memory cleared"})
}

func (s *Server) handleChatMemory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, map[string]string{"memory": s.assistant.MemorySummary()})
}

func (s *Server) handleWebSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	results, err := s.researcher.Search(r.Context(), req.Query)
	if err != nil {
		writeJSON(w, map[string]any{
			"error":     fmt.Sprintf("Web search failed: %v", err),
			"query":     req.Query,
			"results":   []research.Result{},
			"timestamp": time.Now().Format(time.RFC3339),
			"source":    "search_error",
		})
		return
	}
	if results == nil {
		results = []research.Result{}
	}
	writeJSON(w, map[string]any{
		"query":     req.Query,
		"results":   results,
		"timestamp": time.Now().Format(time.RFC3339),
		"source":    "web_search",
	})
}

func (s *Server) handleFetchPage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req fetchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	page, err := s.researcher.FetchPage(r.Context(), req.URL)
	if err == nil {
		writeJSON(w, map[string]any{
			"url":       page.URL,
			"content":   fmt.Sprintf("Title: %s\n\nMain Content:\n%s", page.Title, page.Content),
			"timestamp": time.Now().Format(time.RFC3339),
			"source":    "webpage",
		})
		return
	}

	// The page could not be fetched; ask the model what the URL would
	// typically contain so the caller still gets something useful.
	summary, modelErr := s.model.GenerateContent(r.Context(), models.URLSummaryPrompt(req.URL))
	if modelErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		writeBody(w, map[string]any{
			"url":       req.URL,
			"content":   fmt.Sprintf("Unable to fetch content from %s. Error: %v", req.URL, err),
			"timestamp": time.Now().Format(time.RFC3339),
			"source":    "error",
		})
		return
	}
	writeJSON(w, map[string]any{
		"url":       req.URL,
		"content":   summary,
		"error":     fmt.Sprintf("fetch failed: %v", err),
		"timestamp": time.Now().Format(time.RFC3339),
		"source":    "model_fallback",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"model":  s.cfg.Model.ChatModel,
	})
}
