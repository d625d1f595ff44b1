package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"

	"filemind/app/assistant"
	"filemind/app/configs"
	"filemind/app/files"
	"filemind/app/memory"
	"filemind/app/models"
	"filemind/app/research"
)

func newTestServer(t *testing.T) (*Server, *models.MockModel, string) {
	t.Helper()
	dir := t.TempDir()
	manager, err := files.NewManager(dir)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	model := new(models.MockModel)
	asst := assistant.New(model, manager, memory.NewListStore(100), nil)

	cfg := configs.Default()
	cfg.Files.BaseDir = dir

	s := New(cfg, asst, manager, research.New(), model)
	go s.hub.run()
	return s, model, manager.BasePath()
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestFileRoutes(t *testing.T) {
	s, _, base := newTestServer(t)
	h := s.routes()

	// write
	rec := postJSON(t, h, "/api/files/write", map[string]string{"path": "notes.txt", "content": "remember this"})
	body := decode(t, rec)
	if body["success"] != true {
		t.Fatalf("write failed: %v", body)
	}

	// list
	body = decode(t, getJSON(t, h, "/api/files"))
	if body["current_path"] != base {
		t.Fatalf("current_path = %v, want %s", body["current_path"], base)
	}
	items, _ := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", body["items"])
	}

	// read
	body = decode(t, postJSON(t, h, "/api/files/read", map[string]string{"path": "notes.txt"}))
	if body["content"] != "remember this" {
		t.Fatalf("read content = %v", body["content"])
	}

	// create-dir + navigate
	body = decode(t, postJSON(t, h, "/api/files/create-dir", map[string]string{"path": "sub"}))
	if body["success"] != true {
		t.Fatalf("create-dir failed: %v", body)
	}
	body = decode(t, postJSON(t, h, "/api/files/navigate", map[string]string{"path": "sub"}))
	if body["current_path"] != filepath.Join(base, "sub") {
		t.Fatalf("navigate current_path = %v", body["current_path"])
	}

	// change-dir back to base
	body = decode(t, postJSON(t, h, "/api/files/change-dir", map[string]string{"path": base}))
	if body["current_path"] != base {
		t.Fatalf("change-dir = %v", body)
	}

	// current-dir
	body = decode(t, getJSON(t, h, "/api/files/current-dir"))
	if body["current_directory"] != base {
		t.Fatalf("current-dir = %v", body)
	}

	// tree
	body = decode(t, getJSON(t, h, "/api/files/tree"))
	tree, _ := body["tree"].(string)
	if !strings.Contains(tree, "notes.txt") {
		t.Fatalf("tree missing file: %q", tree)
	}

	// delete
	body = decode(t, postJSON(t, h, "/api/files/delete", map[string]string{"path": "notes.txt"}))
	if body["success"] != true {
		t.Fatalf("delete failed: %v", body)
	}
	if _, err := os.Stat(filepath.Join(base, "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("file not deleted")
	}
}

func TestFileRoutesConfinement(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.routes()

	body := decode(t, postJSON(t, h, "/api/files/read", map[string]string{"path": "../../etc/passwd"}))
	errText, _ := body["error"].(string)
	if !strings.Contains(errText, "access denied") {
		t.Fatalf("escape not rejected: %v", body)
	}
}

func TestChatRoute(t *testing.T) {
	s, model, _ := newTestServer(t)
	model.On("Think", mock.Anything, mock.Anything, 0.2, -1).Return("Hi there!", nil)
	h := s.routes()

	body := decode(t, postJSON(t, h, "/api/chat", map[string]string{"message": "hello"}))
	if body["response"] != "Hi there!" {
		t.Fatalf("chat response = %v", body)
	}

	body = decode(t, postJSON(t, h, "/api/chat", map[string]string{"message": ""}))
	if body["error"] != "Message is required" {
		t.Fatalf("empty message not rejected: %v", body)
	}

	body = decode(t, getJSON(t, h, "/api/chat/memory"))
	memoryText, _ := body["memory"].(string)
	if !strings.Contains(memoryText, "Recent conversation history") {
		t.Fatalf("memory summary = %v", body)
	}

	body = decode(t, postJSON(t, h, "/api/chat/clear", map[string]string{}))
	if body["message"] != "Conversation memory cleared" {
		t.Fatalf("clear = %v", body)
	}
}

func TestWebSearchRequiresQuery(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := postJSON(t, s.routes(), "/api/research/web-search", map[string]string{"query": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFetchPageModelFallback(t *testing.T) {
	s, model, _ := newTestServer(t)
	model.On("GenerateContent", mock.Anything, mock.Anything).
		Return("The page would describe example content.", nil)

	body := decode(t, postJSON(t, s.routes(), "/api/research/fetch-page",
		map[string]string{"url": "nonexistent-host.invalid"}))
	if body["source"] != "model_fallback" {
		t.Fatalf("source = %v", body["source"])
	}
	if body["content"] != "The page would describe example content." {
		t.Fatalf("content = %v", body["content"])
	}
}

func TestMethodGuards(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.routes()

	rec := getJSON(t, h, "/api/files/write")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on write = %d", rec.Code)
	}
	rec = postJSON(t, h, "/api/files/current-dir", map[string]string{})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST on current-dir = %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	s, _, _ := newTestServer(t)
	huge := strings.Repeat("a", maxBodySize+1)
	rec := postJSON(t, s.routes(), "/api/files/write", map[string]string{"path": "big.txt", "content": huge})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.routes()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("localhost origin not allowed: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	body := decode(t, getJSON(t, s.routes(), "/api/health"))
	if body["status"] != "ok" {
		t.Fatalf("health = %v", body)
	}
}

func TestStaticUI(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := getJSON(t, s.routes(), "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<title>FileMind</title>") {
		t.Fatalf("static UI not served: %d", rec.Code)
	}
}

func TestWebSocketChangeFeed(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var status Event
	if err := conn.ReadJSON(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status.Type != "status" {
		t.Fatalf("first event type = %q", status.Type)
	}

	resp, err := http.Post(srv.URL+"/api/files/write", "application/json",
		strings.NewReader(`{"path":"ws.txt","content":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	var change Event
	if err := conn.ReadJSON(&change); err != nil {
		t.Fatalf("read change: %v", err)
	}
	if change.Type != "fs_change" || change.Action != "write_file" || !strings.HasSuffix(change.Path, "ws.txt") {
		t.Fatalf("unexpected change event: %+v", change)
	}
}
