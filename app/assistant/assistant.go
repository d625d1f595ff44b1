// Package assistant routes free-text chat requests: a handful of regex
// templates turn direct file requests into structured actions, everything
// else is forwarded to the local model, whose reply may itself carry a JSON
// action to execute.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"filemind/app/files"
	"filemind/app/memory"
	"filemind/app/models"
	"filemind/app/utils"
)

const (
	defaultMaxHistory = 10
	relevantMemories  = 5
)

type exchange struct {
	Request  string
	Response string
}

type Assistant struct {
	mu         sync.Mutex
	model      models.Interface
	manager    *files.Manager
	store      memory.Store
	exchanges  *memory.ExchangeLog
	history    []exchange
	maxHistory int
	notify     func(action, path string)
}

// New wires the assistant. The exchange log may be nil; everything else is
// required.
func New(model models.Interface, manager *files.Manager, store memory.Store, exchanges *memory.ExchangeLog) *Assistant {
	return &Assistant{
		model:      model,
		manager:    manager,
		store:      store,
		exchanges:  exchanges,
		maxHistory: defaultMaxHistory,
	}
}

// SetNotifier registers a callback invoked after every successful file
// mutation, so the web layer can broadcast change events.
func (a *Assistant) SetNotifier(fn func(action, path string)) {
	a.notify = fn
}

// SetHistorySize bounds the number of exchanges kept for prompt context.
func (a *Assistant) SetHistorySize(n int) {
	if n < 1 {
		return
	}
	a.mu.Lock()
	a.maxHistory = n
	a.mu.Unlock()
}

// Process handles one chat request and always returns displayable text;
// failures become apologetic replies rather than errors.
func (a *Assistant) Process(ctx context.Context, request string) string {
	if intent := MatchCreateIntent(request); intent != nil {
		response := a.handleCreateIntent(ctx, request, intent)
		a.recordExchange(ctx, request, response)
		return response
	}

	if targets := MatchDeleteIntent(request); targets != nil {
		response := a.handleDeleteIntent(targets)
		a.recordExchange(ctx, request, response)
		return response
	}

	response, err := a.routeThroughModel(ctx, request)
	if err != nil {
		response = fmt.Sprintf("I apologize, but I encountered an error: %v", err)
	}
	a.recordExchange(ctx, request, response)
	return response
}

func (a *Assistant) handleCreateIntent(ctx context.Context, request string, intent *CreateIntent) string {
	if strings.TrimSpace(intent.Filename) == "" {
		return "❌ Error: Could not determine filename from your request. Please specify a filename."
	}

	filename := NormalizeFilename(intent.Filename, intent.ContentDesc)
	content := a.generateContent(ctx, intent.ContentDesc)

	log.Printf("✍️ Chat file creation: %q with content description %q", filename, intent.ContentDesc)

	result := a.performAction(Action{Action: actionCreateFile, Path: filename, Content: content})
	if strings.HasPrefix(result, "Created file:") {
		return fmt.Sprintf("✅ Successfully created file '%s' with your requested content!", filename)
	}
	return "❌ Failed to create file: " + result
}

// generateContent resolves a content description: the few literal phrases
// are taken verbatim, everything else goes to the model, and any failure or
// degenerate output falls back to a templated placeholder.
func (a *Assistant) generateContent(ctx context.Context, desc string) string {
	if IsLiteralContent(desc) {
		return desc
	}

	content, err := a.model.GenerateContent(ctx, desc)
	if err != nil {
		log.Printf("⚠️ Content generation failed: %v", err)
		return fmt.Sprintf("# %s\n\nThis file was created with your requested content: %s\n\n(Note: content generation encountered an issue, but the file was created successfully)",
			titleWords(desc), desc)
	}
	if len(content) < 5 {
		log.Printf("⚠️ Model produced empty or very short content, using fallback")
		return "Generated content for: " + desc
	}
	return content
}

func (a *Assistant) handleDeleteIntent(targets []string) string {
	if len(targets) == 1 {
		return "Action performed: " + a.performAction(Action{Action: actionDeleteItem, Path: targets[0]})
	}
	results := make([]string, 0, len(targets))
	for _, target := range targets {
		results = append(results, fmt.Sprintf("%s: %s", target,
			a.performAction(Action{Action: actionDeleteItem, Path: target})))
	}
	return "Action performed: " + strings.Join(results, "; ")
}

func (a *Assistant) routeThroughModel(ctx context.Context, request string) (string, error) {
	memories := a.relevantContext(ctx, request)
	prompt := models.BuildAssistantMessages(a.manager.CurrentDirectory(), a.historyText(), memories, request)

	response, err := a.model.Think(ctx, prompt, 0.2, -1)
	if err != nil {
		return "", err
	}

	if raw := utils.ExtractJSONObject(response); raw != "" {
		var act Action
		if err := json.Unmarshal([]byte(raw), &act); err == nil && act.Action != "" && act.Path != "" {
			return "Action performed: " + a.performAction(act), nil
		}
	}

	// A reply leaking markup or error text is useless to show; ask for
	// clarification instead.
	if strings.Contains(response, "<") || strings.Contains(strings.ToLower(response), "error") {
		return "I understand your request. Could you please clarify what you'd like me to help you with? I can assist with file operations, web research, or general questions.", nil
	}

	return response, nil
}

func (a *Assistant) relevantContext(ctx context.Context, request string) string {
	records, err := a.store.Search(ctx, request, relevantMemories)
	if err != nil {
		log.Printf("⚠️ Failed to retrieve memories: %v", err)
		return ""
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, "Previous context: "+rec.Text)
	}
	return strings.Join(lines, "\n")
}

func (a *Assistant) historyText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ex := range a.history {
		fmt.Fprintf(&b, "%d. User: %s\n   AI: %s\n", i+1, ex.Request, ex.Response)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *Assistant) recordExchange(ctx context.Context, request, response string) {
	a.mu.Lock()
	a.history = append(a.history, exchange{Request: request, Response: response})
	if len(a.history) > a.maxHistory {
		a.history = a.history[len(a.history)-a.maxHistory:]
	}
	a.mu.Unlock()

	if err := a.store.Save(ctx, memory.NewExchangeRecord(uuid.New().String(), request, response)); err != nil {
		log.Printf("⚠️ Failed to save memory: %v", err)
	}
	if a.exchanges != nil {
		if err := a.exchanges.SaveExchange(ctx, memory.Exchange{Request: request, Response: response}); err != nil {
			log.Printf("⚠️ Failed to log exchange: %v", err)
		}
	}
}

// ClearMemory drops the bounded prompt-context history. The long-term store
// is cleared on process restart, not here.
func (a *Assistant) ClearMemory() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

// MemorySummary describes recent history and which recall backend is live.
func (a *Assistant) MemorySummary() string {
	a.mu.Lock()
	history := make([]exchange, len(a.history))
	copy(history, a.history)
	a.mu.Unlock()

	var status string
	switch a.store.Backend() {
	case "vector":
		status = "Memory system: vector memory with embeddings (semantic search enabled)"
	default:
		status = "Memory system: fallback memory with text matching (no semantic search)"
	}

	if len(history) == 0 {
		return "No conversation history. " + status
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent conversation history (%d exchanges):\n", len(history))
	for i, ex := range history {
		fmt.Fprintf(&b, "%d. User: %s\n   AI: %s\n", i+1, clamp(ex.Request, 50), clamp(ex.Response, 50))
	}
	b.WriteString(status)
	return b.String()
}

func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
