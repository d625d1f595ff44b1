// Package memory stores past chat exchanges for later relevance lookup.
// Two backends exist: a qdrant vector store scored by embedding similarity,
// and an in-process bounded list scored by word overlap when no embedding
// service is reachable.
package memory

import (
	"context"
	"fmt"
	"time"
)

type Record struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	Search(ctx context.Context, query string, limit int) ([]Record, error)
	Backend() string
}

// NewExchangeRecord formats a (request, response) pair the way retrieval
// expects it and clamps the description to the leading part of the request.
func NewExchangeRecord(id, request, response string) Record {
	desc := request
	if len(desc) > 50 {
		desc = desc[:50] + "..."
	}
	return Record{
		ID:          id,
		Text:        fmt.Sprintf("User: %s\nAI: %s", request, response),
		Description: "Conversation exchange about: " + desc,
		Timestamp:   time.Now(),
	}
}
