// Package clients holds optional chat front-ends that forward messages to
// the assistant alongside the web UI.
package clients

import (
	"context"
	"log"
	"sync"
)

// Responder is the assistant surface a client needs.
type Responder interface {
	Process(ctx context.Context, request string) string
}

// Interface is one chat front-end.
type Interface interface {
	Subscribe(responder Responder) error
	Close() error
}

type Registry struct {
	mu      sync.Mutex
	clients []Interface
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(client Interface, responder Responder) error {
	if err := client.Subscribe(responder); err != nil {
		return err
	}
	r.mu.Lock()
	r.clients = append(r.clients, client)
	r.mu.Unlock()
	return nil
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		if err := client.Close(); err != nil {
			log.Printf("⚠️ Error closing client: %v\n", err)
		}
	}
	r.clients = nil
}
