package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/renato0307/forge/internal/logging"
)

// sseClient represents one connected event-stream consumer
type sseClient struct {
	id      string
	writer  http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
}

// Broadcaster fans tagged events out to all connected SSE clients.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[string]*sseClient
	nextID  int
}

// NewBroadcaster creates a new SSE broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[string]*sseClient)}
}

// addClient registers a new event-stream consumer
func (b *Broadcaster) addClient(w http.ResponseWriter) (*sseClient, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	client := &sseClient{
		id:      fmt.Sprintf("client-%d", b.nextID),
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
	b.clients[client.id] = client
	count := len(b.clients)
	b.mu.Unlock()

	logging.Logger.Debug("SSE client connected", "client_id", client.id, "total", count)
	return client, nil
}

// removeClient drops a consumer and releases its handler
func (b *Broadcaster) removeClient(client *sseClient) {
	b.mu.Lock()
	if _, ok := b.clients[client.id]; ok {
		delete(b.clients, client.id)
		close(client.done)
	}
	count := len(b.clients)
	b.mu.Unlock()

	logging.Logger.Debug("SSE client disconnected", "client_id", client.id, "total", count)
}

// Publish sends one tagged event to every connected client. Writes are
// best-effort: a failing client is dropped.
func (b *Broadcaster) Publish(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Logger.Warn("Failed to marshal event", "event", event, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, client := range b.clients {
		_, err := fmt.Fprintf(client.writer, "event: %s\ndata: %s\n\n", event, data)
		if err != nil {
			delete(b.clients, id)
			close(client.done)
			continue
		}
		client.flusher.Flush()
	}
}
