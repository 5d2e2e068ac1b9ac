package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks every live client so the server can close them on shutdown.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closing bool
	wg      sync.WaitGroup
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

// register reports false once Shutdown has started; the caller must then
// close cl itself.
func (h *Hub) register(cl *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.clients[cl] = struct{}{}
	h.wg.Add(1)
	wsConnections.Inc()
	return true
}

func (h *Hub) unregister(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	h.wg.Done()
	wsConnections.Dec()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// drain stops registration and returns the clients still connected.
func (h *Hub) drain() []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closing = true
	out := make([]*Client, 0, len(h.clients))
	for cl := range h.clients {
		out = append(out, cl)
	}
	return out
}

// Shutdown refuses new clients, sends every live client a going-away close
// frame and waits for their read loops to finish, or for timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	for _, cl := range h.drain() {
		cl.closeWith(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
