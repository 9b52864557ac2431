package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mkarlsen/roomcast/internal/hub"
)

// Gateway upgrades HTTP requests to WebSocket connections and binds each
// one to the hub under a fresh connection id.
type Gateway struct {
	hub          *hub.Hub
	logger       *zap.Logger
	outboxBuffer int
	upgrader     websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

// NewGateway creates a Gateway over the given hub.
//
// Precondition: h and logger must be non-nil; outboxBuffer must be >= 1.
func NewGateway(h *hub.Hub, logger *zap.Logger, outboxBuffer int) *Gateway {
	return &Gateway{
		hub:          h,
		logger:       logger,
		outboxBuffer: outboxBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*Client]struct{}),
	}
}

// ServeHTTP handles a WebSocket upgrade request. Each accepted connection
// gets an opaque UUID, never reused, and starts in the unjoined state.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "websocket endpoint only accepts GET", http.StatusMethodNotAllowed)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	id := uuid.NewString()
	c := newClient(id, conn, g.hub, g.logger, g.outboxBuffer)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		_ = conn.Close()
		return
	}
	g.clients[c] = struct{}{}
	g.mu.Unlock()

	g.logger.Info("client connected",
		zap.String("id", id),
		zap.String("remote", r.RemoteAddr),
	)

	g.wg.Add(2)
	go func() {
		defer g.wg.Done()
		c.writePump()
	}()
	go func() {
		defer g.wg.Done()
		c.readPump(func() { g.untrack(c) })
	}()
}

func (g *Gateway) untrack(c *Client) {
	g.mu.Lock()
	delete(g.clients, c)
	g.mu.Unlock()
}

// Shutdown closes every active connection and waits for the pump
// goroutines to finish, or until the timeout elapses.
//
// Postcondition: No new connections are accepted after Shutdown returns.
func (g *Gateway) Shutdown(timeout time.Duration) error {
	g.mu.Lock()
	g.closed = true
	clients := make([]*Client, 0, len(g.clients))
	for c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		g.logger.Warn("gateway shutdown timed out",
			zap.Duration("timeout", timeout),
		)
		return context.DeadlineExceeded
	}
}
