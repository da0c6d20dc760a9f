package services

import (
	"context"
	"sync"

	"servicehours-backend-go/internal/models"

	"github.com/gorilla/websocket"
)

// AuditHub fans committed audit entries out to connected admin sockets.
type AuditHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan models.AuditEntry
}

func NewAuditHub() *AuditHub {
	return &AuditHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan models.AuditEntry, 64),
	}
}

func (h *AuditHub) Run(ctx context.Context) {
	for {
		select {
		case entry := <-h.ch:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(entry); err != nil {
					_ = conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast never blocks; entries are dropped when the buffer is full.
func (h *AuditHub) Broadcast(entry models.AuditEntry) {
	select {
	case h.ch <- entry:
	default:
	}
}

func (h *AuditHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *AuditHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}
