package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transport is one client connection. Enqueue must not block; it reports
// false when the connection is closed or its buffer is full.
type Transport interface {
	Enqueue(message []byte) bool
}

// Hub maps connection ids to transports and delivers events to a chosen set
// of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Transport
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{clients: make(map[string]Transport), logger: logger}
}

// Register は新しい接続にIDを振って登録する
func (h *Hub) Register(t Transport) string {
	id := uuid.New().String()
	h.mu.Lock()
	h.clients[id] = t
	h.mu.Unlock()
	return id
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	delete(h.clients, clientID)
	h.mu.Unlock()
}

func (h *Hub) Connected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[clientID]
	return ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send serializes event once and hands it to every listed connection.
// Unknown or closed ids are skipped. There is no retry.
func (h *Hub) Send(event interface{}, clientIDs ...string) error {
	if len(clientIDs) == 0 {
		return nil
	}
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range clientIDs {
		t, ok := h.clients[id]
		if !ok {
			h.logger.Debug("Skipping unknown client", zap.String("clientID", id))
			continue
		}
		if !t.Enqueue(message) {
			h.logger.Warn("Dropped message for closed client", zap.String("clientID", id))
		}
	}
	return nil
}
