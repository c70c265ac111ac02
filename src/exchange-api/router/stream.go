package router

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/eventpubsub"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const streamWriteTimeout = 5 * time.Second

// PriceStreamHub pushes every price.updated event to the connected websocket clients.
type PriceStreamHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

func NewPriceStreamHub() *PriceStreamHub {
	return &PriceStreamHub{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (h *PriceStreamHub) Subscribe() error {
	return eventpubsub.Subscribe(eventpubsub.PriceUpdatedEvent, h.OnPriceUpdated)
}

func (h *PriceStreamHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

func (h *PriceStreamHub) OnPriceUpdated(event *models.PriceUpdatedEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Errorf("PriceStreamHub: failed to marshal %s update: %v", event.Symbol, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debugf("PriceStreamHub: dropping client %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close disconnects every client.
func (h *PriceStreamHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *PriceStreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("PriceStreamHub: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// the read loop only exists to notice the client going away
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
