package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 64
)

type broadcast struct {
	shopID  int64
	payload []byte
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	shopID int64
}

// Hub fans committed lifecycle events out to connected reviewer dashboards.
// A client may narrow the stream to one shop with ?shop_id=.
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[*client]struct{}
	broadcast  chan broadcast
	register   chan *client
	unregister chan *client
	done       chan struct{}
	observer   ConnectionObserver
}

// ConnectionObserver is told about every subscriber that joins or leaves.
type ConnectionObserver interface {
	SubscriberConnected()
	SubscriberDisconnected()
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan broadcast, 128),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// WithObserver must be called before Run.
func (h *Hub) WithObserver(o ConnectionObserver) *Hub {
	h.observer = o
	return h
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	if h.observer != nil {
		h.observer.SubscriberDisconnected()
	}
}

// Run dispatches until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.observer != nil {
				h.observer.SubscriberConnected()
			}
			slog.Info("ws_client_connected", "shop_id", c.shopID, "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				slog.Info("ws_client_disconnected", "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if c.shopID != 0 && c.shopID != msg.shopID {
					continue
				}
				select {
				case c.send <- msg.payload:
				default:
					// Slow consumer.
					h.drop(c)
				}
			}
		}
	}
}

// Publish implements ports.EventPublisher. It never blocks on slow clients.
func (h *Hub) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	select {
	case h.broadcast <- broadcast{shopID: event.ShopID, payload: payload}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request. Authentication happens in front of the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var shopID int64
	if raw := r.URL.Query().Get("shop_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid shop_id", http.StatusBadRequest)
			return
		}
		shopID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws_upgrade_failed", "error", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, clientSendSize), shopID: shopID}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; dashboards never send data.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("ws_read_failed", "error", err)
			}
			return
		}
	}
}
