// Package feed streams document store snapshots to browsers over websocket.
//
// A client connects to /feed?collection=<name> with its store credential in
// the Authorization header or the access_token query parameter, and receives
// one JSON text message per snapshot:
//
//	{"type":"snapshot","collection":"groups","docs":[{"key":"...","body":{...}}]}
//
// The feed is read-only; writes go through the document service.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmynk/familyalbum/internal/auth"
	"github.com/mmynk/familyalbum/internal/docstore"
	"github.com/mmynk/familyalbum/internal/metrics"
	"github.com/mmynk/familyalbum/internal/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is how many snapshots may queue for one client before it is
	// considered too slow and disconnected.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the frame sent for each snapshot.
type Message struct {
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	Docs       []docstore.Doc `json:"docs"`
}

// Handler serves the websocket feed.
type Handler struct {
	store      docstore.Store
	jwtManager *auth.JWTManager
	metrics    *metrics.Metrics
}

// NewHandler creates a feed over store. m may be nil.
func NewHandler(store docstore.Store, jwtManager *auth.JWTManager, m *metrics.Metrics) *Handler {
	return &Handler{store: store, jwtManager: jwtManager, metrics: m}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("access_token")
	if token == "" {
		var err error
		if token, err = middleware.BearerToken(r.Header); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
	}
	claims, err := h.jwtManager.Validate(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	collection := r.URL.Query().Get("collection")
	if err := docstore.ValidateCollection(collection); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Feed upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		clientID:   claims.ClientID,
		collection: collection,
	}
	h.metrics.FeedConnected()
	defer h.metrics.FeedDisconnected()
	c.serve(r.Context(), h.store)
}

type client struct {
	conn       *websocket.Conn
	send       chan []byte
	clientID   string
	collection string
}

func (c *client) serve(ctx context.Context, store docstore.Store) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("Feed client connected", "client_id", c.clientID, "collection", c.collection)
	defer slog.Info("Feed client disconnected", "client_id", c.clientID, "collection", c.collection)

	unsubscribe, err := store.Subscribe(ctx, c.collection, func(snap docstore.Snapshot) {
		payload, err := json.Marshal(Message{Type: "snapshot", Collection: snap.Collection, Docs: snap.Docs})
		if err != nil {
			slog.Error("Failed to encode snapshot", "collection", snap.Collection, "error", err)
			return
		}
		select {
		case c.send <- payload:
		default:
			// Slow consumer.
			slog.Warn("Feed client too slow, disconnecting", "client_id", c.clientID)
			cancel()
		}
	})
	if err != nil {
		slog.Error("Feed subscribe failed", "collection", c.collection, "error", err)
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"))
		_ = c.conn.Close()
		return
	}
	defer unsubscribe()

	go c.readPump(cancel)
	c.writePump(ctx)
}

// readPump discards client frames and detects disconnects.
func (c *client) readPump(cancel context.CancelFunc) {
	defer cancel()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
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
