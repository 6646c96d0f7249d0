package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/scan"
)

const (
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

// StreamHub pushes the merged signal feed to websocket subscribers on
// a fixed interval. Slow clients are dropped rather than buffered.
type StreamHub struct {
	pipeline *scan.Pipeline
	interval time.Duration
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewStreamHub returns a hub polling the pipeline every interval.
func NewStreamHub(pipeline *scan.Pipeline, interval time.Duration) *StreamHub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StreamHub{
		pipeline: pipeline,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

type streamEvent struct {
	Type  string       `json:"type"`
	Count int          `json:"count"`
	Items []*scan.Item `json:"items"`
	TS    int64        `json:"ts"`
}

// Run polls the merged feed and broadcasts it until ctx is cancelled.
// Poll errors are logged and the previous payload stands.
func (h *StreamHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			if h.subscriberCount() == 0 {
				continue
			}
			items, err := h.pipeline.AllSignals(ctx, domain.TF15m, domain.LabelMed)
			if err != nil {
				log.Warn().Err(err).Msg("stream poll failed")
				continue
			}
			payload, err := json.Marshal(streamEvent{
				Type:  "all_signals",
				Count: len(items),
				Items: items,
				TS:    time.Now().UnixMilli(),
			})
			if err != nil {
				continue
			}
			h.broadcast(payload)
		}
	}
}

// Serve upgrades the connection and registers the subscriber.
func (h *StreamHub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	send := make(chan []byte, 4)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go h.writeLoop(conn, send)
	h.readLoop(conn)
}

func (h *StreamHub) writeLoop(conn *websocket.Conn, send chan []byte) {
	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case payload, ok := <-send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(conn)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(conn)
				return
			}
		}
	}
}

// readLoop discards inbound frames so control messages keep flowing.
func (h *StreamHub) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- payload:
		default:
			// Buffer full means the client stopped reading.
			delete(h.clients, conn)
			close(send)
			conn.Close()
		}
	}
}

func (h *StreamHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}

func (h *StreamHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
		conn.Close()
	}
}

func (h *StreamHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
