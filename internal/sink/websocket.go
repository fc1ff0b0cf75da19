// SPDX-License-Identifier: MIT
package sink

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"featex/internal/dsp"
	applog "featex/internal/log"
)

// WebSocketSink broadcasts FeatureResults as JSON to connected
// clients, with rate limiting so a fast block cadence cannot flood
// the network.
//
// Thread safety: the client map is mutex-guarded; connects and
// disconnects may race with Deliver and Close.
type WebSocketSink struct {
	clients      map[*websocket.Conn]bool
	clientsMutex sync.Mutex
	upgrader     websocket.Upgrader
	server       *http.Server

	lastSend        time.Time
	minSendInterval time.Duration
}

// NewWebSocketSink starts an HTTP server on the given port serving
// WebSocket upgrades at /features, and returns the broadcasting sink.
// minSendInterval bounds the broadcast rate; results arriving faster
// are dropped (newest-wins within the interval).
func NewWebSocketSink(port string, minSendInterval time.Duration) *WebSocketSink {
	s := &WebSocketSink{
		clients:         make(map[*websocket.Conn]bool),
		minSendInterval: minSendInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tooling only; no origin policy.
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/features", s.handleWebSocket)
	s.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		applog.Infof("sink: feature WebSocket server listening on port %s", port)
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			applog.Errorf("sink: WebSocket server error: %v", err)
		}
	}()

	return s
}

// handleWebSocket upgrades the connection, registers the client, and
// watches for its close.
func (s *WebSocketSink) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("sink: WebSocket upgrade error: %v", err)
		return
	}

	s.clientsMutex.Lock()
	s.clients[conn] = true
	s.clientsMutex.Unlock()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.clientsMutex.Lock()
				delete(s.clients, conn)
				s.clientsMutex.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Deliver broadcasts the result to all connected clients. Deliveries
// inside the rate-limit window are silently dropped; a client whose
// write fails is disconnected.
func (s *WebSocketSink) Deliver(res dsp.FeatureResult) error {
	now := time.Now()
	if now.Sub(s.lastSend) < s.minSendInterval {
		return nil
	}
	s.lastSend = now

	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}

	s.clientsMutex.Lock()
	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			client.Close()
			delete(s.clients, client)
		}
	}
	s.clientsMutex.Unlock()

	return nil
}

// Close disconnects all clients and shuts down the HTTP server.
// Idempotent.
func (s *WebSocketSink) Close() error {
	s.clientsMutex.Lock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	s.clientsMutex.Unlock()

	return s.server.Close()
}

var _ Sink = (*WebSocketSink)(nil)
