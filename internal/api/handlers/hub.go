package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	sendBuffer = 8 // 구독자별 대기 메시지 수, 초과 시 연결 해제
)

// WSMessage is the envelope pushed to subscribers
type WSMessage struct {
	Type    string      `json:"type"` // run_completed | run_failed
	Payload interface{} `json:"payload"`
}

// RunSummary is the websocket payload of a completed run
type RunSummary struct {
	RunID    string              `json:"run_id"`
	AsOf     time.Time           `json:"as_of"`
	Duration time.Duration       `json:"duration"`
	Tickers  map[string][]string `json:"tickers"`
}

// subscriber owns one connection; only its writer goroutine writes to conn
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes screening runs to websocket subscribers
// ⭐ SSOT: 웹소켓 연결 관리는 여기서만
//
// Completed runs arrive through RunSaved (resultstore.Store.OnSave), so a
// subscriber reacting to run_completed already finds the run stored.
// Failed runs arrive through RunDone (screener.Observer).
// Broadcast never blocks on a connection: each subscriber has a buffered
// queue drained by its own writer, and a full queue drops the subscriber.
type Hub struct {
	mu      sync.RWMutex
	clients map[*subscriber]struct{}
	logger  *logger.Logger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		logger:  log.WithComponent("ws"),
	}
}

// ServeWS upgrades the request and keeps the subscriber until it disconnects
// GET /ws/runs
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	total := h.add(sub)
	h.logger.WithField("clients", total).Debug("Subscriber connected")

	go h.writePump(sub)

	// 클라이언트 메시지는 무시, 연결 종료 감지용
	go func() {
		defer h.remove(sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writePump drains sub.send until the hub closes it, then closes the connection
func (h *Hub) writePump(sub *subscriber) {
	defer sub.conn.Close()

	for data := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).Warn("Failed to push to subscriber")
			h.remove(sub)
			// 남은 메시지는 버림 (remove가 send를 닫음)
			for range sub.send {
			}
			return
		}
	}
	_ = sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

// Clients returns the number of connected subscribers
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every subscriber; a subscriber whose queue is
// full is dropped
func (h *Hub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal websocket message")
		return
	}

	var slow []*subscriber
	h.mu.RLock()
	for sub := range h.clients {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.Warn("Subscriber queue full, disconnecting")
		h.remove(sub)
	}
}

// RunSaved pushes a completed run once it is stored
func (h *Hub) RunSaved(run *contracts.ScreeningRun) {
	h.Broadcast(WSMessage{Type: "run_completed", Payload: RunSummary{
		RunID:    run.RunID,
		AsOf:     run.AsOf,
		Duration: run.Duration,
		Tickers:  run.Tickers(),
	}})
}

// ScreenerDone is a no-op; subscribers only get whole runs
func (h *Hub) ScreenerDone(*contracts.ScreenerResult, error) {}

// RunDone pushes failed runs; completed ones wait for RunSaved
func (h *Hub) RunDone(_ *contracts.ScreeningRun, err error) {
	if err == nil {
		return
	}
	h.Broadcast(WSMessage{Type: "run_failed", Payload: map[string]string{"error": err.Error()}})
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients {
		close(sub.send)
		delete(h.clients, sub)
	}
}

func (h *Hub) add(sub *subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sub] = struct{}{}
	return len(h.clients)
}

// remove unregisters sub and closes its queue; the writer then closes the connection
func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[sub]; ok {
		delete(h.clients, sub)
		close(sub.send)
	}
}
