package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"kagami/internal/webcam"
)

// イベント名
const (
	EventReady      = "ready"
	EventMountError = "mount_error"
)

// eventBuffer はクライアントごとに保持するイベント数
const eventBuffer = 8

// cameraEvent はイベントのデータ部
type cameraEvent struct {
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub はカメラのイベントをServer-Sent Eventsのクライアントに配信する
type EventHub struct {
	mu      sync.Mutex
	clients map[chan sse.Event]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewEventHub は新しいEventHubを作成する
func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHub{
		clients: make(map[chan sse.Event]struct{}),
		logger:  logger,
	}
}

// Callbacks はアダプターに渡すコールバックを返す
func (h *EventHub) Callbacks() webcam.Callbacks {
	return webcam.Callbacks{
		OnCameraReady: func() {
			h.Publish(EventReady, cameraEvent{Timestamp: time.Now()})
		},
		OnMountError: func(err webcam.MountError) {
			h.Publish(EventMountError, cameraEvent{Message: err.Error(), Timestamp: time.Now()})
		},
	}
}

// Publish は全クライアントにイベントを送る
// 受信が追いつかないクライアントには送らない
func (h *EventHub) Publish(name string, data interface{}) {
	event := sse.Event{Event: name, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			h.logger.Debug("イベントを破棄しました", "event", name)
		}
	}
}

// Subscribe はイベントを購読する。Closeされるとチャンネルは閉じられる
func (h *EventHub) Subscribe() (<-chan sse.Event, func()) {
	ch := make(chan sse.Event, eventBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.clients[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	}
}

// Clients は接続中のクライアント数を返す
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close は全クライアントの購読を終了する
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// Serve はイベントストリームをクライアントに書き込む
func (h *EventHub) Serve(c *gin.Context) {
	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sse.Encode(c.Writer, event); err != nil {
				h.logger.Debug("イベントの書き込みに失敗", "error", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
