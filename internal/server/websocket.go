package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// wsWriteTimeout は1フレームの送信にかける上限
const wsWriteTimeout = 5 * time.Second

// frameSocket はWebSocketクライアントにJPEGフレームを配信する
type frameSocket struct {
	upgrader       websocket.Upgrader
	allowedOrigins []string
	logger         *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newFrameSocket(allowedOrigins []string, logger *slog.Logger) *frameSocket {
	s := &frameSocket{
		allowedOrigins: allowedOrigins,
		logger:         logger,
		conns:          make(map[*websocket.Conn]bool),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin は同一オリジンか設定で許可されたオリジンからの接続だけを受け付ける
// Originヘッダーを送らないブラウザ以外のクライアントは許可する
func (s *frameSocket) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	s.logger.Warn("許可されていないオリジンからのWebSocket接続を拒否しました", "origin", origin)
	return false
}

// serve は接続をアップグレードし、framesをバイナリメッセージで送り続ける
// クライアントの切断、framesのクローズ、doneのいずれかで終了する
func (s *frameSocket) serve(c *gin.Context, frames <-chan []byte, done <-chan struct{}) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocketのアップグレードに失敗", "error", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.logger.Info("WebSocketクライアントが接続しました", "remote_addr", c.Request.RemoteAddr)

	// 読み込みループで切断を検知する
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			s.logger.Info("WebSocketクライアントが切断しました", "remote_addr", c.Request.RemoteAddr)
			return
		case <-done:
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), deadline)
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.logger.Debug("WebSocketへの書き込みに失敗", "error", err)
				return
			}
		}
	}
}

// count は接続中のクライアント数を返す
func (s *frameSocket) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
