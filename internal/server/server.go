package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"kagami/internal/camera"
	"kagami/internal/config"
	"kagami/internal/generated"
	"kagami/internal/picker"
	"kagami/internal/updates"
	"kagami/internal/webcam"
)

// Deps はサーバーが操作する部品
type Deps struct {
	Adapter  *webcam.Adapter     // 必須
	Sink     *camera.VideoSink   // ストリーム配信に使う。nilなら配信しない
	Registry *camera.Registry    // nilならデバイス一覧は空
	Picker   *picker.ImagePicker // nilならライブラリなしで作成する
	Reloader *updates.Reloader   // nilならAdapterを対象に作成する
	Events   *EventHub           // nilなら新しく作成する
	Logger   *slog.Logger
}

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	httpServer *http.Server
	engine     *gin.Engine
	handler    *KagamiHandler
	logger     *slog.Logger
	closeOnce  sync.Once
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Adapter == nil {
		return nil, errors.New("アダプターが指定されていません")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Picker == nil {
		deps.Picker = picker.New(deps.Adapter, "", logger)
	}
	if deps.Reloader == nil {
		deps.Reloader = updates.New(deps.Adapter, logger)
	}
	if deps.Events == nil {
		deps.Events = NewEventHub(logger)
	}

	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("バリデーションの登録に失敗: %w", err)
	}

	handler := &KagamiHandler{
		config:   cfg,
		adapter:  deps.Adapter,
		sink:     deps.Sink,
		registry: deps.Registry,
		picker:   deps.Picker,
		reloader: deps.Reloader,
		events:   deps.Events,
		sockets:  newFrameSocket(cfg.Server.AllowedOrigins, logger),
		logger:   logger,
		closing:  make(chan struct{}),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	if cfg.Server.ValidateRequests {
		doc, err := generated.GetSwagger()
		if err != nil {
			return nil, err
		}
		validate, err := openAPIValidator(doc)
		if err != nil {
			return nil, err
		}
		engine.Use(validate)
	}

	generated.RegisterHandlersWithOptions(engine, handler, generated.GinServerOptions{
		ErrorHandler: handler.handleParamError,
	})
	setupStatic(engine)

	return &Server{
		config:  cfg,
		engine:  engine,
		handler: handler,
		logger:  logger,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout.Std(),
			WriteTimeout: cfg.Server.WriteTimeout.Std(),
		},
	}, nil
}

// Handler はHTTPハンドラーを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		s.logger.Info("HTTPサーバーを起動しています", "address", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		s.logger.Info("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		s.logger.Info("シグナルを受信しました", "signal", sig.String())
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
// 配信中のストリームとイベントは先に終了させる
func (s *Server) Shutdown() error {
	s.logger.Info("サーバーをシャットダウンしています...")

	s.closeOnce.Do(func() {
		close(s.handler.closing)
		s.handler.events.Close()
	})

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	s.logger.Info("サーバーが正常にシャットダウンされました")
	return nil
}
