// Package app は、設定から各コンポーネントを組み立ててサーバーを起動します。
package app

import (
	"context"
	"fmt"
	"log/slog"

	"kagami/internal/camera"
	"kagami/internal/config"
	"kagami/internal/picker"
	"kagami/internal/server"
	"kagami/internal/updates"
	"kagami/internal/webcam"
)

// testPatterns は合成ソースでデバイス設定がないときに使うデバイス
var testPatterns = map[string]camera.FacingMode{
	"pattern0": camera.FacingModeUser,
	"pattern1": camera.FacingModeEnvironment,
}

// App は組み立て済みのアプリケーション
type App struct {
	config   *config.Config
	logger   *slog.Logger
	registry *camera.Registry
	sink     *camera.VideoSink
	adapter  *webcam.Adapter
	server   *server.Server
}

// New は設定に従ってアプリケーションを組み立てる
// デバイスはRunまで開かない
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	discovery, facings := newDiscovery(cfg)
	registry := camera.NewRegistry(discovery, facings, logger)
	registry.SetScanInterval(cfg.Camera.ScanInterval.Std())
	registry.SetAutoDiscovery(len(cfg.Camera.Devices) == 0 && cfg.Camera.ScanInterval > 0)

	devices := camera.NewMediaDevices(registry, camera.NewSourceFactory(),
		camera.SourceType(cfg.Camera.Source), cfg.VideoSettings(), logger)

	sink := camera.NewVideoSink(cfg.Camera.ReadyFrames, logger)
	events := server.NewEventHub(logger)

	adapter := webcam.New(devices, camera.Type(cfg.Camera.PreferredType),
		webcam.WithSink(sink),
		webcam.WithScheduler(webcam.NewFrameScheduler(cfg.Camera.SyncFrameRate)),
		webcam.WithCallbacks(events.Callbacks()),
		webcam.WithLogger(logger),
	)

	srv, err := server.New(cfg, server.Deps{
		Adapter:  adapter,
		Sink:     sink,
		Registry: registry,
		Picker:   picker.New(adapter, cfg.Library.Dir, logger),
		Reloader: updates.New(adapter, logger),
		Events:   events,
		Logger:   logger,
	})
	if err != nil {
		adapter.Close()
		return nil, fmt.Errorf("サーバーの作成に失敗: %w", err)
	}

	return &App{
		config:   cfg,
		logger:   logger,
		registry: registry,
		sink:     sink,
		adapter:  adapter,
		server:   srv,
	}, nil
}

// Run はデバイスの検出を始め、カメラを開いてサーバーを起動する
// ctxがキャンセルされるかシグナルを受けるまで戻らない
func (a *App) Run(ctx context.Context) error {
	if err := a.registry.Start(ctx); err != nil {
		return fmt.Errorf("デバイスレジストリの起動に失敗: %w", err)
	}
	defer func() {
		_ = a.registry.Stop(context.Background())
	}()
	defer a.sink.Close()
	defer a.adapter.Close()

	a.logger.Info("カメラデバイスを検出しました", "devices", len(a.registry.Devices()), "source", a.config.Camera.Source)

	// 開けなくてもサーバーは起動し、後から再開できる
	if err := a.adapter.Resume(ctx, a.adapter.PreferredType()); err != nil {
		a.logger.Warn("起動時のカメラの再開に失敗", "error", err)
	}

	return a.server.Start(ctx)
}

// newDiscovery は設定に応じたデバイス検出と向きの対応を返す
func newDiscovery(cfg *config.Config) (camera.Discovery, map[string]camera.FacingMode) {
	if len(cfg.Camera.Devices) > 0 {
		return camera.NewStaticDiscovery(cfg.DeviceNames()), cfg.Facings()
	}

	if camera.SourceType(cfg.Camera.Source) == camera.SourceTypeTestPattern {
		names := make(map[string]string, len(testPatterns))
		for path := range testPatterns {
			names[path] = "テストパターン " + path
		}
		return camera.NewStaticDiscovery(names), testPatterns
	}

	return camera.NewLinuxDiscovery(), cfg.Facings()
}
