package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"kagami/internal/app"
	"kagami/internal/config"
	"kagami/internal/logging"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗しました: %v", err)
	}
	slog.SetDefault(logger)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("アプリケーションの作成に失敗しました", "error", err)
		os.Exit(1)
	}

	// サーバーを起動
	if err := application.Run(context.Background()); err != nil {
		logger.Error("サーバーの起動に失敗しました", "error", err)
		os.Exit(1)
	}
}
