// Package main はKagamiサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"kagami/internal/app"
	"kagami/internal/config"
	"kagami/internal/logging"
)

func main() {
	// コマンドラインオプション
	var (
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		configPath = flag.String("config", "", "設定ファイル (.yaml / .toml)。未指定ならKAGAMI_CONFIG")
		source     = flag.String("source", "", "フレームソース (v4l2 / testpattern)")
		library    = flag.String("library", "", "撮影画像の保存先ディレクトリ")
		logLevel   = flag.String("log-level", "", "ログレベル (debug / info / warn / error)")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Kagami")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	path := *configPath
	if path == "" {
		path = os.Getenv("KAGAMI_CONFIG")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *source != "" {
		cfg.Camera.Source = *source
	}
	if *library != "" {
		cfg.Library.Dir = *library
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定が不正です: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗しました: %v", err)
	}
	slog.SetDefault(logger)

	application, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("アプリケーションの作成に失敗しました: %v", err)
	}

	// サーバーを起動
	logger.Info("Kagami サーバーを起動します", "address", cfg.ServerAddress())
	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
