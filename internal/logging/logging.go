// Package logging は、構造化ロガーの生成を担当します。
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// New は設定に従ってロガーを作成する
// formatは "text" か "json"。空ならtext
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("無効なログ形式: %q", format)
	}

	return slog.New(handler), nil
}

// ParseLevel はログレベル名をslog.Levelに変換する。空ならinfo
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("無効なログレベル: %q", level)
	}
}
