// Package updates は、カメラアダプターの再読み込みを提供します。
package updates

import (
	"context"
	"fmt"
	"log/slog"

	"kagami/internal/camera"
)

// Target は再読み込みの対象
// *webcam.Adapter が実装する
type Target interface {
	Stop()
	ResetCapabilities()
	Resume(ctx context.Context, preferred camera.Type) error
	PreferredType() camera.Type
}

// Reloader はアダプターを停止して再開する
type Reloader struct {
	target Target
	logger *slog.Logger
}

// New は新しいReloaderを作成する。targetがnilなら何もしない
func New(target Target, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{target: target, logger: logger}
}

// Name はモジュール名を返す
func (r *Reloader) Name() string {
	return "ExponentUpdates"
}

// Available は再読み込みできる対象があるかどうかを返す
func (r *Reloader) Available() bool {
	return r.target != nil
}

// Reload はキャッシュした設定も破棄して再開する
// 再開が別の要求に破棄された場合はカメラが止まったままなのでエラーを返す
func (r *Reloader) Reload(ctx context.Context) error {
	if r.target == nil {
		return nil
	}

	r.target.Stop()
	r.target.ResetCapabilities()
	if err := r.target.Resume(ctx, r.target.PreferredType()); err != nil {
		r.logger.Warn("再読み込み後の再開に失敗", "cache", false, "error", err)
		return fmt.Errorf("再読み込みに失敗: %w", err)
	}
	r.logger.Info("カメラを再読み込みしました", "cache", false)
	return nil
}

// ReloadFromCache はキャッシュした設定を保ったまま再開する
func (r *Reloader) ReloadFromCache(ctx context.Context) error {
	if r.target == nil {
		return nil
	}

	r.target.Stop()
	if err := r.target.Resume(ctx, r.target.PreferredType()); err != nil {
		r.logger.Warn("再読み込み後の再開に失敗", "cache", true, "error", err)
		return fmt.Errorf("再読み込みに失敗: %w", err)
	}
	r.logger.Info("カメラを再読み込みしました", "cache", true)
	return nil
}
