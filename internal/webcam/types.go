package webcam

import (
	"context"
	"errors"
	"log/slog"

	"kagami/internal/camera"
)

// MediaDevices はアダプターが利用するデバイス抽象化層
// *camera.MediaDevices が実装する
type MediaDevices interface {
	// AcquireStream は向きに合うストリームを取得する
	AcquireStream(ctx context.Context, preferred camera.Type) (camera.MediaStream, error)

	// ReleaseStream はストリームを解放する。冪等
	ReleaseStream(stream camera.MediaStream)

	// SyncCapabilities は設定をストリームに反映する
	SyncCapabilities(ctx context.Context, preferred camera.Type, stream camera.MediaStream, changes camera.Settings) error

	// BindVideoSink はストリームをシンクに接続する
	BindVideoSink(sink camera.Sink, stream camera.MediaStream)

	// CaptureFrame はシンクから静止画を撮影する
	CaptureFrame(sink camera.Sink, settings *camera.TrackSettings, opts camera.PictureOptions) (*camera.Picture, error)

	// CompareStreams は2つのストリームが同じデバイスかどうかを返す
	CompareStreams(a, b camera.MediaStream) bool
}

// MountError はストリーム取得の失敗を通知するイベント
type MountError struct {
	NativeEvent error
}

func (e MountError) Error() string {
	if e.NativeEvent == nil {
		return "カメラのマウントに失敗"
	}
	return e.NativeEvent.Error()
}

func (e MountError) Unwrap() error {
	return e.NativeEvent
}

// Callbacks はホストに通知するコールバック。どちらも省略可能
type Callbacks struct {
	OnCameraReady func()
	OnMountError  func(MountError)
}

// ErrClosed は終了済みのアダプターに対する操作
var ErrClosed = errors.New("アダプターは終了済みです")

// ErrResumeInProgress は別のResumeが実行中のため破棄された要求
var ErrResumeInProgress = errors.New("カメラの再開処理が実行中です")

// Option はAdapterの設定
type Option func(*Adapter)

// WithCallbacks はコールバックを設定する
func WithCallbacks(callbacks Callbacks) Option {
	return func(a *Adapter) {
		a.callbacks = callbacks
	}
}

// WithScheduler はloadedmetadata後の同期に使うSchedulerを設定する
func WithScheduler(scheduler Scheduler) Option {
	return func(a *Adapter) {
		if scheduler != nil {
			a.scheduler = scheduler
		}
	}
}

// WithLogger はロガーを設定する
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSink は初期のビデオシンクを設定する
func WithSink(sink camera.Sink) Option {
	return func(a *Adapter) {
		a.initialSink = sink
	}
}
