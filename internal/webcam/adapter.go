package webcam

import (
	"context"
	"log/slog"
	"sync"

	"kagami/internal/camera"
)

// Adapter はカメラストリームを保持し、ホストからの操作を仲介する
type Adapter struct {
	devices   MediaDevices
	scheduler Scheduler
	logger    *slog.Logger
	callbacks Callbacks

	initialSink camera.Sink

	// opMu はストリームとシンクの接続を変更する操作を直列化する
	// シンクの接続はフレーム受信ゴルーチンの終了を待つため、muを持ったまま行わない
	opMu sync.Mutex

	mu             sync.Mutex
	stream         camera.MediaStream
	streamSettings *camera.TrackSettings
	capabilities   camera.Settings
	starting       bool
	cameraType     camera.Type
	preferred      camera.Type
	sink           camera.Sink
	removeListener func()
	mounted        bool
	lastMountError *MountError
}

// New は新しいAdapterを作成する
// ストリームはResumeが呼ばれるまで取得しない
func New(devices MediaDevices, preferred camera.Type, opts ...Option) *Adapter {
	a := &Adapter{
		devices:      devices,
		scheduler:    NewFrameScheduler(DefaultFrameRate),
		logger:       slog.Default(),
		capabilities: camera.DefaultSettings(),
		cameraType:   camera.TypeUnknown,
		preferred:    preferred,
		mounted:      true,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.initialSink != nil {
		a.SetSink(a.initialSink)
		a.initialSink = nil
	}
	return a
}

// Resume は希望する向きのストリームを取得して差し替える
//
// 別のResumeが実行中なら希望する向きも含めて要求を破棄し、
// ErrResumeInProgressを返す。取得に失敗した場合はOnMountErrorを呼び、
// エラーを返す。新しいストリームが現在のものと同じデバイスなら差し替えない。
func (a *Adapter) Resume(ctx context.Context, preferred camera.Type) error {
	a.mu.Lock()
	if !a.mounted {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.starting {
		a.mu.Unlock()
		a.logger.Debug("ストリームを取得中のため再開要求を破棄します", "preferred", preferred)
		return ErrResumeInProgress
	}
	if preferred.IsValid() {
		a.preferred = preferred
	}
	a.starting = true
	want := a.preferred
	a.mu.Unlock()

	next, err := a.devices.AcquireStream(ctx, want)
	if err != nil {
		mountErr := MountError{NativeEvent: err}

		a.mu.Lock()
		a.starting = false
		a.lastMountError = &mountErr
		onMountError := a.callbacks.OnMountError
		a.mu.Unlock()

		a.logger.Warn("ストリームの取得に失敗", "preferred", want, "error", err)
		if onMountError != nil {
			onMountError(mountErr)
		}
		return err
	}

	a.opMu.Lock()

	a.mu.Lock()
	if !a.mounted {
		// 取得中に終了された
		a.starting = false
		a.mu.Unlock()
		a.opMu.Unlock()
		a.devices.ReleaseStream(next)
		return ErrClosed
	}

	current := a.stream
	if current != nil && a.devices.CompareStreams(next, current) {
		a.starting = false
		a.mu.Unlock()
		a.opMu.Unlock()

		if next.ID() != current.ID() {
			a.devices.ReleaseStream(next)
		}
		a.logger.Debug("同じデバイスのストリームのため差し替えません", "stream_id", current.ID())
		return nil
	}

	a.setStreamLocked(next)
	sink := a.sink
	cameraType := a.cameraType
	a.mu.Unlock()

	a.devices.ReleaseStream(current)
	if sink != nil {
		a.devices.BindVideoSink(sink, next)
	}

	a.mu.Lock()
	a.starting = false
	a.lastMountError = nil
	onCameraReady := a.callbacks.OnCameraReady
	a.mu.Unlock()
	a.opMu.Unlock()

	a.logger.Info("カメラの準備ができました", "stream_id", next.ID(), "preferred", want, "type", cameraType)
	if onCameraReady != nil {
		onCameraReady()
	}
	return nil
}

// Stop は現在のストリームを解放する。ストリームがなければ何もしない
func (a *Adapter) Stop() {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	a.stopLocked()
}

// stopLocked はopMuを持った状態でストリームを解放する
func (a *Adapter) stopLocked() {
	a.mu.Lock()
	current := a.stream
	a.setStreamLocked(nil)
	sink := a.sink
	a.mu.Unlock()

	if current == nil {
		return
	}

	a.devices.ReleaseStream(current)
	if sink != nil {
		a.devices.BindVideoSink(sink, nil)
	}
	a.logger.Info("ストリームを停止しました", "stream_id", current.ID())
}

// setStreamLocked はストリームを差し替え、トラック設定と向きを更新する（mu保持前提）
func (a *Adapter) setStreamLocked(stream camera.MediaStream) {
	a.stream = stream
	a.streamSettings = nil
	a.cameraType = camera.TypeUnknown

	if stream == nil {
		return
	}
	tracks := stream.Tracks()
	if len(tracks) == 0 {
		return
	}

	settings := tracks[0].Settings()
	a.streamSettings = &settings

	// 向きを報告しないデバイス（PCのカメラなど）は前面とみなす
	facing := settings.FacingMode
	if facing == "" {
		facing = camera.FacingModeUser
	}
	a.cameraType = camera.FacingModeToType(facing)
}

// CaptureAsync はシンクの現在のフレームから静止画を撮影する
// シンクに十分なデータがなければErrCameraNotReadyを返す
func (a *Adapter) CaptureAsync(opts camera.PictureOptions) (*camera.Picture, error) {
	a.mu.Lock()
	sink := a.sink
	var settings *camera.TrackSettings
	if a.streamSettings != nil {
		s := *a.streamSettings
		settings = &s
	}
	a.mu.Unlock()

	if sink == nil || sink.ReadyState() != camera.HaveEnoughData {
		return nil, camera.ErrCameraNotReady
	}
	return a.devices.CaptureFrame(sink, settings, opts)
}

// UpdateSettings は設定の変更分だけをデバイスに反映し、キャッシュを更新する
//
// 認識されるキーで値が変わったものだけを反映する。変更がなければ
// デバイスには触れない。反映に失敗してもキャッシュは更新される。
// 戻り値は反映対象となった変更分。
func (a *Adapter) UpdateSettings(ctx context.Context, settings camera.Settings) camera.Settings {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	changes := a.capabilities.Changes(settings)
	a.capabilities = a.capabilities.Merge(changes)
	preferred := a.preferred
	stream := a.stream
	a.mu.Unlock()

	if len(changes) == 0 {
		return changes
	}

	if err := a.devices.SyncCapabilities(ctx, preferred, stream, changes); err != nil {
		a.logger.Warn("設定の反映に失敗", "error", err, "changes", changes)
	}
	return changes
}

// ResetCapabilities はキャッシュをデフォルトに戻す。デバイスには反映しない
func (a *Adapter) ResetCapabilities() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.capabilities = camera.DefaultSettings()
}

// SetSink はビデオシンクを差し替え、現在のストリームを接続する
// 前のシンクは切断される
func (a *Adapter) SetSink(sink camera.Sink) {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	if a.sink == sink {
		a.mu.Unlock()
		return
	}
	previous := a.sink
	remove := a.removeListener
	a.sink = sink
	a.removeListener = nil
	stream := a.stream
	mounted := a.mounted
	a.mu.Unlock()

	if remove != nil {
		remove()
	}
	if previous != nil {
		a.devices.BindVideoSink(previous, nil)
	}
	if sink == nil || !mounted {
		return
	}

	removeListener := sink.OnLoadedMetadata(a.HandleLoadedMetadata)
	a.mu.Lock()
	a.removeListener = removeListener
	a.mu.Unlock()

	a.devices.BindVideoSink(sink, stream)
}

// HandleLoadedMetadata はシンクのメタデータ読み込み完了を受けて
// 次のフレームで全設定を再同期する
//
// 向きを切り替えて戻したときにトーチなどの設定を再適用するため、
// 読み込み直後ではなく1フレーム遅らせる。
func (a *Adapter) HandleLoadedMetadata() {
	a.mu.Lock()
	mounted := a.mounted
	a.mu.Unlock()
	if !mounted {
		return
	}

	a.scheduler.Schedule(a.syncAll)
}

// syncAll はキャッシュされた全設定を現在のストリームに反映する
func (a *Adapter) syncAll() {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	if !a.mounted {
		a.mu.Unlock()
		return
	}
	preferred := a.preferred
	stream := a.stream
	capabilities := a.capabilities.Clone()
	a.mu.Unlock()

	if err := a.devices.SyncCapabilities(context.Background(), preferred, stream, capabilities); err != nil {
		a.logger.Warn("設定の再同期に失敗", "error", err)
	}
}

// Close はアダプターを終了し、ストリームを解放する。冪等
func (a *Adapter) Close() {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	a.mu.Lock()
	if !a.mounted {
		a.mu.Unlock()
		return
	}
	a.mounted = false
	remove := a.removeListener
	a.removeListener = nil
	a.mu.Unlock()

	if remove != nil {
		remove()
	}
	a.stopLocked()
}

// Type は現在のストリームから導出したカメラの向きを返す
// ストリームがなければTypeUnknown
func (a *Adapter) Type() camera.Type {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cameraType
}

// PreferredType は希望するカメラの向きを返す
func (a *Adapter) PreferredType() camera.Type {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.preferred
}

// Capabilities はキャッシュされた設定のコピーを返す
func (a *Adapter) Capabilities() camera.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capabilities.Clone()
}

// Starting はResumeが実行中かどうかを返す
func (a *Adapter) Starting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.starting
}

// Streaming はストリームを保持しているかどうかを返す
func (a *Adapter) Streaming() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream != nil
}

// Stream は現在のストリームを返す
func (a *Adapter) Stream() camera.MediaStream {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream
}

// StreamSettings は現在のトラック設定を返す
func (a *Adapter) StreamSettings() (camera.TrackSettings, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.streamSettings == nil {
		return camera.TrackSettings{}, false
	}
	return *a.streamSettings, true
}

// Sink は現在のビデオシンクを返す
func (a *Adapter) Sink() camera.Sink {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sink
}

// LastMountError は直近のストリーム取得失敗を返す。成功すると消える
func (a *Adapter) LastMountError() *MountError {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastMountError == nil {
		return nil
	}
	e := *a.lastMountError
	return &e
}
