package camera

import (
	"context"
	"fmt"
	"log/slog"
)

// MediaDevices はデバイス抽象化層。ストリームの取得・解放、
// 能力設定の同期、シンクへの接続、静止画の撮影を担う
type MediaDevices struct {
	registry   *Registry
	factory    *SourceFactory
	sourceType SourceType
	settings   VideoSettings
	logger     *slog.Logger
}

// NewMediaDevices は新しいMediaDevicesを作成する
func NewMediaDevices(registry *Registry, factory *SourceFactory, sourceType SourceType, settings VideoSettings, logger *slog.Logger) *MediaDevices {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaDevices{
		registry:   registry,
		factory:    factory,
		sourceType: sourceType,
		settings:   withDefaults(settings),
		logger:     logger,
	}
}

// AcquireStream は指定された向きに合うデバイスのストリームを取得する
// デバイスはシンクに接続されるまで開かれない
func (m *MediaDevices) AcquireStream(ctx context.Context, preferred Type) (MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AcquisitionError{Type: preferred, Err: err}
	}

	device, err := m.registry.Find(preferred)
	if err != nil {
		return nil, &AcquisitionError{Type: preferred, Err: err}
	}

	source, err := m.factory.CreateSource(m.sourceType, device.Path, m.settings)
	if err != nil {
		return nil, &AcquisitionError{Type: preferred, Err: err}
	}

	stream := NewStream(device, source, m.settings)
	m.logger.Info("ストリームを取得しました",
		"stream_id", stream.ID(),
		"device", device.Path,
		"preferred", preferred,
		"facing", device.Facing,
	)
	return stream, nil
}

// ReleaseStream はストリームの全トラックを停止する。nilや解放済みでも安全
func (m *MediaDevices) ReleaseStream(stream MediaStream) {
	if stream == nil {
		return
	}

	s, ok := stream.(*Stream)
	if !ok {
		for _, track := range stream.Tracks() {
			track.Stop()
		}
		return
	}

	// 開始されていないストリームはデバイスを使っていない
	// 同じデバイスの別ストリームが動いていることがあるので状態には触れない
	wasActive := s.Status() == StatusActive
	s.Stop()
	if !s.markReleased() {
		return
	}
	if wasActive {
		m.registry.SetStatus(s.Device().ID, StatusInactive)
	}
	m.logger.Info("ストリームを解放しました", "stream_id", s.ID(), "device", s.Device().Path)
}

// SyncCapabilities は変更された設定をストリームのトラックに反映する
// ストリームがなければ何もしない
func (m *MediaDevices) SyncCapabilities(ctx context.Context, preferred Type, stream MediaStream, changes Settings) error {
	if stream == nil || len(changes) == 0 {
		return nil
	}

	s, ok := stream.(*Stream)
	if !ok {
		return fmt.Errorf("設定を反映できないストリームです: %s", stream.ID())
	}

	supported, err := s.Source().ListControls(ctx)
	if err != nil {
		return fmt.Errorf("コントロール一覧の取得に失敗: %w", err)
	}

	// 向きはトラックの報告値を優先し、なければ要求された向きを使う
	t := preferred
	if len(s.Tracks()) > 0 {
		if facing := s.Tracks()[0].Settings().FacingMode; facing != "" {
			t = FacingModeToType(facing)
		}
	}

	plan, err := PlanControls(t, changes, supported)
	if err != nil {
		return err
	}
	if len(plan.Unsupported) > 0 {
		m.logger.Debug("デバイスが対応していない設定を無視します", "stream_id", s.ID(), "keys", plan.Unsupported)
	}

	if err := s.Source().SetControls(ctx, plan.Controls); err != nil {
		return fmt.Errorf("設定の反映に失敗: %w", err)
	}
	return nil
}

// BindVideoSink はストリームをシンクに接続する。nilで切断する
func (m *MediaDevices) BindVideoSink(sink Sink, stream MediaStream) {
	if sink == nil {
		return
	}
	sink.SetSource(context.Background(), stream)

	if s, ok := stream.(*Stream); ok && s.Status() == StatusActive {
		m.registry.SetStatus(s.Device().ID, StatusActive)
	}
}

// CaptureFrame はシンクの最新フレームから静止画を作成する
func (m *MediaDevices) CaptureFrame(sink Sink, settings *TrackSettings, opts PictureOptions) (*Picture, error) {
	if sink == nil {
		return nil, ErrCameraNotReady
	}
	frame, ok := sink.LatestFrame()
	if !ok {
		return nil, ErrCameraNotReady
	}
	return EncodePicture(frame, settings, opts)
}

// CompareStreams は2つのストリームが同じデバイスを指しているかを返す
func (m *MediaDevices) CompareStreams(a, b MediaStream) bool {
	return CompareStreams(a, b)
}

// CompareStreams は先頭トラックのデバイスIDでストリームを比較する
func CompareStreams(a, b MediaStream) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := a.Tracks(), b.Tracks()
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	return ta[0].Settings().DeviceID == tb[0].Settings().DeviceID
}
