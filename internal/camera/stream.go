package camera

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Track はストリーム内のビデオトラック
type Track struct {
	id       string
	label    string
	settings TrackSettings
	stream   *Stream
}

// ID はトラックIDを返す
func (t *Track) ID() string { return t.id }

// Kind はトラックの種類を返す
func (t *Track) Kind() string { return "video" }

// Label はトラックの表示名を返す
func (t *Track) Label() string { return t.label }

// Settings はトラックの現在の設定を返す
func (t *Track) Settings() TrackSettings { return t.settings }

// Stop はトラックのキャプチャを停止する
func (t *Track) Stop() { t.stream.stopCapture() }

// Stream は取得済みのキャプチャデバイスを表す
// Startされるまでデバイスは開かれない
type Stream struct {
	id     string
	device Device
	track  *Track
	source FrameSource

	frameChan chan []byte
	errorChan chan error

	// ソースからの内部チャンネル
	internalFrameChan chan []byte
	internalErrorChan chan error

	status   Status
	released bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewStream はデバイスとソースから新しいStreamを作成する
func NewStream(device Device, source FrameSource, settings VideoSettings) *Stream {
	s := &Stream{
		id:                uuid.New().String(),
		device:            device,
		source:            source,
		frameChan:         make(chan []byte, 10),
		errorChan:         make(chan error, 5),
		internalFrameChan: make(chan []byte, 10),
		internalErrorChan: make(chan error, 5),
		status:            StatusInactive,
	}
	s.track = &Track{
		id:    uuid.New().String(),
		label: device.Name,
		settings: TrackSettings{
			DeviceID:   device.ID,
			GroupID:    device.Path,
			FacingMode: device.Facing,
			Width:      settings.Width,
			Height:     settings.Height,
			FrameRate:  settings.FrameRate,
		},
		stream: s,
	}
	return s
}

// ID はストリームIDを返す
func (s *Stream) ID() string { return s.id }

// Tracks はトラック一覧を返す
func (s *Stream) Tracks() []MediaStreamTrack {
	return []MediaStreamTrack{s.track}
}

// Device はストリームの元デバイスを返す
func (s *Stream) Device() Device { return s.device }

// Source はフレームソースを返す
func (s *Stream) Source() FrameSource { return s.source }

// Frames はフレームチャンネルを返す
func (s *Stream) Frames() <-chan []byte { return s.frameChan }

// Errors はエラーチャンネルを返す
func (s *Stream) Errors() <-chan error { return s.errorChan }

// Status は現在の状態を返す
func (s *Stream) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Start はキャプチャを開始する。既に開始済みなら何もしない
func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusActive {
		return nil
	}

	// 呼び出し元のリクエストが終わってもキャプチャは継続させる
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.source.StartStream(streamCtx, s.internalFrameChan, s.internalErrorChan)

	s.wg.Add(1)
	go s.forwardFrames(streamCtx)

	s.status = StatusActive
	return nil
}

// Stop は全トラックを停止する。冪等
func (s *Stream) Stop() {
	for _, track := range s.Tracks() {
		track.Stop()
	}
}

// markReleased は解放済みとして記録し、初回の呼び出しならtrueを返す
func (s *Stream) markReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return false
	}
	s.released = true
	return true
}

// stopCapture はソースと転送ゴルーチンを停止する
func (s *Stream) stopCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.status = StatusInactive
}

// forwardFrames はソースからフレームを転送する
func (s *Stream) forwardFrames(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case frame := <-s.internalFrameChan:
			select {
			case s.frameChan <- frame:
			default:
				// チャンネルがフルの場合は古いフレームを破棄
				select {
				case <-s.frameChan:
				default:
				}
				select {
				case s.frameChan <- frame:
				default:
				}
			}

		case err := <-s.internalErrorChan:
			select {
			case s.errorChan <- err:
			default:
				// エラーチャンネルがフルの場合は古いエラーを破棄
				select {
				case <-s.errorChan:
				default:
				}
				select {
				case s.errorChan <- err:
				default:
				}
			}
		}
	}
}
