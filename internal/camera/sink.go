package camera

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"sync"
)

// frameStreamer はフレームを供給できるストリーム
type frameStreamer interface {
	Start(ctx context.Context) error
	Frames() <-chan []byte
}

// errorStreamer はエラーを通知できるストリーム
type errorStreamer interface {
	Errors() <-chan error
}

// VideoSink はストリームのフレームを受け取り保持するビデオシンク
//
// 最初にデコード可能なフレームを受け取るとHaveMetadataとなり
// loadedmetadataリスナーを呼ぶ。readyFrames枚受け取るとHaveEnoughDataになる。
type VideoSink struct {
	readyFrames int
	logger      *slog.Logger

	mu          sync.RWMutex
	source      MediaStream
	readyState  ReadyState
	latestFrame []byte
	videoWidth  int
	videoHeight int
	frameCount  int
	lastError   error

	cancel context.CancelFunc
	done   chan struct{}

	listeners    map[int]func()
	nextListener int

	subscribers map[int]chan []byte
	nextSub     int
}

// NewVideoSink は新しいVideoSinkを作成する
func NewVideoSink(readyFrames int, logger *slog.Logger) *VideoSink {
	if readyFrames <= 0 {
		readyFrames = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoSink{
		readyFrames: readyFrames,
		logger:      logger,
		listeners:   make(map[int]func()),
		subscribers: make(map[int]chan []byte),
	}
}

// SetSource はストリームをシンクに接続する。nilで切断する
func (v *VideoSink) SetSource(ctx context.Context, stream MediaStream) {
	v.mu.Lock()
	if sameStream(v.source, stream) {
		v.mu.Unlock()
		return
	}
	cancel, done := v.cancel, v.done
	v.cancel, v.done = nil, nil
	v.mu.Unlock()

	// 前のストリームの受信を止める
	if cancel != nil {
		cancel()
		<-done
	}

	v.mu.Lock()
	v.source = stream
	v.readyState = HaveNothing
	v.latestFrame = nil
	v.videoWidth, v.videoHeight = 0, 0
	v.frameCount = 0
	v.lastError = nil
	v.mu.Unlock()

	if stream == nil {
		return
	}

	streamer, ok := stream.(frameStreamer)
	if !ok {
		v.logger.Warn("フレームを供給できないストリームです", "stream_id", stream.ID())
		return
	}

	if err := streamer.Start(ctx); err != nil {
		v.logger.Error("ストリームの開始に失敗", "stream_id", stream.ID(), "error", err)
		v.mu.Lock()
		v.lastError = err
		v.mu.Unlock()
		return
	}

	consumeCtx, consumeCancel := context.WithCancel(context.Background())
	consumeDone := make(chan struct{})

	v.mu.Lock()
	v.cancel, v.done = consumeCancel, consumeDone
	v.mu.Unlock()

	go v.consume(consumeCtx, consumeDone, stream, streamer)
}

// consume はストリームのフレームを受信して状態を更新する
func (v *VideoSink) consume(ctx context.Context, done chan struct{}, stream MediaStream, streamer frameStreamer) {
	defer close(done)

	var errs <-chan error
	if es, ok := streamer.(errorStreamer); ok {
		errs = es.Errors()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			v.logger.Warn("ストリームエラー", "stream_id", stream.ID(), "error", err)
			v.mu.Lock()
			v.lastError = err
			v.mu.Unlock()
		case frame, ok := <-streamer.Frames():
			if !ok {
				return
			}
			v.handleFrame(stream, frame)
		}
	}
}

// handleFrame はフレームを保存し準備状態を進め、購読者へ配信する
func (v *VideoSink) handleFrame(stream MediaStream, frame []byte) {
	var loaded []func()

	v.mu.Lock()
	if v.readyState == HaveNothing {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
		if err != nil {
			v.mu.Unlock()
			v.logger.Debug("フレームのデコードに失敗", "stream_id", stream.ID(), "error", err)
			return
		}
		v.videoWidth, v.videoHeight = cfg.Width, cfg.Height
		v.readyState = HaveMetadata
		for _, fn := range v.listeners {
			loaded = append(loaded, fn)
		}
	}

	v.frameCount++
	v.latestFrame = frame

	switch {
	case v.frameCount >= v.readyFrames:
		v.readyState = HaveEnoughData
	case v.frameCount > 1:
		v.readyState = HaveFutureData
	default:
		v.readyState = HaveCurrentData
	}

	for _, ch := range v.subscribers {
		select {
		case ch <- frame:
		default:
			// 遅い購読者のフレームは破棄する
		}
	}
	v.mu.Unlock()

	for _, fn := range loaded {
		fn()
	}
}

// ReadyState は現在の準備状態を返す
func (v *VideoSink) ReadyState() ReadyState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.readyState
}

// LatestFrame は最新フレームのコピーを返す
func (v *VideoSink) LatestFrame() ([]byte, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.latestFrame == nil {
		return nil, false
	}
	frame := make([]byte, len(v.latestFrame))
	copy(frame, v.latestFrame)
	return frame, true
}

// VideoSize は映像の幅と高さを返す
func (v *VideoSink) VideoSize() (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.videoWidth, v.videoHeight
}

// LastError は最後に発生したストリームエラーを返す
func (v *VideoSink) LastError() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastError
}

// Source は接続中のストリームを返す
func (v *VideoSink) Source() MediaStream {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.source
}

// OnLoadedMetadata はメタデータ読み込み時のリスナーを登録する
func (v *VideoSink) OnLoadedMetadata(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextListener
	v.nextListener++
	v.listeners[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Subscribe はフレーム配信を購読する
func (v *VideoSink) Subscribe(buffer int) (<-chan []byte, func()) {
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan []byte, buffer)

	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subscribers[id] = ch
	v.mu.Unlock()

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subscribers, id)
	}
}

// Close はシンクを切断する
func (v *VideoSink) Close() {
	v.SetSource(context.Background(), nil)
}

func sameStream(a, b MediaStream) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
