package webcam

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"kagami/internal/camera"
)

// fakeTrack はテスト用のトラック
type fakeTrack struct {
	settings camera.TrackSettings
}

func (t *fakeTrack) ID() string { return "track-" + t.settings.DeviceID }
func (t *fakeTrack) Kind() string { return "video" }
func (t *fakeTrack) Label() string { return t.settings.DeviceID }
func (t *fakeTrack) Settings() camera.TrackSettings { return t.settings }
func (t *fakeTrack) Stop() {}

// fakeStream はテスト用のストリーム
type fakeStream struct {
	id     string
	tracks []camera.MediaStreamTrack
}

func (s *fakeStream) ID() string { return s.id }
func (s *fakeStream) Tracks() []camera.MediaStreamTrack { return s.tracks }

type bindCall struct {
	sink     camera.Sink
	streamID string // 切断時は空
}

type syncCall struct {
	preferred camera.Type
	streamID  string
	changes   camera.Settings
}

// fakeDevices は呼び出しを記録するMediaDevices
type fakeDevices struct {
	mu sync.Mutex

	// devices は要求された向きごとに返すデバイスIDと向き
	devices map[camera.Type]camera.TrackSettings

	acquireErr error
	gate       chan struct{} // nilでなければ取得時に待つ
	syncErr    error

	picture    *camera.Picture
	captureErr error

	acquireCalls int
	nextID       int
	released     []string
	binds        []bindCall
	syncs        []syncCall
	captures     []*camera.TrackSettings
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{
		devices: map[camera.Type]camera.TrackSettings{
			camera.TypeBack:  {DeviceID: "cam-back", FacingMode: camera.FacingModeEnvironment},
			camera.TypeFront: {DeviceID: "cam-front", FacingMode: camera.FacingModeUser},
		},
		picture: &camera.Picture{URI: "data:image/jpeg;base64,AAAA", Width: 4, Height: 3},
	}
}

func (f *fakeDevices) AcquireStream(ctx context.Context, preferred camera.Type) (camera.MediaStream, error) {
	f.mu.Lock()
	f.acquireCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.acquireErr != nil {
		return nil, &camera.AcquisitionError{Type: preferred, Err: f.acquireErr}
	}
	settings, ok := f.devices[preferred]
	if !ok {
		return nil, &camera.AcquisitionError{Type: preferred, Err: camera.ErrNoDevice}
	}

	f.nextID++
	return &fakeStream{
		id:     fmt.Sprintf("S%d", f.nextID),
		tracks: []camera.MediaStreamTrack{&fakeTrack{settings: settings}},
	}, nil
}

func (f *fakeDevices) ReleaseStream(stream camera.MediaStream) {
	if stream == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, stream.ID())
}

func (f *fakeDevices) SyncCapabilities(_ context.Context, preferred camera.Type, stream camera.MediaStream, changes camera.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := syncCall{preferred: preferred, changes: changes.Clone()}
	if stream != nil {
		call.streamID = stream.ID()
	}
	f.syncs = append(f.syncs, call)
	return f.syncErr
}

func (f *fakeDevices) BindVideoSink(sink camera.Sink, stream camera.MediaStream) {
	call := bindCall{sink: sink}
	if stream != nil {
		call.streamID = stream.ID()
	}
	f.mu.Lock()
	f.binds = append(f.binds, call)
	f.mu.Unlock()

	sink.SetSource(context.Background(), stream)
}

func (f *fakeDevices) CaptureFrame(_ camera.Sink, settings *camera.TrackSettings, _ camera.PictureOptions) (*camera.Picture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures = append(f.captures, settings)
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return f.picture, nil
}

func (f *fakeDevices) CompareStreams(a, b camera.MediaStream) bool {
	return camera.CompareStreams(a, b)
}

func (f *fakeDevices) releasedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func (f *fakeDevices) syncCalls() []syncCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]syncCall(nil), f.syncs...)
}

func (f *fakeDevices) lastBind() (bindCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.binds) == 0 {
		return bindCall{}, false
	}
	return f.binds[len(f.binds)-1], true
}

func (f *fakeDevices) acquireCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquireCalls
}

// fakeSink はreadyStateを外から設定できるシンク
type fakeSink struct {
	mu         sync.Mutex
	readyState camera.ReadyState
	source     camera.MediaStream
	listener   func()
}

func (s *fakeSink) ReadyState() camera.ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyState
}

func (s *fakeSink) LatestFrame() ([]byte, bool) { return nil, false }

func (s *fakeSink) SetSource(_ context.Context, stream camera.MediaStream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = stream
}

func (s *fakeSink) OnLoadedMetadata(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listener = nil
	}
}

func (s *fakeSink) setReadyState(state camera.ReadyState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readyState = state
}

func (s *fakeSink) currentSource() camera.MediaStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// fireLoadedMetadata はリスナーが登録されていれば呼び出す
func (s *fakeSink) fireLoadedMetadata() bool {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// manualScheduler はRunが呼ばれるまで処理を保留するScheduler
type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *manualScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
}

func (s *manualScheduler) Run() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// callbackRecorder はコールバックの呼び出しを数える
type callbackRecorder struct {
	mu          sync.Mutex
	ready       int
	mountErrors []MountError
}

func (r *callbackRecorder) callbacks() Callbacks {
	return Callbacks{
		OnCameraReady: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ready++
		},
		OnMountError: func(e MountError) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.mountErrors = append(r.mountErrors, e)
		},
	}
}

func (r *callbackRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready, len(r.mountErrors)
}

// waitFor は条件が満たされるまで待つ
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
