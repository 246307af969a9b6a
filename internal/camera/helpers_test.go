package camera

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"
)

// encodeTestJPEG は指定サイズの単色JPEGを生成する
func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / width), G: 128, B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

// fakeSource はテストからフレームを送り込めるFrameSource
type fakeSource struct {
	frames chan []byte

	mu       sync.Mutex
	started  int
	stopped  int
	controls map[string]int
	listErr  error
	setErr   error
	supports map[string]Control
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		frames:   make(chan []byte, 10),
		controls: make(map[string]int),
		supports: map[string]Control{
			"brightness":    {Name: "brightness", Min: -64, Max: 64},
			"zoom_absolute": {Name: "zoom_absolute", Min: 100, Max: 500},
			"torch":         {Name: "torch", Min: 0, Max: 1},
		},
	}
}

func (f *fakeSource) StartStream(ctx context.Context, frameChan chan<- []byte, _ chan<- error) {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()

	go func() {
		defer func() {
			f.mu.Lock()
			f.stopped++
			f.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-f.frames:
				select {
				case frameChan <- frame:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (f *fakeSource) ListControls(_ context.Context) (map[string]Control, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.supports, nil
}

func (f *fakeSource) SetControls(_ context.Context, controls map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	for k, v := range controls {
		f.controls[k] = v
	}
	return nil
}

func (f *fakeSource) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.stopped
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
