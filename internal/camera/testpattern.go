package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"
)

// testPatternControls は合成ソースが受け付けるコントロール
var testPatternControls = map[string]Control{
	"brightness":                 {Name: "brightness", Type: "int", Min: -64, Max: 64},
	"contrast":                   {Name: "contrast", Type: "int", Min: 0, Max: 100, Value: 50},
	"saturation":                 {Name: "saturation", Type: "int", Min: 0, Max: 100, Value: 50},
	"sharpness":                  {Name: "sharpness", Type: "int", Min: 0, Max: 10},
	"zoom_absolute":              {Name: "zoom_absolute", Type: "int", Min: 100, Max: 500, Value: 100},
	"white_balance_automatic":    {Name: "white_balance_automatic", Type: "bool", Min: 0, Max: 1, Value: 1},
	"white_balance_temperature":  {Name: "white_balance_temperature", Type: "int", Min: 2800, Max: 6500, Value: 4600},
	"focus_automatic_continuous": {Name: "focus_automatic_continuous", Type: "bool", Min: 0, Max: 1, Value: 1},
	"focus_absolute":             {Name: "focus_absolute", Type: "int", Min: 0, Max: 250},
	"torch":                      {Name: "torch", Type: "bool", Min: 0, Max: 1},
}

// TestPatternSource はハードウェアなしで動作する合成フレームソース
type TestPatternSource struct {
	device   string
	settings VideoSettings

	mu       sync.RWMutex
	controls map[string]int
}

// NewTestPatternSource は新しいTestPatternSourceを作成する
func NewTestPatternSource(device string, settings VideoSettings) *TestPatternSource {
	controls := make(map[string]int, len(testPatternControls))
	for name, ctrl := range testPatternControls {
		controls[name] = ctrl.Value
	}
	return &TestPatternSource{
		device:   device,
		settings: withDefaults(settings),
		controls: controls,
	}
}

// StartStream はフレームレート間隔で合成フレームを送る
func (s *TestPatternSource) StartStream(ctx context.Context, frameChan chan<- []byte, errorChan chan<- error) {
	interval := time.Second / time.Duration(s.settings.FrameRate)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var seq int
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				frame, err := s.render(seq)
				if err != nil {
					sendError(ctx, errorChan, err)
					continue
				}
				seq++

				select {
				case frameChan <- frame:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// ListControls はサポートされるコントロールを返す
func (s *TestPatternSource) ListControls(_ context.Context) (map[string]Control, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	controls := make(map[string]Control, len(testPatternControls))
	for name, ctrl := range testPatternControls {
		ctrl.Value = s.controls[name]
		controls[name] = ctrl
	}
	return controls, nil
}

// SetControls はコントロール値を設定する
func (s *TestPatternSource) SetControls(_ context.Context, controls map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, value := range controls {
		ctrl, ok := testPatternControls[name]
		if !ok {
			return fmt.Errorf("サポートされていないコントロール: %s", name)
		}
		if value < ctrl.Min || value > ctrl.Max {
			return fmt.Errorf("コントロール %s の値が範囲外: %d (%d-%d)", name, value, ctrl.Min, ctrl.Max)
		}
		s.controls[name] = value
	}
	return nil
}

// Control は現在のコントロール値を返す
func (s *TestPatternSource) Control(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.controls[name]
	return v, ok
}

// render は縦縞のグラデーションにbrightnessを反映したJPEGを生成する
func (s *TestPatternSource) render(seq int) ([]byte, error) {
	s.mu.RLock()
	brightness := s.controls["brightness"]
	torch := s.controls["torch"]
	s.mu.RUnlock()

	width, height := s.settings.Width, s.settings.Height
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	offset := seq % width

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := ((x + offset) * 255) / width
			v := clamp8(base + brightness)
			if torch == 1 {
				v = clamp8(v + 64)
			}
			img.Set(x, y, color.RGBA{R: uint8(v), G: uint8(y * 255 / height), B: uint8(255 - v), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("テストパターンのエンコードに失敗: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp8(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
