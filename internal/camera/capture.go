package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// V4L2Capturer はシェルコマンドを使ってV4L2デバイスから画像を取得する
type V4L2Capturer struct {
	devicePath string
	width      int
	height     int
	fps        int
	quality    int
}

// NewV4L2Capturer は新しいV4L2Capturerを作成する
func NewV4L2Capturer(devicePath string, settings VideoSettings) *V4L2Capturer {
	quality := settings.Quality
	if quality <= 0 {
		quality = 3
	}
	return &V4L2Capturer{
		devicePath: devicePath,
		width:      settings.Width,
		height:     settings.Height,
		fps:        settings.FrameRate,
		quality:    quality,
	}
}

// IsDeviceAvailable はV4L2デバイスが利用可能かチェックする
func (c *V4L2Capturer) IsDeviceAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", c.devicePath, "--info")
	return cmd.Run() == nil
}

// CaptureFrameAsJPEG は1フレームをキャプチャしてJPEGバイト配列として返す
func (c *V4L2Capturer) CaptureFrameAsJPEG(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", c.width, c.height),
		"-i", c.devicePath,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2", // 高品質JPEG
		"-",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("JPEGフレームキャプチャに失敗: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// TestCapture はデバイステスト用の簡単なキャプチャ機能
func (c *V4L2Capturer) TestCapture(ctx context.Context) error {
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.CaptureFrameAsJPEG(testCtx)
	return err
}

// StartStream は連続キャプチャ用のストリームを開始する
// ctxがキャンセルされるとffmpegプロセスも終了する
func (c *V4L2Capturer) StartStream(ctx context.Context, frameChan chan<- []byte, errorChan chan<- error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", c.width, c.height),
		"-r", strconv.Itoa(c.fps),
		"-i", c.devicePath,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", strconv.Itoa(c.quality),
		"-",
	)
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sendError(ctx, errorChan, fmt.Errorf("stdoutパイプの作成に失敗: %w", err))
		return
	}

	if err := cmd.Start(); err != nil {
		sendError(ctx, errorChan, fmt.Errorf("ffmpegの起動に失敗: %w", err))
		return
	}

	go func() {
		defer func() {
			_ = cmd.Wait() // コンテキストキャンセル時にエラーになるため無視
		}()

		if err := splitJPEGStream(ctx, stdout, frameChan); err != nil {
			sendError(ctx, errorChan, err)
		}
	}()
}

// splitJPEGStream はMJPEGバイト列をSOI/EOIマーカーでフレームに分割する
func splitJPEGStream(ctx context.Context, r io.Reader, frameChan chan<- []byte) error {
	buffer := make([]byte, 1024*1024)
	frameBuffer := bytes.Buffer{}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := r.Read(buffer)
		if n > 0 {
			frameBuffer.Write(buffer[:n])
		}

		data := frameBuffer.Bytes()
		for {
			startIdx := bytes.Index(data, []byte{0xFF, 0xD8})
			if startIdx == -1 {
				break
			}

			endIdx := bytes.Index(data[startIdx+2:], []byte{0xFF, 0xD9})
			if endIdx == -1 {
				// 完全なフレームがまだない
				break
			}

			endIdx += startIdx + 2 + 2 // マーカーのサイズを含める
			frame := make([]byte, endIdx-startIdx)
			copy(frame, data[startIdx:endIdx])

			select {
			case frameChan <- frame:
			case <-ctx.Done():
				return nil
			}

			data = data[endIdx:]
		}

		remaining := make([]byte, len(data))
		copy(remaining, data)
		frameBuffer.Reset()
		frameBuffer.Write(remaining)

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("フレーム読み取りエラー: %w", err)
		}
	}
}

// ctrlLine は v4l2-ctl --list-ctrls の1行にマッチする
// 例: "brightness 0x00980900 (int)    : min=-64 max=64 step=1 default=0 value=0"
var ctrlLine = regexp.MustCompile(`^\s*([a-z0-9_]+)\s+0x[0-9a-f]+\s+\((\w+)\)\s*:(.*)$`)

// Control はV4L2コントロールの情報
type Control struct {
	Name  string
	Type  string
	Min   int
	Max   int
	Value int
}

// ListControls はデバイスがサポートするコントロールを取得する
func (c *V4L2Capturer) ListControls(ctx context.Context) (map[string]Control, error) {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", c.devicePath, "--list-ctrls")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("コントロール一覧の取得に失敗: %w", err)
	}
	return parseControls(output), nil
}

// parseControls は v4l2-ctl --list-ctrls の出力を解析する
func parseControls(output []byte) map[string]Control {
	controls := make(map[string]Control)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		m := ctrlLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		ctrl := Control{Name: m[1], Type: m[2]}
		for _, field := range strings.Fields(m[3]) {
			kv := strings.SplitN(field, "=", 2)
			if len(kv) != 2 {
				continue
			}
			n, err := strconv.Atoi(kv[1])
			if err != nil {
				continue
			}
			switch kv[0] {
			case "min":
				ctrl.Min = n
			case "max":
				ctrl.Max = n
			case "value":
				ctrl.Value = n
			}
		}
		controls[ctrl.Name] = ctrl
	}
	return controls
}

// SetControls はカメラのコントロール（明度、コントラストなど）を設定する
func (c *V4L2Capturer) SetControls(ctx context.Context, controls map[string]int) error {
	if len(controls) == 0 {
		return nil
	}

	args := []string{"--device", c.devicePath}
	for control, value := range controls {
		args = append(args, "--set-ctrl", fmt.Sprintf("%s=%d", control, value))
	}

	cmd := exec.CommandContext(ctx, "v4l2-ctl", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("コントロールの設定に失敗: %w (%s)", err, strings.TrimSpace(string(output)))
	}

	return nil
}

// sendError はエラーをチャンネルへ送る（満杯なら破棄）
func sendError(ctx context.Context, errorChan chan<- error, err error) {
	select {
	case errorChan <- err:
	case <-ctx.Done():
	default:
	}
}
