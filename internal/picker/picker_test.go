package picker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kagami/internal/camera"
)

type mockCapturer struct {
	picture *camera.Picture
	err     error
	opts    camera.PictureOptions
}

func (m *mockCapturer) CaptureAsync(opts camera.PictureOptions) (*camera.Picture, error) {
	m.opts = opts
	return m.picture, m.err
}

func encodeImage(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte, modTime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}
}

func TestImagePicker_LaunchCameraAsync(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	picture, err := camera.EncodePicture(encodeImage(t, "jpg", 16, 12), nil, camera.PictureOptions{Base64: true})
	if err != nil {
		t.Fatalf("EncodePicture failed: %v", err)
	}
	capturer := &mockCapturer{picture: picture}
	picker := New(capturer, dir, nil)

	quality := 0.7
	result, err := picker.LaunchCameraAsync(ctx, Options{Quality: &quality})
	if err != nil {
		t.Fatalf("LaunchCameraAsync failed: %v", err)
	}
	if result.Cancelled || result.Type != "image" || result.Width != 16 || result.Height != 12 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if result.Base64 != "" {
		t.Error("Expected base64 to be omitted unless requested")
	}
	if capturer.opts.Quality == nil || *capturer.opts.Quality != 0.7 {
		t.Errorf("Expected quality to be passed through, got %v", capturer.opts.Quality)
	}

	// ライブラリに保存される
	entries, err := picker.Library()
	if err != nil {
		t.Fatalf("Library failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != result.Name || entries[0].MimeType != "image/jpeg" {
		t.Fatalf("Expected the captured picture in the library, got %+v", entries)
	}
}

func TestImagePicker_LaunchCameraAsyncErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := New(nil, t.TempDir(), nil).LaunchCameraAsync(ctx, Options{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable without capturer, got %v", err)
	}

	capturer := &mockCapturer{err: camera.ErrCameraNotReady}
	if _, err := New(capturer, t.TempDir(), nil).LaunchCameraAsync(ctx, Options{}); !errors.Is(err, camera.ErrCameraNotReady) {
		t.Errorf("Expected ErrCameraNotReady to pass through, got %v", err)
	}
}

func TestImagePicker_Library(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeFile(t, dir, "old.jpg", encodeImage(t, "jpg", 4, 4), now.Add(-2*time.Hour))
	writeFile(t, dir, "new.png", encodeImage(t, "png", 8, 6), now.Add(-time.Hour))
	writeFile(t, dir, "notes.txt", []byte("not an image"), now)
	writeFile(t, dir, "fake.jpg", []byte("plain text named like a jpeg"), now)
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	picker := New(nil, dir, nil)

	entries, err := picker.Library()
	if err != nil {
		t.Fatalf("Library failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 images, got %d: %+v", len(entries), entries)
	}
	if entries[0].Name != "new.png" || entries[1].Name != "old.jpg" {
		t.Errorf("Expected newest first, got %s, %s", entries[0].Name, entries[1].Name)
	}

	testCases := []struct {
		name       string
		opts       Options
		wantName   string
		wantWidth  int
		wantPrefix string
	}{
		{"最新の画像", Options{}, "new.png", 8, "data:image/png;base64,"},
		{"名前を指定", Options{Name: "old.jpg", Base64: true}, "old.jpg", 4, "data:image/jpeg;base64,"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := picker.LaunchImageLibraryAsync(context.Background(), tc.opts)
			if err != nil {
				t.Fatalf("LaunchImageLibraryAsync failed: %v", err)
			}
			if result.Name != tc.wantName || result.Width != tc.wantWidth {
				t.Errorf("Unexpected result: %+v", result)
			}
			if !strings.HasPrefix(result.URI, tc.wantPrefix) {
				t.Errorf("URI prefix = %.30s, want %s", result.URI, tc.wantPrefix)
			}
			if (result.Base64 != "") != tc.opts.Base64 {
				t.Errorf("base64 presence = %v, want %v", result.Base64 != "", tc.opts.Base64)
			}
		})
	}
}

func TestImagePicker_LibraryEmptyAndMissing(t *testing.T) {
	ctx := context.Background()

	// 空のライブラリはキャンセル扱い
	picker := New(nil, filepath.Join(t.TempDir(), "missing"), nil)
	result, err := picker.LaunchImageLibraryAsync(ctx, Options{})
	if err != nil {
		t.Fatalf("LaunchImageLibraryAsync failed: %v", err)
	}
	if !result.Cancelled {
		t.Error("Expected cancelled result for empty library")
	}

	if _, err := picker.LaunchImageLibraryAsync(ctx, Options{Name: "nothing.jpg"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if _, _, err := picker.Open("../etc/passwd"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for path outside the library, got %v", err)
	}

	if _, err := New(nil, "", nil).LaunchImageLibraryAsync(ctx, Options{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable without library, got %v", err)
	}
}
