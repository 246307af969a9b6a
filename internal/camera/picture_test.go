package camera

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
)

func TestEncodePicture(t *testing.T) {
	frame := encodeTestJPEG(t, 40, 20)
	settings := &TrackSettings{DeviceID: "dev-1", FacingMode: FacingModeUser, Width: 40, Height: 20, FrameRate: 30}

	testCases := []struct {
		name       string
		opts       PictureOptions
		wantWidth  int
		wantHeight int
		wantPrefix string
		wantBase64 bool
		wantExif   bool
	}{
		{
			name:       "デフォルト",
			opts:       PictureOptions{},
			wantWidth:  40,
			wantHeight: 20,
			wantPrefix: "data:image/jpeg;base64,",
		},
		{
			name:       "縮小とPNG",
			opts:       PictureOptions{Scale: 0.5, ImageType: ImageTypePNG},
			wantWidth:  20,
			wantHeight: 10,
			wantPrefix: "data:image/png;base64,",
		},
		{
			name:       "base64とexif",
			opts:       PictureOptions{Base64: true, Exif: true, Quality: qualityOf(0.5)},
			wantWidth:  40,
			wantHeight: 20,
			wantPrefix: "data:image/jpeg;base64,",
			wantBase64: true,
			wantExif:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			picture, err := EncodePicture(frame, settings, tc.opts)
			if err != nil {
				t.Fatalf("EncodePicture failed: %v", err)
			}
			if picture.Width != tc.wantWidth || picture.Height != tc.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", picture.Width, picture.Height, tc.wantWidth, tc.wantHeight)
			}
			if !strings.HasPrefix(picture.URI, tc.wantPrefix) {
				t.Errorf("URI prefix = %.30s, want %s", picture.URI, tc.wantPrefix)
			}
			if (picture.Base64 != "") != tc.wantBase64 {
				t.Errorf("base64 presence = %v, want %v", picture.Base64 != "", tc.wantBase64)
			}
			if (picture.Exif != nil) != tc.wantExif {
				t.Errorf("exif presence = %v, want %v", picture.Exif != nil, tc.wantExif)
			}
			if tc.wantExif && picture.Exif["facingMode"] != "user" {
				t.Errorf("exif facingMode = %v, want user", picture.Exif["facingMode"])
			}
		})
	}
}

func TestEncodePicture_Mirror(t *testing.T) {
	// 左端だけ白い画像を作り、反転後に右端が白くなることを確認する
	src := image.NewRGBA(image.Rect(0, 0, 4, 1))
	src.Pix[0], src.Pix[1], src.Pix[2], src.Pix[3] = 255, 255, 255, 255
	for i := 4; i < len(src.Pix); i += 4 {
		src.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}

	picture, err := EncodePicture(buf.Bytes(), nil, PictureOptions{ImageType: ImageTypePNG, Mirror: true})
	if err != nil {
		t.Fatalf("EncodePicture failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(picture.URI, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png decode failed: %v", err)
	}

	r, _, _, _ := out.At(3, 0).RGBA()
	if r>>8 != 255 {
		t.Errorf("Expected mirrored white pixel at x=3, got r=%d", r>>8)
	}
	r, _, _, _ = out.At(0, 0).RGBA()
	if r>>8 != 0 {
		t.Errorf("Expected black pixel at x=0, got r=%d", r>>8)
	}
}

func TestEncodePicture_Errors(t *testing.T) {
	frame := encodeTestJPEG(t, 8, 8)

	if _, err := EncodePicture([]byte("plain text"), nil, PictureOptions{}); err == nil {
		t.Error("Expected error for non-image frame")
	}
	if _, err := EncodePicture(frame, nil, PictureOptions{ImageType: "gif"}); err == nil {
		t.Error("Expected error for unsupported image type")
	}
	if _, err := EncodePicture(frame, nil, PictureOptions{Scale: 0.01}); err == nil {
		t.Error("Expected error for empty output size")
	}
}

func qualityOf(q float64) *float64 { return &q }

// 拡大はフレームより大きなバッファを確保するため受け付けない
func TestEncodePicture_ScaleOutOfRange(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)

	for _, scale := range []float64{-0.5, 1.01, 30, 1e9} {
		picture, err := EncodePicture(frame, nil, PictureOptions{Scale: scale})
		if !errors.Is(err, ErrInvalidPictureOptions) {
			t.Errorf("scale %g: expected ErrInvalidPictureOptions, got %v", scale, err)
		}
		if picture != nil {
			t.Errorf("scale %g: expected no picture, got %dx%d", scale, picture.Width, picture.Height)
		}
	}

	picture, err := EncodePicture(frame, nil, PictureOptions{Scale: MaxPictureScale})
	if err != nil {
		t.Fatalf("EncodePicture failed at the maximum scale: %v", err)
	}
	if picture.Width != 64 || picture.Height != 48 {
		t.Errorf("size = %dx%d, want 64x48", picture.Width, picture.Height)
	}
}

func TestJPEGQuality(t *testing.T) {
	testCases := []struct {
		name    string
		quality *float64
		want    int
	}{
		{"未指定", nil, 92},
		{"最低品質", qualityOf(0), 1},
		{"中間", qualityOf(0.5), 50},
		{"最高品質", qualityOf(1), 100},
		{"範囲外", qualityOf(3), 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := jpegQuality(tc.quality); got != tc.want {
				t.Errorf("jpegQuality() = %d, want %d", got, tc.want)
			}
		})
	}
}

// 品質0は未指定と区別され、最も小さい出力になる
func TestEncodePicture_ZeroQuality(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)

	unset, err := EncodePicture(frame, nil, PictureOptions{})
	if err != nil {
		t.Fatalf("EncodePicture failed: %v", err)
	}
	lowest, err := EncodePicture(frame, nil, PictureOptions{Quality: qualityOf(0)})
	if err != nil {
		t.Fatalf("EncodePicture failed: %v", err)
	}
	if len(lowest.URI) >= len(unset.URI) {
		t.Errorf("Expected quality 0 to encode smaller than the default, got %d >= %d", len(lowest.URI), len(unset.URI))
	}
}

func TestEncodePicture_OnPictureSaved(t *testing.T) {
	frame := encodeTestJPEG(t, 8, 8)

	var saved *Picture
	picture, err := EncodePicture(frame, nil, PictureOptions{OnPictureSaved: func(p *Picture) { saved = p }})
	if err != nil {
		t.Fatalf("EncodePicture failed: %v", err)
	}
	if saved != picture {
		t.Error("Expected OnPictureSaved to receive the returned picture")
	}
}
