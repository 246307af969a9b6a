// Package picker は、カメラ撮影とライブラリからの画像選択を提供します。
//
// 撮影した画像はライブラリディレクトリに保存され、
// 後からライブラリとして選択できます。
package picker

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // DecodeConfig用
	_ "image/png"  // DecodeConfig用
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"kagami/internal/camera"
)

// ErrUnavailable はバックエンドがない操作
var ErrUnavailable = &camera.CodedError{Code: "ERR_UNAVAILABLE", Message: "not available on this platform"}

// ErrNotFound はライブラリに画像がない
var ErrNotFound = &camera.CodedError{Code: "ERR_NOT_FOUND", Message: "image not found in library"}

// ErrInvalidName はライブラリ外を指す画像名
var ErrInvalidName = &camera.CodedError{Code: "ERR_INVALID_NAME", Message: "invalid image name"}

func unavailable(method string) error {
	return &camera.CodedError{
		Code:    ErrUnavailable.Code,
		Message: fmt.Sprintf("ImagePicker.%s は利用できません", method),
	}
}

// Capturer は静止画を撮影できるもの
// *webcam.Adapter が実装する
type Capturer interface {
	CaptureAsync(opts camera.PictureOptions) (*camera.Picture, error)
}

// Options は選択/撮影オプション
type Options struct {
	Quality *float64 `json:"quality,omitempty"`
	Base64  bool     `json:"base64,omitempty"`
	Exif    bool     `json:"exif,omitempty"`
	// Name はライブラリから選ぶ画像名。空なら最新の画像
	Name string `json:"name,omitempty"`
}

// Result は選択/撮影の結果
type Result struct {
	Cancelled bool                   `json:"cancelled"`
	URI       string                 `json:"uri,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Width     int                    `json:"width,omitempty"`
	Height    int                    `json:"height,omitempty"`
	Type      string                 `json:"type,omitempty"`
	Base64    string                 `json:"base64,omitempty"`
	Exif      map[string]interface{} `json:"exif,omitempty"`
}

// Entry はライブラリ内の画像
type Entry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mimeType"`
	ModTime  time.Time `json:"modTime"`
}

// ImagePicker は撮影と画像選択を行う
type ImagePicker struct {
	capturer Capturer
	dir      string
	logger   *slog.Logger
}

// New は新しいImagePickerを作成する
// capturerがnilなら撮影、dirが空ならライブラリが利用できない
func New(capturer Capturer, dir string, logger *slog.Logger) *ImagePicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImagePicker{capturer: capturer, dir: dir, logger: logger}
}

// LaunchCameraAsync はカメラで撮影し、ライブラリに保存する
func (p *ImagePicker) LaunchCameraAsync(ctx context.Context, opts Options) (*Result, error) {
	if p.capturer == nil {
		return nil, unavailable("launchCameraAsync")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	picture, err := p.capturer.CaptureAsync(camera.PictureOptions{
		Quality:   opts.Quality,
		Base64:    true,
		Exif:      opts.Exif,
		ImageType: camera.ImageTypeJPG,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		URI:    picture.URI,
		Width:  picture.Width,
		Height: picture.Height,
		Type:   "image",
		Exif:   picture.Exif,
	}
	if opts.Base64 {
		result.Base64 = picture.Base64
	}

	if p.dir == "" {
		return result, nil
	}

	data, err := base64.StdEncoding.DecodeString(picture.Base64)
	if err != nil {
		return nil, fmt.Errorf("撮影画像のデコードに失敗: %w", err)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("ライブラリディレクトリの作成に失敗: %w", err)
	}

	name := uuid.New().String() + ".jpg"
	if err := os.WriteFile(filepath.Join(p.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("撮影画像の保存に失敗: %w", err)
	}
	result.Name = name

	p.logger.Info("撮影画像を保存しました", "name", name, "width", picture.Width, "height", picture.Height)
	return result, nil
}

// LaunchImageLibraryAsync はライブラリから画像を選ぶ
// 名前の指定がなければ最新の画像を選ぶ。画像がなければキャンセル扱い
func (p *ImagePicker) LaunchImageLibraryAsync(ctx context.Context, opts Options) (*Result, error) {
	if p.dir == "" {
		return nil, unavailable("launchImageLibraryAsync")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		entries, err := p.Library()
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return &Result{Cancelled: true}, nil
		}
		name = entries[0].Name
	}

	data, mimeType, err := p.Open(name)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	result := &Result{
		URI:    fmt.Sprintf("data:%s;base64,%s", mimeType, encoded),
		Name:   name,
		Width:  cfg.Width,
		Height: cfg.Height,
		Type:   "image",
	}
	if opts.Base64 {
		result.Base64 = encoded
	}
	return result, nil
}

// Library はライブラリ内の画像を新しい順に返す
func (p *ImagePicker) Library() ([]Entry, error) {
	if p.dir == "" {
		return nil, unavailable("library")
	}

	files, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("ライブラリの読み込みに失敗: %w", err)
	}

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		path := filepath.Join(p.dir, file.Name())
		mtype, err := mimetype.DetectFile(path)
		if err != nil || !isImage(mtype) {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:     file.Name(),
			Size:     info.Size(),
			MimeType: mtype.String(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].Name > entries[j].Name
		}
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}

// Open はライブラリの画像を読み込み、内容とMIMEタイプを返す
func (p *ImagePicker) Open(name string) ([]byte, string, error) {
	if p.dir == "" {
		return nil, "", unavailable("open")
	}
	if !validName(name) {
		return nil, "", fmt.Errorf("無効な画像名 %q: %w", name, ErrInvalidName)
	}

	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("画像の読み込みに失敗: %w", err)
	}

	mtype := mimetype.Detect(data)
	if !isImage(mtype) {
		return nil, "", ErrNotFound
	}
	return data, mtype.String(), nil
}

// validName はディレクトリ外を指さないファイル名かどうかを返す
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

func isImage(mtype *mimetype.MIME) bool {
	return mtype.Is("image/jpeg") || mtype.Is("image/png")
}
