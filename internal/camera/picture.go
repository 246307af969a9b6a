package camera

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/gabriel-vasile/mimetype"
)

// ImageType は出力画像の形式
type ImageType string

const (
	ImageTypeJPG ImageType = "jpg"
	ImageTypePNG ImageType = "png"
)

// PictureOptions は撮影オプション
type PictureOptions struct {
	Quality   *float64  `json:"quality,omitempty"`   // 0-1（jpgのみ）。nilならDefaultJPEGQuality
	Base64    bool      `json:"base64,omitempty"`    // base64文字列を含める
	Exif      bool      `json:"exif,omitempty"`      // トラック設定をexifとして含める
	Scale     float64   `json:"scale,omitempty"`     // 出力倍率 (0-1]。0なら等倍
	ImageType ImageType `json:"imageType,omitempty"` // jpg / png
	Mirror    bool      `json:"isImageMirror,omitempty"`

	// OnPictureSaved は撮影結果を受け取るコールバック
	OnPictureSaved func(*Picture) `json:"-"`
}

// Picture は撮影結果
type Picture struct {
	URI    string                 `json:"uri"`
	Width  int                    `json:"width"`
	Height int                    `json:"height"`
	Base64 string                 `json:"base64,omitempty"`
	Exif   map[string]interface{} `json:"exif,omitempty"`
}

// DefaultJPEGQuality はQuality未指定時のJPEG品質
const DefaultJPEGQuality = 0.92

// MaxPictureScale は出力倍率の上限。フレームより大きな画像は作らない
const MaxPictureScale = 1.0

// ErrInvalidPictureOptions は撮影オプションが範囲外
var ErrInvalidPictureOptions = &CodedError{
	Code:    "ERR_INVALID_PICTURE_OPTIONS",
	Message: "picture options are out of range",
}

// EncodePicture はフレームを撮影オプションに従って変換する
func EncodePicture(frame []byte, settings *TrackSettings, opts PictureOptions) (*Picture, error) {
	if opts.Scale < 0 || opts.Scale > MaxPictureScale {
		return nil, fmt.Errorf("出力倍率 %g は範囲外です: %w", opts.Scale, ErrInvalidPictureOptions)
	}

	mtype := mimetype.Detect(frame)
	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") {
		return nil, fmt.Errorf("サポートされていないフレーム形式: %s", mtype.String())
	}

	src, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("フレームのデコードに失敗: %w", err)
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	bounds := src.Bounds()
	width := int(float64(bounds.Dx()) * scale)
	height := int(float64(bounds.Dy()) * scale)
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("無効な出力サイズ: %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	drawScaled(dst, src, opts.Mirror)

	var buf bytes.Buffer
	var mime string
	switch opts.ImageType {
	case ImageTypePNG:
		mime = "image/png"
		if err := png.Encode(&buf, dst); err != nil {
			return nil, fmt.Errorf("PNG エンコードに失敗: %w", err)
		}
	case ImageTypeJPG, "":
		mime = "image/jpeg"
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)}); err != nil {
			return nil, fmt.Errorf("JPEG エンコードに失敗: %w", err)
		}
	default:
		return nil, fmt.Errorf("サポートされていない画像形式: %s", opts.ImageType)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	picture := &Picture{
		URI:    fmt.Sprintf("data:%s;base64,%s", mime, encoded),
		Width:  width,
		Height: height,
	}
	if opts.Base64 {
		picture.Base64 = encoded
	}
	if opts.Exif && settings != nil {
		picture.Exif = settings.Map()
	}

	if opts.OnPictureSaved != nil {
		opts.OnPictureSaved(picture)
	}

	return picture, nil
}

// jpegQuality は0-1の品質を1-100に変換する
func jpegQuality(q *float64) int {
	value := DefaultJPEGQuality
	if q != nil {
		value = math.Max(0, math.Min(1, *q))
	}
	quality := int(math.Round(value * 100))
	if quality < 1 {
		quality = 1
	}
	return quality
}

// drawScaled はニアレストネイバー法でリサイズしながら描画する
func drawScaled(dst *image.RGBA, src image.Image, mirror bool) {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()
	dstWidth := dst.Bounds().Dx()
	dstHeight := dst.Bounds().Dy()

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := x * srcWidth / dstWidth
			srcY := y * srcHeight / dstHeight
			dx := x
			if mirror {
				dx = dstWidth - 1 - x
			}
			dst.Set(dx, y, src.At(srcBounds.Min.X+srcX, srcBounds.Min.Y+srcY))
		}
	}
}
