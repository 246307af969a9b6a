package camera

import (
	"context"
	"fmt"
	"sort"
)

// SourceType はフレームソースの種類を定義
type SourceType string

const (
	// SourceTypeV4L2 はffmpeg/v4l2-ctl経由のV4L2デバイスを表す
	SourceTypeV4L2 SourceType = "v4l2"
	// SourceTypeTestPattern は合成テストパターンを表す
	SourceTypeTestPattern SourceType = "testpattern"
)

// FrameSource はストリームにJPEGフレームを供給する
type FrameSource interface {
	// StartStream はctxがキャンセルされるまでフレームを送り続ける
	StartStream(ctx context.Context, frameChan chan<- []byte, errorChan chan<- error)

	// ListControls はサポートされるコントロールを返す
	ListControls(ctx context.Context) (map[string]Control, error)

	// SetControls はコントロール値を設定する
	SetControls(ctx context.Context, controls map[string]int) error
}

// SourceCreator はソース作成関数の型
type SourceCreator func(device string, settings VideoSettings) (FrameSource, error)

// SourceFactory はソース作成ファクトリー
type SourceFactory struct {
	creators map[SourceType]SourceCreator
}

// NewSourceFactory は標準のソースを登録したファクトリーを作成する
func NewSourceFactory() *SourceFactory {
	factory := &SourceFactory{
		creators: make(map[SourceType]SourceCreator),
	}

	factory.Register(SourceTypeV4L2, func(device string, settings VideoSettings) (FrameSource, error) {
		if device == "" {
			return nil, fmt.Errorf("V4L2ソースの作成にはデバイスパスが必要です")
		}
		return NewV4L2Capturer(device, settings), nil
	})

	factory.Register(SourceTypeTestPattern, func(device string, settings VideoSettings) (FrameSource, error) {
		return NewTestPatternSource(device, settings), nil
	})

	return factory
}

// Register はソース作成関数を登録する
func (f *SourceFactory) Register(sourceType SourceType, creator SourceCreator) {
	f.creators[sourceType] = creator
}

// CreateSource はソースを作成する
func (f *SourceFactory) CreateSource(sourceType SourceType, device string, settings VideoSettings) (FrameSource, error) {
	creator, exists := f.creators[sourceType]
	if !exists {
		return nil, fmt.Errorf("サポートされていないソースタイプ: %s", sourceType)
	}

	return creator(device, withDefaults(settings))
}

// SupportedTypes はサポートされているソースタイプを返す
func (f *SourceFactory) SupportedTypes() []SourceType {
	types := make([]SourceType, 0, len(f.creators))
	for sourceType := range f.creators {
		types = append(types, sourceType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// withDefaults は未指定の値にデフォルトを入れる
func withDefaults(settings VideoSettings) VideoSettings {
	if settings.Width <= 0 {
		settings.Width = 1280
	}
	if settings.Height <= 0 {
		settings.Height = 720
	}
	if settings.FrameRate <= 0 {
		settings.FrameRate = 15
	}
	if settings.Quality <= 0 {
		settings.Quality = 3
	}
	return settings
}
