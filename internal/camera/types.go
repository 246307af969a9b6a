package camera

import (
	"context"
	"time"
)

// Status はカメラの動作状態を表す
type Status string

const (
	StatusInactive Status = "inactive" // カメラは停止中
	StatusActive   Status = "active"   // カメラは動作中
	StatusError    Status = "error"    // カメラでエラーが発生
)

// Type はカメラの向きの種別（front/back）を表す
type Type string

const (
	TypeFront   Type = "front"   // 前面（ユーザー側）カメラ
	TypeBack    Type = "back"    // 背面（環境側）カメラ
	TypeUnknown Type = "unknown" // 向きが判定できない
)

// IsValid は指定可能なカメラ種別かどうかを返す
func (t Type) IsValid() bool {
	return t == TypeFront || t == TypeBack
}

// FacingMode はトラックが報告する向き属性
type FacingMode string

const (
	FacingModeUser        FacingMode = "user"
	FacingModeEnvironment FacingMode = "environment"
	FacingModeLeft        FacingMode = "left"
	FacingModeRight       FacingMode = "right"
)

// FacingModeToType は向き属性をカメラ種別に変換する
func FacingModeToType(mode FacingMode) Type {
	switch mode {
	case FacingModeUser:
		return TypeFront
	case FacingModeEnvironment:
		return TypeBack
	default:
		return TypeUnknown
	}
}

// TypeToFacingMode はカメラ種別を向き属性に変換する
func TypeToFacingMode(t Type) FacingMode {
	if t == TypeBack {
		return FacingModeEnvironment
	}
	return FacingModeUser
}

// ReadyState はビデオシンクのデータ準備状態（HTMLMediaElement相当）
type ReadyState int

const (
	HaveNothing     ReadyState = iota // データなし
	HaveMetadata                      // メタデータ取得済み
	HaveCurrentData                   // 現在フレームあり
	HaveFutureData                    // 次フレームあり
	HaveEnoughData                    // 十分なデータあり
)

// String は準備状態の名前を返す
func (r ReadyState) String() string {
	switch r {
	case HaveMetadata:
		return "have_metadata"
	case HaveCurrentData:
		return "have_current_data"
	case HaveFutureData:
		return "have_future_data"
	case HaveEnoughData:
		return "have_enough_data"
	default:
		return "have_nothing"
	}
}

// TrackSettings はトラックの現在の設定値
type TrackSettings struct {
	DeviceID   string     `json:"deviceId"`
	GroupID    string     `json:"groupId,omitempty"`
	FacingMode FacingMode `json:"facingMode,omitempty"` // デスクトップ機では空
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	FrameRate  int        `json:"frameRate"`
}

// Map はexif用のマップ表現を返す
func (s TrackSettings) Map() map[string]interface{} {
	m := map[string]interface{}{
		"deviceId":  s.DeviceID,
		"width":     s.Width,
		"height":    s.Height,
		"frameRate": s.FrameRate,
	}
	if s.GroupID != "" {
		m["groupId"] = s.GroupID
	}
	if s.FacingMode != "" {
		m["facingMode"] = string(s.FacingMode)
	}
	return m
}

// MediaStreamTrack はストリーム内の1トラック
type MediaStreamTrack interface {
	ID() string
	Kind() string
	Label() string
	Settings() TrackSettings
	Stop()
}

// MediaStream は取得済みキャプチャデバイスへの参照
type MediaStream interface {
	ID() string
	Tracks() []MediaStreamTrack
}

// Sink はストリームを表示・保持するビデオシンク（video要素相当）
type Sink interface {
	ReadyState() ReadyState
	LatestFrame() ([]byte, bool)
	SetSource(ctx context.Context, stream MediaStream)
	// OnLoadedMetadata はメタデータ読み込み時のリスナーを登録し、解除関数を返す
	OnLoadedMetadata(fn func()) (remove func())
}

// Device は検出・管理されるカメラデバイス
type Device struct {
	ID       string     `json:"id"`       // デバイスの一意識別子
	Name     string     `json:"name"`     // 表示名
	Path     string     `json:"path"`     // デバイスパス（例: /dev/video0）
	Facing   FacingMode `json:"facing"`   // 設定された向き（不明なら空）
	Status   Status     `json:"status"`   // 現在の状態
	LastSeen time.Time  `json:"lastSeen"` // 最後に確認された時刻
}

// VideoSettings はストリームの取得設定
type VideoSettings struct {
	Width     int
	Height    int
	FrameRate int
	Quality   int // ffmpeg -q:v（2-31、小さいほど高品質）
}

// Discovery はカメラデバイスの検出機能を提供する
type Discovery interface {
	// ScanDevices はシステム内の利用可能なカメラデバイスをスキャンする
	ScanDevices(ctx context.Context) ([]string, error)

	// IsDeviceAvailable は指定されたデバイスが利用可能かチェックする
	IsDeviceAvailable(ctx context.Context, device string) bool

	// GetDeviceInfo はデバイスの詳細情報を取得する
	GetDeviceInfo(ctx context.Context, device string) (*DeviceInfo, error)
}

// DeviceInfo はカメラデバイスの詳細情報を表す
type DeviceInfo struct {
	Device      string       // デバイスパス
	Name        string       // デバイス名
	Driver      string       // ドライバー名
	Resolutions []Resolution // サポートされる解像度
	Formats     []string     // サポートされるフォーマット
}

// Resolution はカメラの解像度を表す
type Resolution struct {
	Width  int // 幅
	Height int // 高さ
}
