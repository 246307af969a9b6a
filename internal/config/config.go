package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"kagami/internal/appinfo"
	"kagami/internal/camera"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Camera  CameraConfig  `yaml:"camera" toml:"camera"`
	Library LibraryConfig `yaml:"library" toml:"library"`
	App     appinfo.Info  `yaml:"app" toml:"app"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host" toml:"host"` // リッスンするホスト
	Port int    `yaml:"port" toml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  Duration `yaml:"read_timeout" toml:"read_timeout"`   // 読み込みタイムアウト
	WriteTimeout Duration `yaml:"write_timeout" toml:"write_timeout"` // 書き込みタイムアウト

	// ValidateRequests はOpenAPI定義によるリクエスト検証を有効にする
	ValidateRequests bool `yaml:"validate_requests" toml:"validate_requests"`

	// AllowedOrigins はWebSocket接続を許可する他のオリジン ("*" で全て)
	// 同一オリジンは常に許可される
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// CameraConfig はカメラ関連の設定
type CameraConfig struct {
	// Source はフレームソースの種類 (v4l2 / testpattern)
	Source string `yaml:"source" toml:"source"`

	// 固定のデバイス一覧。空ならV4L2デバイスを自動検出する
	Devices []CameraDevice `yaml:"devices" toml:"devices"`

	// デバイスの再スキャン間隔
	ScanInterval Duration `yaml:"scan_interval" toml:"scan_interval"`

	// 起動時に開くカメラの向き (front / back)
	PreferredType string `yaml:"preferred_type" toml:"preferred_type"`

	// デフォルト設定
	DefaultFPS     int `yaml:"default_fps" toml:"default_fps"`         // フレームレート (fps)
	DefaultWidth   int `yaml:"default_width" toml:"default_width"`     // 画像幅
	DefaultHeight  int `yaml:"default_height" toml:"default_height"`   // 画像高さ
	DefaultQuality int `yaml:"default_quality" toml:"default_quality"` // ffmpegのJPEG品質 (2-31)

	// ReadyFrames は撮影可能とみなすまでに受信するフレーム数
	ReadyFrames int `yaml:"ready_frames" toml:"ready_frames"`

	// SyncFrameRate はloadedmetadata後の再同期を待つフレームのレート
	SyncFrameRate int `yaml:"sync_frame_rate" toml:"sync_frame_rate"`
}

// CameraDevice は個別カメラの設定
type CameraDevice struct {
	Name   string `yaml:"name" toml:"name"`     // カメラ名
	Device string `yaml:"device" toml:"device"` // デバイスパス (例: /dev/video0)
	Facing string `yaml:"facing" toml:"facing"` // 向き (user / environment)
}

// LibraryConfig は画像ライブラリの設定
type LibraryConfig struct {
	Dir string `yaml:"dir" toml:"dir"` // 撮影画像の保存先。空なら保存しない
}

// LogConfig はログの設定
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug / info / warn / error
	Format string `yaml:"format" toml:"format"` // text / json
}

// Duration は "30s" のような文字列で設定できる時間
type Duration time.Duration

// UnmarshalText は文字列から時間を読み込む
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("無効な時間: %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText は時間を文字列にする
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std はtime.Durationを返す
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      Duration(10 * time.Second),
			WriteTimeout:     0, // ストリーミング用にタイムアウト無効化
			ValidateRequests: true,
		},
		Camera: CameraConfig{
			Source:         string(camera.SourceTypeV4L2),
			Devices:        []CameraDevice{},
			ScanInterval:   Duration(30 * time.Second),
			PreferredType:  string(camera.TypeBack),
			DefaultFPS:     15,
			DefaultWidth:   1280,
			DefaultHeight:  720,
			DefaultQuality: 3,
			ReadyFrames:    3,
			SyncFrameRate:  60,
		},
		App: appinfo.Info{
			AppName:    "kagami",
			AppVersion: "dev",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load は設定を読み込む
// KAGAMI_CONFIG が指定されていれば設定ファイルを読み込み、環境変数で上書きする
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("KAGAMI_CONFIG"))
}

// LoadFrom は指定された設定ファイルを読み込む。pathが空ならデフォルト設定を使う
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	cfg.applyEnv()

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// loadFile は拡張子に応じて設定ファイルを読み込む
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("YAMLの解析に失敗: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("TOMLの解析に失敗: %w", err)
		}
	default:
		return fmt.Errorf("サポートされていない設定ファイル形式: %s", path)
	}
	return nil
}

// applyEnv は環境変数で設定を上書きする
func (c *Config) applyEnv() {
	c.Server.Host = getEnvOrDefault("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsIntOrDefault("PORT", c.Server.Port)
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Camera.Source = getEnvOrDefault("KAGAMI_SOURCE", c.Camera.Source)
	c.Library.Dir = getEnvOrDefault("KAGAMI_LIBRARY_DIR", c.Library.Dir)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	// カメラ設定の検証
	switch camera.SourceType(c.Camera.Source) {
	case camera.SourceTypeV4L2, camera.SourceTypeTestPattern:
	default:
		return fmt.Errorf("無効なソースタイプ: %q", c.Camera.Source)
	}

	if c.Camera.PreferredType != "" && !camera.Type(c.Camera.PreferredType).IsValid() {
		return fmt.Errorf("無効なカメラの向き: %q", c.Camera.PreferredType)
	}

	seen := make(map[string]bool, len(c.Camera.Devices))
	for i, device := range c.Camera.Devices {
		if device.Device == "" {
			return fmt.Errorf("カメラ %d のデバイスパスが設定されていません", i)
		}
		if seen[device.Device] {
			return fmt.Errorf("デバイスパスが重複しています: %s", device.Device)
		}
		seen[device.Device] = true

		switch camera.FacingMode(device.Facing) {
		case "", camera.FacingModeUser, camera.FacingModeEnvironment, camera.FacingModeLeft, camera.FacingModeRight:
		default:
			return fmt.Errorf("カメラ %s の向きが無効です: %q", device.Device, device.Facing)
		}
	}

	if c.Camera.ScanInterval < 0 {
		return fmt.Errorf("無効なスキャン間隔: %s", c.Camera.ScanInterval.Std())
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("無効なログ形式: %q", c.Log.Format)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// VideoSettings はカメラのデフォルト設定を返す
func (c *Config) VideoSettings() camera.VideoSettings {
	return camera.VideoSettings{
		Width:     c.Camera.DefaultWidth,
		Height:    c.Camera.DefaultHeight,
		FrameRate: c.Camera.DefaultFPS,
		Quality:   c.Camera.DefaultQuality,
	}
}

// Facings はデバイスパスから向きへの対応を返す
func (c *Config) Facings() map[string]camera.FacingMode {
	facings := make(map[string]camera.FacingMode, len(c.Camera.Devices))
	for _, device := range c.Camera.Devices {
		if device.Facing != "" {
			facings[device.Device] = camera.FacingMode(device.Facing)
		}
	}
	return facings
}

// DeviceNames はデバイスパスから表示名への対応を返す
func (c *Config) DeviceNames() map[string]string {
	names := make(map[string]string, len(c.Camera.Devices))
	for _, device := range c.Camera.Devices {
		names[device.Device] = device.Name
	}
	return names
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
