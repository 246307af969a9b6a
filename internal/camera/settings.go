package camera

import "reflect"

// 認識される設定キー
const (
	SettingAutoFocus            = "autoFocus"
	SettingFlashMode            = "flashMode"
	SettingExposureCompensation = "exposureCompensation"
	SettingColorTemperature     = "colorTemperature"
	SettingISO                  = "iso"
	SettingBrightness           = "brightness"
	SettingContrast             = "contrast"
	SettingSaturation           = "saturation"
	SettingSharpness            = "sharpness"
	SettingFocusDistance        = "focusDistance"
	SettingWhiteBalance         = "whiteBalance"
	SettingZoom                 = "zoom"
)

// ValidSettingsKeys はデバイスに反映できる設定キーの一覧
var ValidSettingsKeys = []string{
	SettingAutoFocus,
	SettingFlashMode,
	SettingExposureCompensation,
	SettingColorTemperature,
	SettingISO,
	SettingBrightness,
	SettingContrast,
	SettingSaturation,
	SettingSharpness,
	SettingFocusDistance,
	SettingWhiteBalance,
	SettingZoom,
}

// IsValidSettingsKey はキーが認識される設定かどうかを返す
func IsValidSettingsKey(key string) bool {
	for _, k := range ValidSettingsKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Settings はカメラの能力設定（設定名→値）
type Settings map[string]interface{}

// DefaultSettings は初期の能力設定を返す
func DefaultSettings() Settings {
	return Settings{
		SettingAutoFocus:    "continuous",
		SettingFlashMode:    "off",
		SettingWhiteBalance: "continuous",
		SettingZoom:         1.0,
	}
}

// Clone は設定のコピーを返す
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge は変更分を上書きした新しい設定を返す
func (s Settings) Merge(changes Settings) Settings {
	out := s.Clone()
	for k, v := range changes {
		out[k] = v
	}
	return out
}

// Changes は認識されるキーのうち値が異なるものだけを返す
func (s Settings) Changes(next Settings) Settings {
	changes := Settings{}
	for key, value := range next {
		if !IsValidSettingsKey(key) {
			continue
		}
		value = NormalizeValue(value)
		if !reflect.DeepEqual(value, s[key]) {
			changes[key] = value
		}
	}
	return changes
}

// NormalizeValue は数値をfloat64に揃える
// JSON由来の値とGoの整数リテラルを同じ値として比較するため
func NormalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
