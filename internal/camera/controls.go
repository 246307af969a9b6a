package camera

import (
	"fmt"
	"math"
	"sort"
)

// controlCandidates は設定キーに対応するV4L2コントロール名（優先順）
// カーネルのバージョンによって名前が異なるため複数持つ
var controlCandidates = map[string][]string{
	SettingAutoFocus:            {"focus_automatic_continuous", "focus_auto"},
	SettingWhiteBalance:         {"white_balance_automatic", "white_balance_temperature_auto"},
	SettingColorTemperature:     {"white_balance_temperature"},
	SettingExposureCompensation: {"exposure_time_absolute", "exposure_absolute"},
	SettingISO:                  {"gain", "iso_sensitivity"},
	SettingBrightness:           {"brightness"},
	SettingContrast:             {"contrast"},
	SettingSaturation:           {"saturation"},
	SettingSharpness:            {"sharpness"},
	SettingFocusDistance:        {"focus_absolute"},
	SettingZoom:                 {"zoom_absolute"},
	SettingFlashMode:            {"torch", "led1_mode"},
}

// ControlPlan はV4L2コントロールへの変換結果
type ControlPlan struct {
	Controls    map[string]int // 設定するコントロール
	Unsupported []string       // デバイスが対応していない設定キー
}

// PlanControls は設定をデバイスが対応するコントロール値に変換する
// トーチは背面カメラのトラックにのみ適用する
func PlanControls(t Type, changes Settings, supported map[string]Control) (ControlPlan, error) {
	plan := ControlPlan{Controls: make(map[string]int)}

	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == SettingFlashMode && t == TypeFront {
			plan.Unsupported = append(plan.Unsupported, key)
			continue
		}

		name, ctrl, ok := findControl(key, supported)
		if !ok {
			plan.Unsupported = append(plan.Unsupported, key)
			continue
		}

		value, err := controlValue(key, changes[key], ctrl)
		if err != nil {
			return ControlPlan{}, err
		}
		plan.Controls[name] = value
	}

	return plan, nil
}

// findControl は設定キーに対応する最初のサポート済みコントロールを探す
func findControl(key string, supported map[string]Control) (string, Control, bool) {
	for _, name := range controlCandidates[key] {
		if ctrl, ok := supported[name]; ok {
			return name, ctrl, true
		}
	}
	return "", Control{}, false
}

// controlValue は設定値をコントロールの整数値に変換する
func controlValue(key string, value interface{}, ctrl Control) (int, error) {
	switch key {
	case SettingAutoFocus, SettingWhiteBalance:
		mode, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("%s は文字列で指定してください: %v", key, value)
		}
		switch mode {
		case "continuous", "auto", "on", "singleShot":
			return 1, nil
		case "manual", "off", "none":
			return 0, nil
		default:
			return 0, fmt.Errorf("無効な %s: %s", key, mode)
		}

	case SettingFlashMode:
		mode, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("%s は文字列で指定してください: %v", key, value)
		}
		if mode == "torch" {
			return clampControl(1, ctrl), nil
		}
		return 0, nil

	case SettingZoom:
		// zoomは倍率（1.0 = 等倍）で受け取り、最小値を等倍とみなす
		f, ok := NormalizeValue(value).(float64)
		if !ok {
			return 0, fmt.Errorf("%s は数値で指定してください: %v", key, value)
		}
		return clampControl(int(math.Round(float64(ctrl.Min)*f)), ctrl), nil

	default:
		f, ok := NormalizeValue(value).(float64)
		if !ok {
			return 0, fmt.Errorf("%s は数値で指定してください: %v", key, value)
		}
		return clampControl(int(math.Round(f)), ctrl), nil
	}
}

func clampControl(v int, ctrl Control) int {
	if ctrl.Min == 0 && ctrl.Max == 0 {
		return v
	}
	if v < ctrl.Min {
		return ctrl.Min
	}
	if v > ctrl.Max {
		return ctrl.Max
	}
	return v
}
