// Package appinfo は、アプリ情報を表示用の形に変換します。
package appinfo

import "regexp"

// DefaultName はアプリ名が未設定のときの表示名
const DefaultName = "Untitled project"

// Manifest はマニフェスト由来の情報
type Manifest struct {
	IconURL    string `json:"iconUrl" yaml:"icon_url" toml:"icon_url"`
	SDKVersion string `json:"sdkVersion" yaml:"sdk_version" toml:"sdk_version"`
}

// Info はアプリ情報
type Info struct {
	AppName     string    `json:"appName" yaml:"name" toml:"name"`
	AppVersion  string    `json:"appVersion" yaml:"version" toml:"version"`
	AppIcon     string    `json:"appIcon,omitempty" yaml:"icon" toml:"icon"`
	PackagerURL string    `json:"packagerUrl,omitempty" yaml:"packager_url" toml:"packager_url"`
	Manifest    *Manifest `json:"manifest,omitempty" yaml:"manifest" toml:"manifest"`
}

// Row は表示する1行（ラベルと値）
type Row struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Display は表示用のアプリ情報
type Display struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
	HasIcon bool   `json:"hasIcon"`
	Rows    []Row  `json:"rows"`
}

var (
	schemePattern = regexp.MustCompile(`^\w+://`)
	pathPattern   = regexp.MustCompile(`/.*$`)
)

// Render はアプリ情報を表示用に変換する。infoがnilならnilを返す
//
// アイコンはAppIcon、なければマニフェストのアイコンを使う。
// パッケージャーはホスト部分のみ表示し、値が空の行は含めない。
func Render(info *Info) *Display {
	if info == nil {
		return nil
	}

	display := &Display{
		Name: info.AppName,
		Rows: []Row{},
	}
	if display.Name == "" {
		display.Name = DefaultName
	}

	var sdkVersion string
	display.IconURL = info.AppIcon
	if info.Manifest != nil {
		if display.IconURL == "" {
			display.IconURL = info.Manifest.IconURL
		}
		sdkVersion = info.Manifest.SDKVersion
	}
	display.HasIcon = display.IconURL != ""

	display.addRow("Version", info.AppVersion)
	display.addRow("Packager", PackagerHost(info.PackagerURL))
	display.addRow("SDK", sdkVersion)

	return display
}

func (d *Display) addRow(name, value string) {
	if value == "" {
		return
	}
	d.Rows = append(d.Rows, Row{Name: name, Value: value})
}

// PackagerHost はURLからスキームとパスを取り除く
// 例: "http://192.168.1.2:8081/index.bundle" → "192.168.1.2:8081"
func PackagerHost(url string) string {
	host := schemePattern.ReplaceAllString(url, "")
	return pathPattern.ReplaceAllString(host, "")
}
