package appinfo

import (
	"reflect"
	"testing"
)

func TestRender(t *testing.T) {
	testCases := []struct {
		name string
		info *Info
		want *Display
	}{
		{
			name: "nilは表示しない",
			info: nil,
			want: nil,
		},
		{
			name: "すべての項目",
			info: &Info{
				AppName:     "kagami",
				AppVersion:  "1.2.0",
				AppIcon:     "https://example.com/icon.png",
				PackagerURL: "exp://192.168.1.2:19000/index.bundle?platform=web",
				Manifest:    &Manifest{IconURL: "https://example.com/manifest.png", SDKVersion: "39.0.0"},
			},
			want: &Display{
				Name:    "kagami",
				IconURL: "https://example.com/icon.png",
				HasIcon: true,
				Rows: []Row{
					{Name: "Version", Value: "1.2.0"},
					{Name: "Packager", Value: "192.168.1.2:19000"},
					{Name: "SDK", Value: "39.0.0"},
				},
			},
		},
		{
			name: "アプリ名なしとマニフェストのアイコン",
			info: &Info{
				AppVersion: "0.1.0",
				Manifest:   &Manifest{IconURL: "https://example.com/manifest.png"},
			},
			want: &Display{
				Name:    DefaultName,
				IconURL: "https://example.com/manifest.png",
				HasIcon: true,
				Rows:    []Row{{Name: "Version", Value: "0.1.0"}},
			},
		},
		{
			name: "アイコンなし、空の行は省略",
			info: &Info{AppName: "camera"},
			want: &Display{
				Name: "camera",
				Rows: []Row{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Render(tc.info)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Render() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPackagerHost(t *testing.T) {
	testCases := []struct {
		url  string
		want string
	}{
		{"http://localhost:8081", "localhost:8081"},
		{"https://example.com/path/to/bundle", "example.com"},
		{"localhost:8081/status", "localhost:8081"},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := PackagerHost(tc.url); got != tc.want {
			t.Errorf("PackagerHost(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
