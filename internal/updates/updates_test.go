package updates

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"kagami/internal/camera"
)

// mockTarget は呼び出し順を記録するTarget
type mockTarget struct {
	calls     []string
	resumeErr error
	preferred camera.Type
}

func (m *mockTarget) Stop()              { m.calls = append(m.calls, "stop") }
func (m *mockTarget) ResetCapabilities() { m.calls = append(m.calls, "reset") }
func (m *mockTarget) PreferredType() camera.Type {
	return m.preferred
}

func (m *mockTarget) Resume(_ context.Context, preferred camera.Type) error {
	m.calls = append(m.calls, "resume:"+string(preferred))
	return m.resumeErr
}

func TestReloader(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		fromCache bool
		want      []string
	}{
		{
			name: "完全な再読み込み",
			want: []string{"stop", "reset", "resume:back"},
		},
		{
			name:      "キャッシュからの再読み込み",
			fromCache: true,
			want:      []string{"stop", "resume:back"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := &mockTarget{preferred: camera.TypeBack}
			reloader := New(target, nil)

			var err error
			if tc.fromCache {
				err = reloader.ReloadFromCache(ctx)
			} else {
				err = reloader.Reload(ctx)
			}
			if err != nil {
				t.Fatalf("予期しないエラーが発生しました: %v", err)
			}
			if !reflect.DeepEqual(target.calls, tc.want) {
				t.Errorf("calls = %v, want %v", target.calls, tc.want)
			}
		})
	}
}

// 再開が実行中の別の要求に破棄された場合も、停止だけで成功とはしない
func TestReloader_ResumeError(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("resume in progress")

	testCases := []struct {
		name   string
		reload func(r *Reloader) error
	}{
		{"完全な再読み込み", func(r *Reloader) error { return r.Reload(ctx) }},
		{"キャッシュからの再読み込み", func(r *Reloader) error { return r.ReloadFromCache(ctx) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := &mockTarget{preferred: camera.TypeFront, resumeErr: cause}

			if err := tc.reload(New(target, nil)); !errors.Is(err, cause) {
				t.Errorf("Expected wrapped resume error, got %v", err)
			}
			if target.calls[0] != "stop" {
				t.Errorf("Expected stop before resume, got %v", target.calls)
			}
		})
	}
}

func TestReloader_WithoutTarget(t *testing.T) {
	reloader := New(nil, nil)

	if reloader.Available() {
		t.Error("Expected reloader without target to be unavailable")
	}
	if err := reloader.Reload(context.Background()); err != nil {
		t.Errorf("Reload without target should be a no-op, got %v", err)
	}
	if err := reloader.ReloadFromCache(context.Background()); err != nil {
		t.Errorf("ReloadFromCache without target should be a no-op, got %v", err)
	}
}
