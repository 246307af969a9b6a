package camera

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistry_Basic(t *testing.T) {
	ctx := context.Background()
	mockDiscovery := NewMockDiscovery([]string{"/dev/video0", "/dev/video1"})

	registry := NewRegistry(mockDiscovery, nil, nil)

	if err := registry.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = registry.Stop(ctx) }()

	devices := registry.Devices()
	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}

	// パス順で返ること
	if devices[0].Path != "/dev/video0" || devices[1].Path != "/dev/video1" {
		t.Errorf("Unexpected device order: %s, %s", devices[0].Path, devices[1].Path)
	}

	for _, device := range devices {
		if device.Status != StatusInactive {
			t.Errorf("Expected device %s to be inactive, got %s", device.ID, device.Status)
		}
		if device.ID == "" {
			t.Error("Expected device ID to be set")
		}
	}

	got, found := registry.Device(devices[0].ID)
	if !found {
		t.Fatal("Device not found by ID")
	}
	if got.Path != devices[0].Path {
		t.Errorf("Device path mismatch: expected %s, got %s", devices[0].Path, got.Path)
	}
}

func TestRegistry_Find(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		devices  []string
		facings  map[string]FacingMode
		request  Type
		wantPath string
		wantErr  error
	}{
		{
			name:     "向きが一致するデバイス",
			devices:  []string{"/dev/video0", "/dev/video2"},
			facings:  map[string]FacingMode{"/dev/video0": FacingModeUser, "/dev/video2": FacingModeEnvironment},
			request:  TypeBack,
			wantPath: "/dev/video2",
		},
		{
			name:     "前面カメラ",
			devices:  []string{"/dev/video0", "/dev/video2"},
			facings:  map[string]FacingMode{"/dev/video0": FacingModeUser, "/dev/video2": FacingModeEnvironment},
			request:  TypeFront,
			wantPath: "/dev/video0",
		},
		{
			name:     "単一カメラは向きに関係なく同じデバイス",
			devices:  []string{"/dev/video0"},
			request:  TypeBack,
			wantPath: "/dev/video0",
		},
		{
			name:    "デバイスなし",
			devices: []string{},
			request: TypeFront,
			wantErr: ErrNoDevice,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			registry := NewRegistry(NewMockDiscovery(tc.devices), tc.facings, nil)
			registry.SetAutoDiscovery(false)
			if err := registry.Start(ctx); err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			defer func() { _ = registry.Stop(ctx) }()

			device, err := registry.Find(tc.request)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			if device.Path != tc.wantPath {
				t.Errorf("Expected %s, got %s", tc.wantPath, device.Path)
			}
		})
	}
}

func TestRegistry_Rediscover(t *testing.T) {
	ctx := context.Background()
	mockDiscovery := NewMockDiscovery([]string{"/dev/video0"})

	registry := NewRegistry(mockDiscovery, nil, nil)
	registry.SetAutoDiscovery(false)
	if err := registry.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = registry.Stop(ctx) }()

	firstID := registry.Devices()[0].ID

	mockDiscovery.AddDevice("/dev/video1")
	if _, err := registry.DiscoverDevices(ctx); err != nil {
		t.Fatalf("DiscoverDevices failed: %v", err)
	}
	if len(registry.Devices()) != 2 {
		t.Fatalf("Expected 2 devices after addition, got %d", len(registry.Devices()))
	}

	// 既存デバイスのIDは維持される
	if _, found := registry.Device(firstID); !found {
		t.Error("Existing device should keep its ID")
	}

	mockDiscovery.RemoveDevice("/dev/video0")
	if _, err := registry.DiscoverDevices(ctx); err != nil {
		t.Fatalf("DiscoverDevices failed: %v", err)
	}
	devices := registry.Devices()
	if len(devices) != 1 || devices[0].Path != "/dev/video1" {
		t.Fatalf("Expected only /dev/video1 after removal, got %v", devices)
	}
}

func TestRegistry_BackgroundScan(t *testing.T) {
	ctx := context.Background()
	mockDiscovery := NewMockDiscovery([]string{})

	registry := NewRegistry(mockDiscovery, nil, nil)
	registry.SetScanInterval(10 * time.Millisecond)
	if err := registry.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	mockDiscovery.AddDevice("/dev/video0")

	deadline := time.Now().Add(2 * time.Second)
	for len(registry.Devices()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Background scan did not pick up the new device")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := registry.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// 二重停止は安全
	if err := registry.Stop(ctx); err != nil {
		t.Fatalf("Second Stop failed: %v", err)
	}
}

func TestRegistry_SetStatus(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(NewMockDiscovery([]string{"/dev/video0"}), nil, nil)
	registry.SetAutoDiscovery(false)
	if err := registry.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = registry.Stop(ctx) }()

	id := registry.Devices()[0].ID
	registry.SetStatus(id, StatusActive)

	device, _ := registry.Device(id)
	if device.Status != StatusActive {
		t.Errorf("Expected status active, got %s", device.Status)
	}
}
