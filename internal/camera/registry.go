package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry は検出されたカメラデバイスと向きの割り当てを管理する
type Registry struct {
	discovery Discovery
	facings   map[string]FacingMode // デバイスパス→向き
	devices   map[string]*Device    // ID→デバイス
	logger    *slog.Logger
	mu        sync.RWMutex

	// 制御用
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool

	// 自動検出設定
	autoDiscovery bool
	scanInterval  time.Duration
}

// NewRegistry は新しいRegistryを作成する
func NewRegistry(discovery Discovery, facings map[string]FacingMode, logger *slog.Logger) *Registry {
	if facings == nil {
		facings = make(map[string]FacingMode)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		discovery:     discovery,
		facings:       facings,
		devices:       make(map[string]*Device),
		logger:        logger,
		stopCh:        make(chan struct{}),
		autoDiscovery: true,
		scanInterval:  30 * time.Second, // 30秒間隔で自動スキャン
	}
}

// Start は初期スキャンを行い、バックグラウンドスキャンを開始する
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	if _, err := r.performDiscovery(ctx); err != nil {
		return fmt.Errorf("初期スキャンに失敗: %w", err)
	}

	if r.autoDiscovery && r.scanInterval > 0 {
		r.wg.Add(1)
		go r.backgroundScan(ctx, r.stopCh, r.scanInterval)
	}

	r.running = true
	return nil
}

// Stop はバックグラウンドスキャンを停止する
func (r *Registry) Stop(_ context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh := r.stopCh
	r.stopCh = make(chan struct{})
	r.running = false
	r.mu.Unlock()

	// スキャン中のゴルーチンがロックを取るため、ロック外で待つ
	close(stopCh)
	r.wg.Wait()
	return nil
}

// Devices は管理中のデバイス一覧をパス順で返す
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedDevices()
}

// Device は指定されたIDのデバイスを返す
func (r *Registry) Device(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, exists := r.devices[id]
	if !exists {
		return Device{}, false
	}
	return *device, true
}

// Find はカメラ種別に合うデバイスを選ぶ
// 一致する向きのデバイスがなければ最初のデバイスを返す（単一カメラの機器向け）
func (r *Registry) Find(t Type) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := r.sortedDevices()
	if len(devices) == 0 {
		return Device{}, ErrNoDevice
	}

	want := TypeToFacingMode(t)
	for _, device := range devices {
		if device.Facing == want {
			return device, nil
		}
	}
	return devices[0], nil
}

// DiscoverDevices はシステム内のカメラデバイスを再検出する
func (r *Registry) DiscoverDevices(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.performDiscovery(ctx)
}

// SetStatus はデバイスの状態を更新する
func (r *Registry) SetStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if device, exists := r.devices[id]; exists {
		device.Status = status
		device.LastSeen = time.Now()
	}
}

// SetAutoDiscovery は自動検出の有効/無効を設定する
func (r *Registry) SetAutoDiscovery(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoDiscovery = enabled
}

// SetScanInterval はスキャン間隔を設定する
func (r *Registry) SetScanInterval(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanInterval = interval
}

// performDiscovery は実際の検出処理を実行する（ロック済み前提）
func (r *Registry) performDiscovery(ctx context.Context) ([]string, error) {
	paths, err := r.discovery.ScanDevices(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]*Device, len(r.devices))
	for _, device := range r.devices {
		known[device.Path] = device
	}

	present := make(map[string]bool, len(paths))
	for _, path := range paths {
		present[path] = true

		if device, ok := known[path]; ok {
			device.LastSeen = time.Now()
			continue
		}

		info, err := r.discovery.GetDeviceInfo(ctx, path)
		if err != nil {
			r.logger.Warn("デバイス情報の取得に失敗", "device", path, "error", err)
			continue
		}

		device := &Device{
			ID:       uuid.New().String(),
			Name:     info.Name,
			Path:     path,
			Facing:   r.facings[path],
			Status:   StatusInactive,
			LastSeen: time.Now(),
		}
		r.devices[device.ID] = device
		r.logger.Info("カメラを検出しました", "device", path, "name", device.Name, "facing", device.Facing)
	}

	// 存在しなくなったデバイスを削除
	for id, device := range r.devices {
		if !present[device.Path] {
			delete(r.devices, id)
			r.logger.Info("カメラが取り外されました", "device", device.Path)
		}
	}

	return paths, nil
}

// sortedDevices はデバイスのコピーをパス順で返す（ロック済み前提）
func (r *Registry) sortedDevices() []Device {
	devices := make([]Device, 0, len(r.devices))
	for _, device := range r.devices {
		devices = append(devices, *device)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Path < devices[j].Path
	})
	return devices
}

// backgroundScan は定期的なデバイススキャンを実行する
func (r *Registry) backgroundScan(ctx context.Context, stopCh <-chan struct{}, interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			if _, err := r.performDiscovery(ctx); err != nil {
				r.logger.Warn("デバイスの再スキャンに失敗", "error", err)
			}
			r.mu.Unlock()
		}
	}
}

// StaticDiscovery は設定で与えられたデバイスをそのまま返すDiscovery
// 合成ソース利用時など、実デバイスを走査しない場合に使う
type StaticDiscovery struct {
	names map[string]string
	paths []string
}

// NewStaticDiscovery はパス→表示名の対応からStaticDiscoveryを作成する
func NewStaticDiscovery(names map[string]string) *StaticDiscovery {
	paths := make([]string, 0, len(names))
	for path := range names {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return &StaticDiscovery{names: names, paths: paths}
}

// ScanDevices は設定されたデバイスを返す
func (s *StaticDiscovery) ScanDevices(_ context.Context) ([]string, error) {
	paths := make([]string, len(s.paths))
	copy(paths, s.paths)
	return paths, nil
}

// IsDeviceAvailable は設定されたデバイスかどうかを返す
func (s *StaticDiscovery) IsDeviceAvailable(_ context.Context, device string) bool {
	_, ok := s.names[device]
	return ok
}

// GetDeviceInfo は設定された表示名でDeviceInfoを返す
func (s *StaticDiscovery) GetDeviceInfo(_ context.Context, device string) (*DeviceInfo, error) {
	name, ok := s.names[device]
	if !ok {
		return nil, fmt.Errorf("デバイスが見つかりません: %s", device)
	}
	if name == "" {
		name = device
	}
	return &DeviceInfo{
		Device:      device,
		Name:        name,
		Driver:      "static",
		Resolutions: []Resolution{{Width: 1280, Height: 720}},
		Formats:     []string{"MJPEG"},
	}, nil
}
