package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"kagami/internal/appinfo"
	"kagami/internal/camera"
	"kagami/internal/config"
	"kagami/internal/generated"
	"kagami/internal/picker"
	"kagami/internal/updates"
	"kagami/internal/webcam"

	"github.com/gin-gonic/gin"
)

// streamBuffer はストリーム配信でクライアントごとに保持するフレーム数
const streamBuffer = 4

// KagamiHandler は生成されたServerInterfaceを実装する
type KagamiHandler struct {
	config   *config.Config
	adapter  *webcam.Adapter
	sink     *camera.VideoSink
	registry *camera.Registry
	picker   *picker.ImagePicker
	reloader *updates.Reloader
	events   *EventHub
	sockets  *frameSocket
	logger   *slog.Logger

	// closing はシャットダウン開始時に閉じられ、配信中のストリームを終了させる
	closing chan struct{}
}

var _ generated.ServerInterface = (*KagamiHandler)(nil)

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *KagamiHandler) HealthCheck(c *gin.Context) {
	response := generated.HealthResponse{
		Status:    generated.Healthy,
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *KagamiHandler) GetStatus(c *gin.Context) {
	response := generated.StatusResponse{
		Status: generated.Running,
		Server: generated.ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
		},
		Camera:    h.cameraStatus(),
		Devices:   len(h.devices()),
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// GetAppInfo はアプリ情報エンドポイントの実装
func (h *KagamiHandler) GetAppInfo(c *gin.Context) {
	display := appinfo.Render(&h.config.App)

	rows := make([]generated.AppInfoRow, 0, len(display.Rows))
	for _, row := range display.Rows {
		rows = append(rows, generated.AppInfoRow{Name: row.Name, Value: row.Value})
	}

	response := generated.AppInfoResponse{
		Name:    display.Name,
		HasIcon: display.HasIcon,
		Rows:    rows,
	}
	if display.HasIcon {
		response.IconUrl = stringPtr(display.IconURL)
	}

	c.JSON(http.StatusOK, response)
}

// GetDevices はカメラデバイス一覧取得エンドポイントの実装
func (h *KagamiHandler) GetDevices(c *gin.Context, params generated.GetDevicesParams) {
	if params.Refresh != nil && *params.Refresh && h.registry != nil {
		if _, err := h.registry.DiscoverDevices(c.Request.Context()); err != nil {
			h.abortWithError(c, http.StatusInternalServerError, "discovery_failed",
				"カメラデバイスの検出に失敗しました", err.Error())
			return
		}
	}

	devices := h.devices()
	infos := make([]generated.DeviceInfo, 0, len(devices))
	for _, device := range devices {
		info := generated.DeviceInfo{
			Id:       device.ID,
			Name:     device.Name,
			Path:     device.Path,
			Status:   convertDeviceStatus(device.Status),
			LastSeen: device.LastSeen,
		}
		if device.Facing != "" {
			info.Facing = stringPtr(string(device.Facing))
		}
		infos = append(infos, info)
	}

	c.JSON(http.StatusOK, generated.DevicesResponse{Devices: infos})
}

// ResumeCamera はストリーム再開エンドポイントの実装
func (h *KagamiHandler) ResumeCamera(c *gin.Context) {
	var request generated.ResumeCameraJSONRequestBody
	if err := bindOptionalJSON(c, &request); err != nil {
		h.abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err.Error())
		return
	}

	preferred := h.adapter.PreferredType()
	if request.Type != nil {
		preferred = camera.Type(*request.Type)
	}

	if err := h.adapter.Resume(c.Request.Context(), preferred); err != nil {
		h.abortWithResumeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.cameraStatus())
}

// StopCamera はストリーム停止エンドポイントの実装
func (h *KagamiHandler) StopCamera(c *gin.Context) {
	h.adapter.Stop()
	c.JSON(http.StatusOK, h.cameraStatus())
}

// UpdateCameraSettings は設定更新エンドポイントの実装
func (h *KagamiHandler) UpdateCameraSettings(c *gin.Context) {
	var request generated.UpdateCameraSettingsJSONRequestBody
	if err := c.ShouldBindJSON(&request); err != nil {
		h.abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err.Error())
		return
	}

	changes := h.adapter.UpdateSettings(c.Request.Context(), camera.Settings(request))

	c.JSON(http.StatusOK, generated.SettingsResponse{
		Changes:      generated.CameraSettings(changes),
		Capabilities: generated.CameraSettings(h.adapter.Capabilities()),
	})
}

// CaptureCamera は静止画撮影エンドポイントの実装
func (h *KagamiHandler) CaptureCamera(c *gin.Context) {
	var request generated.CaptureCameraJSONRequestBody
	if err := bindOptionalJSON(c, &request); err != nil {
		h.abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err.Error())
		return
	}

	picture, err := h.adapter.CaptureAsync(convertPictureOptions(request))
	if err != nil {
		if errors.Is(err, camera.ErrCameraNotReady) {
			h.abortWithError(c, http.StatusServiceUnavailable, camera.ErrCameraNotReady.Code,
				camera.ErrCameraNotReady.Message, "")
			return
		}
		if errors.Is(err, camera.ErrInvalidPictureOptions) {
			h.abortWithError(c, http.StatusBadRequest, camera.ErrInvalidPictureOptions.Code,
				camera.ErrInvalidPictureOptions.Message, err.Error())
			return
		}
		h.abortWithError(c, http.StatusInternalServerError, "capture_failed", "撮影に失敗しました", err.Error())
		return
	}

	response := generated.Picture{
		Uri:    picture.URI,
		Width:  picture.Width,
		Height: picture.Height,
	}
	if picture.Base64 != "" {
		response.Base64 = stringPtr(picture.Base64)
	}
	if picture.Exif != nil {
		response.Exif = &picture.Exif
	}

	c.JSON(http.StatusOK, response)
}

// GetCameraStream はMJPEGストリーミングエンドポイントの実装
func (h *KagamiHandler) GetCameraStream(c *gin.Context) {
	if !h.canStream(c) {
		return
	}

	frames, unsubscribe := h.sink.Subscribe(streamBuffer)
	defer unsubscribe()

	// MJPEGストリーミングを配信
	h.streamMJPEG(c, frames)
}

// GetCameraWebSocket はWebSocketストリーミングエンドポイントの実装
func (h *KagamiHandler) GetCameraWebSocket(c *gin.Context) {
	if !h.canStream(c) {
		return
	}

	frames, unsubscribe := h.sink.Subscribe(streamBuffer)
	defer unsubscribe()

	h.sockets.serve(c, frames, h.closing)
}

// StreamCameraEvents はカメラのイベント配信エンドポイントの実装
func (h *KagamiHandler) StreamCameraEvents(c *gin.Context) {
	h.events.Serve(c)
}

// LaunchCamera は撮影してライブラリに保存するエンドポイントの実装
func (h *KagamiHandler) LaunchCamera(c *gin.Context) {
	var request generated.LaunchCameraJSONRequestBody
	if err := bindOptionalJSON(c, &request); err != nil {
		h.abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err.Error())
		return
	}

	result, err := h.picker.LaunchCameraAsync(c.Request.Context(), convertPickerOptions(request))
	if err != nil {
		h.abortWithPickerError(c, err)
		return
	}

	c.JSON(http.StatusOK, convertPickerResult(result))
}

// ListLibrary はライブラリ一覧エンドポイントの実装
func (h *KagamiHandler) ListLibrary(c *gin.Context) {
	entries, err := h.picker.Library()
	if err != nil {
		h.abortWithPickerError(c, err)
		return
	}

	images := make([]generated.LibraryImage, 0, len(entries))
	for _, entry := range entries {
		images = append(images, generated.LibraryImage{
			Name:     entry.Name,
			Size:     entry.Size,
			MimeType: entry.MimeType,
			ModTime:  entry.ModTime,
		})
	}

	c.JSON(http.StatusOK, generated.LibraryResponse{Images: images})
}

// LaunchImageLibrary はライブラリから画像を選ぶエンドポイントの実装
func (h *KagamiHandler) LaunchImageLibrary(c *gin.Context) {
	var request generated.LaunchImageLibraryJSONRequestBody
	if err := bindOptionalJSON(c, &request); err != nil {
		h.abortWithError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err.Error())
		return
	}

	result, err := h.picker.LaunchImageLibraryAsync(c.Request.Context(), convertPickerOptions(request))
	if err != nil {
		h.abortWithPickerError(c, err)
		return
	}

	c.JSON(http.StatusOK, convertPickerResult(result))
}

// GetLibraryImage はライブラリの画像を返すエンドポイントの実装
func (h *KagamiHandler) GetLibraryImage(c *gin.Context, name string) {
	data, mimeType, err := h.picker.Open(name)
	if err != nil {
		h.abortWithPickerError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, mimeType, data)
}

// Reload はカメラの再読み込みエンドポイントの実装
func (h *KagamiHandler) Reload(c *gin.Context) {
	if err := h.reloader.Reload(c.Request.Context()); err != nil {
		h.abortWithResumeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cameraStatus())
}

// ReloadFromCache は設定を保ったままの再読み込みエンドポイントの実装
func (h *KagamiHandler) ReloadFromCache(c *gin.Context) {
	if err := h.reloader.ReloadFromCache(c.Request.Context()); err != nil {
		h.abortWithResumeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cameraStatus())
}

// ヘルパー関数

// cameraStatus はアダプターの状態を変換する
func (h *KagamiHandler) cameraStatus() generated.CameraStatus {
	readyState := camera.HaveNothing
	if sink := h.adapter.Sink(); sink != nil {
		readyState = sink.ReadyState()
	}

	status := generated.CameraStatus{
		Type:          generated.CameraType(h.adapter.Type()),
		PreferredType: generated.CameraType(h.adapter.PreferredType()),
		Streaming:     h.adapter.Streaming(),
		Starting:      h.adapter.Starting(),
		ReadyState:    readyState.String(),
		Capabilities:  generated.CameraSettings(h.adapter.Capabilities()),
	}

	if settings, ok := h.adapter.StreamSettings(); ok {
		status.StreamSettings = convertTrackSettings(settings)
	}
	if mountErr := h.adapter.LastMountError(); mountErr != nil {
		status.LastMountError = stringPtr(mountErr.Error())
	}
	return status
}

// devices はレジストリのデバイス一覧を返す
func (h *KagamiHandler) devices() []camera.Device {
	if h.registry == nil {
		return nil
	}
	return h.registry.Devices()
}

// canStream はフレームを配信できる状態かを確認し、できなければエラーを返す
func (h *KagamiHandler) canStream(c *gin.Context) bool {
	if h.sink == nil || !h.adapter.Streaming() {
		h.abortWithError(c, http.StatusServiceUnavailable, "camera_not_active",
			"カメラがアクティブではありません", "")
		return false
	}
	return true
}

// abortWithError はエラーレスポンスを返して処理を中断する
func (h *KagamiHandler) abortWithError(c *gin.Context, status int, code, message, details string) {
	response := generated.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if details != "" {
		response.Details = stringPtr(details)
	}
	c.AbortWithStatusJSON(status, response)
}

// abortWithResumeError はストリーム取得の失敗をレスポンスにする
func (h *KagamiHandler) abortWithResumeError(c *gin.Context, err error) {
	if errors.Is(err, webcam.ErrClosed) {
		h.abortWithError(c, http.StatusServiceUnavailable, "adapter_closed", "カメラは終了済みです", "")
		return
	}
	if errors.Is(err, webcam.ErrResumeInProgress) {
		h.abortWithError(c, http.StatusConflict, "resume_in_progress", "カメラの再開処理が実行中です", "")
		return
	}
	h.abortWithError(c, http.StatusServiceUnavailable, "mount_error",
		"カメラのストリーム取得に失敗しました", err.Error())
}

// abortWithPickerError は画像選択の失敗をレスポンスにする
func (h *KagamiHandler) abortWithPickerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, picker.ErrUnavailable):
		h.abortWithError(c, http.StatusNotImplemented, picker.ErrUnavailable.Code, err.Error(), "")
	case errors.Is(err, picker.ErrInvalidName):
		h.abortWithError(c, http.StatusBadRequest, picker.ErrInvalidName.Code, picker.ErrInvalidName.Message, err.Error())
	case errors.Is(err, picker.ErrNotFound):
		h.abortWithError(c, http.StatusNotFound, picker.ErrNotFound.Code, picker.ErrNotFound.Message, "")
	case errors.Is(err, camera.ErrCameraNotReady):
		h.abortWithError(c, http.StatusServiceUnavailable, camera.ErrCameraNotReady.Code, camera.ErrCameraNotReady.Message, "")
	default:
		h.abortWithError(c, http.StatusInternalServerError, "picker_failed", "画像の取得に失敗しました", err.Error())
	}
}

// handleParamError は生成コードのパラメータ変換エラーを処理する
func (h *KagamiHandler) handleParamError(c *gin.Context, err error, status int) {
	h.abortWithError(c, status, "invalid_parameter", "パラメータが不正です", err.Error())
}

// bindOptionalJSON はJSONボディを読み込む。ボディが空なら何もしない
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// convertDeviceStatus はカメラステータスを変換する
func convertDeviceStatus(status camera.Status) generated.DeviceInfoStatus {
	switch status {
	case camera.StatusActive:
		return generated.Active
	case camera.StatusInactive:
		return generated.Inactive
	case camera.StatusError:
		return generated.Error
	default:
		return generated.Inactive
	}
}

func convertTrackSettings(settings camera.TrackSettings) *generated.TrackSettings {
	out := &generated.TrackSettings{
		DeviceId:  settings.DeviceID,
		Width:     settings.Width,
		Height:    settings.Height,
		FrameRate: settings.FrameRate,
	}
	if settings.GroupID != "" {
		out.GroupId = stringPtr(settings.GroupID)
	}
	if settings.FacingMode != "" {
		out.FacingMode = stringPtr(string(settings.FacingMode))
	}
	return out
}

func convertPictureOptions(request generated.PictureOptions) camera.PictureOptions {
	opts := camera.PictureOptions{Quality: request.Quality}
	if request.Base64 != nil {
		opts.Base64 = *request.Base64
	}
	if request.Exif != nil {
		opts.Exif = *request.Exif
	}
	if request.Scale != nil {
		opts.Scale = *request.Scale
	}
	if request.ImageType != nil {
		opts.ImageType = camera.ImageType(*request.ImageType)
	}
	if request.IsImageMirror != nil {
		opts.Mirror = *request.IsImageMirror
	}
	return opts
}

func convertPickerOptions(request generated.PickerOptions) picker.Options {
	opts := picker.Options{Quality: request.Quality}
	if request.Base64 != nil {
		opts.Base64 = *request.Base64
	}
	if request.Exif != nil {
		opts.Exif = *request.Exif
	}
	if request.Name != nil {
		opts.Name = *request.Name
	}
	return opts
}

func convertPickerResult(result *picker.Result) generated.PickerResult {
	response := generated.PickerResult{Cancelled: result.Cancelled}
	if result.Cancelled {
		return response
	}
	response.Uri = stringPtr(result.URI)
	response.Name = stringPtr(result.Name)
	response.Width = intPtr(result.Width)
	response.Height = intPtr(result.Height)
	response.Type = stringPtr(result.Type)
	if result.Base64 != "" {
		response.Base64 = stringPtr(result.Base64)
	}
	if result.Exif != nil {
		response.Exif = &result.Exif
	}
	return response
}

// stringPtr は文字列のポインタを返すヘルパー関数
func stringPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

// streamMJPEG はMJPEGストリームを配信する
func (h *KagamiHandler) streamMJPEG(c *gin.Context, frames <-chan []byte) {
	// レスポンスヘッダーを設定
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	// レスポンスライターを取得
	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
	flusher.Flush()

	// クライアント切断を検知するためのコンテキスト
	clientGone := c.Request.Context().Done()

	// ストリーミングループ
	for {
		select {
		case <-clientGone:
			// クライアントが切断された
			return

		case <-h.closing:
			return

		case frame, ok := <-frames:
			if !ok {
				// チャンネルがクローズされた
				return
			}

			// MJPEGフレームを書き込み
			_, err := writer.Write([]byte("--frame\r\n"))
			if err != nil {
				return
			}

			_, err = writer.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			if err != nil {
				return
			}

			_, err = writer.Write(frame)
			if err != nil {
				return
			}

			_, err = writer.Write([]byte("\r\n"))
			if err != nil {
				return
			}

			// バッファをフラッシュ
			flusher.Flush()
		}
	}
}
