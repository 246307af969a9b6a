package camera

import (
	"errors"
	"fmt"
)

// CodedError はコード付きのエラー
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is はコードが一致すれば同一のエラーとみなす
func (e *CodedError) Is(target error) bool {
	var t *CodedError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// ErrCameraNotReady はシンクにフレームを構成できるだけのデータがない
var ErrCameraNotReady = &CodedError{
	Code:    "ERR_CAMERA_NOT_READY",
	Message: "video sink does not have enough camera data to construct an image yet",
}

// ErrNoDevice は利用可能なカメラデバイスがない
var ErrNoDevice = errors.New("利用可能なカメラデバイスがありません")

// AcquisitionError はストリーム取得の失敗を表す
type AcquisitionError struct {
	Type Type  // 要求されたカメラ種別
	Err  error // 原因
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("カメラ(%s)のストリーム取得に失敗: %v", e.Type, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}
