// Package camera カメラデバイスの抽象化層を担う
//
// # 責務
// - V4L2デバイスの自動検出と向き（user/environment）の割り当て
// - キャプチャストリームの取得・解放
// - 能力設定（ズーム、明度、トーチなど）のV4L2コントロールへの反映
// - ストリームとビデオシンクの接続、準備状態の管理
// - シンクの最新フレームからの静止画作成（拡大縮小・反転・エンコード）
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - webcamパッケージのアダプターに実デバイスを提供したい
// - ハードウェアなしで動作確認したい（testpatternソース）
//
// # 仕様
// - Registry: デバイスの検出と向きによる選択（一致しなければ先頭デバイス）
// - MediaDevices: ストリーム取得・解放・設定同期・撮影・比較
// - Stream: Start されるまでデバイスを開かない。Stop は冪等
// - VideoSink: 最初のフレームで HaveMetadata、規定枚数で HaveEnoughData
// - Thread-safe な操作をサポート
//
// # 前提要件
//   - v4l-utils: カメラ名の取得とデバイス制御に使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - ffmpeg: 画像キャプチャとストリーミングに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
