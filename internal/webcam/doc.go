// Package webcam は、カメラストリームのライフサイクルを管理するアダプターです。
//
// このパッケージは、デバイス抽象化層（internal/camera）の上で
// ストリームハンドルの保持、能力設定の差分反映、
// カメラの向きの導出、静止画撮影を担当します。
//
// 責務:
//   - ストリームの取得と差し替え（Resume）、解放（Stop）
//   - 設定の差分計算とデバイスへの反映（UpdateSettings）
//   - ビデオシンクへのストリーム接続
//   - loadedmetadata 後の能力設定の再同期（次のフレームまで遅延）
//   - 準備完了/マウントエラーのコールバック通知
//
// 仕様:
//   - 同時に実行できるResumeは1つだけ。実行中の呼び出しは破棄される（キューイングしない）
//   - 同じデバイスのストリームを再取得した場合は差し替えない
//   - 設定の反映に失敗してもキャッシュは更新する
package webcam
