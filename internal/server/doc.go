// Package server は、HTTPサーバーとWebSocket通信を管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// カメラのストリーム配信、静的ファイルの配信を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - カメラアダプターの操作 (再開・停止・設定・撮影)
//   - MJPEGとWebSocketによるフレーム配信
//   - Server-Sent Eventsによるカメライベントの配信
//   - ビューアーページ（HTML/CSS/JS）の配信
//
// 仕様:
//   - ルーティングはginを使用し、OpenAPI定義から生成したインターフェースを実装する
//   - リクエストはOpenAPI定義で検証する (kin-openapi)
//   - WebSocketはgorilla/websocketを使用
//   - グレースフルシャットダウンに対応
//   - 複数クライアントの同時接続をサポート
package server
