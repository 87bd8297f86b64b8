// Package notification はリアルタイム通知配信サービスの内部実装を提供する。
//
// ユーザーごとのライブWebSocket接続を管理するHub、ドメインイベントを
// ライブ接続へファンアウトするDispatcher、接続状態と独立した永続通知
// レコードを管理するStoreの3つで構成される。プッシュ配信はベスト
// エフォートであり、オフラインのクライアントはREST APIでStoreを
// プルして未達分を取得する。
package notification
