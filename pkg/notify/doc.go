// Package notify はプロデューサーサービス（Issue・コメント・作業時間の
// 各サービス）が通知サービスを呼び出すためのクライアントを提供する。
//
// プロデューサーはドメイン書き込みのコミット後に対応するメソッドを
// ちょうど1回呼び出す。リアルタイム配信はfire-and-forgetであり、
// 配信失敗を理由にドメイン書き込みをロールバックしてはならない。
package notify
