// 通知サービスのエントリポイント。
// WebSocketによるリアルタイム通知配信と、永続化された通知履歴の
// プル用REST APIを提供する。Issue・コメント・作業時間の各サービスが
// ドメイン書き込みのコミット後に内部APIを通じてイベントを送信する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/issuehub/internal/notification"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8086"
	}

	server, err := notification.NewServer(port)
	if err != nil {
		log.Fatalf("通知サーバーの初期化に失敗: %v", err)
	}

	log.Printf("通知サービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("通知サービスの起動に失敗: %v", err)
	}
}
