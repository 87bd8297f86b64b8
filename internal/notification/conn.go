package notification

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait は1回の送信に許容する最大時間。
const writeWait = 10 * time.Second

// wire は1本の双方向トランスポート接続への書き込み操作を抽象化する。
// *websocket.Conn がこのインターフェースを満たす。テストではフェイク実装を使う。
type wire interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Conn は1つのライブなクライアントセッションを表す。
// オープンしている間はHubのエントリが排他的に所有し、切断
// （明示的なクローズ、トランスポートエラー、送信失敗）で破棄される。
type Conn struct {
	// ws は下層のWebSocket接続。
	ws wire
	// userID は接続を所有するユーザーのID。
	userID string
	// connectedAt は接続が確立された日時。
	connectedAt time.Time
	// writeMu は同一接続への並行書き込みを直列化するミューテックス。
	writeMu sync.Mutex
}

// NewConn はWebSocketハンドシェイク成功後に接続を生成する。
func NewConn(ws wire, userID string) *Conn {
	return &Conn{
		ws:          ws,
		userID:      userID,
		connectedAt: time.Now(),
	}
}

// UserID は接続を所有するユーザーのIDを返す。
func (c *Conn) UserID() string {
	return c.userID
}

// ConnectedAt は接続が確立された日時を返す。
func (c *Conn) ConnectedAt() time.Time {
	return c.connectedAt
}

// Send はシリアライズ済みエンベロープをこの接続へ送信する。
// 失敗はエラーとして返され、呼び出し側（ディスパッチャ）が
// プルーニングを判断する。例外的な制御フローは使わない。
func (c *Conn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close は下層のトランスポート接続を閉じる。
func (c *Conn) Close() error {
	return c.ws.Close()
}
