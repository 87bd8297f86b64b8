package notification

import (
	"sync"
)

// Hub はユーザーIDごとのライブWebSocket接続を管理するレジストリ。
// 接続の登録・解除・列挙はすべてミューテックスで直列化される。
// 接続メンバーシップの唯一の管理者であり、他のコンポーネントは
// Hubを経由せずに接続集合を変更してはならない。
//
// 1ユーザーが複数の接続（複数タブ等）を持つことを許容する。
// 接続が0件になったユーザーのエントリは必ず削除されるため、
// エントリの存在チェックがそのままオンライン判定になる。
type Hub struct {
	// mu はconnsへの並行アクセスを保護するミューテックス。
	mu sync.RWMutex
	// conns はユーザーIDからその接続集合へのマッピング。
	conns map[string]map[*Conn]struct{}
}

// NewHub は新しい接続レジストリを生成する。
// プロセス起動時に1つだけ生成し、依存コンポーネントへ参照渡しする。
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[*Conn]struct{}),
	}
}

// Register は接続を所有ユーザーの接続集合に追加する。
// ユーザーのエントリが存在しない場合は新規作成する。
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.UserID()]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[c.UserID()] = set
	}
	set[c] = struct{}{}
}

// Unregister は接続を所有ユーザーの接続集合から削除する。
// 集合が空になった場合はユーザーのエントリ自体を削除する。
// 登録されていない接続の解除は何もしない（冪等）。クライアント起点の
// 切断とディスパッチャ起点のプルーニングが競合しても二重管理にならない。
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.UserID()]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, c.UserID())
	}
}

// ConnectionsFor は指定ユーザーの現在の接続集合のスナップショットを返す。
// 接続がない場合は空スライスを返す。スナップショットのため、呼び出し側は
// ロックを保持せずに安全にイテレートできる。
func (h *Hub) ConnectionsFor(userID string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.conns[userID]
	snapshot := make([]*Conn, 0, len(set))
	for c := range set {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// IsOnline は指定ユーザーが1つ以上のライブ接続を持つ場合にtrueを返す。
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns[userID]) > 0
}

// OnlineUsers は1つ以上のライブ接続を持つ全ユーザーIDのスナップショットを返す。
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.conns))
	for userID := range h.conns {
		users = append(users, userID)
	}
	return users
}
