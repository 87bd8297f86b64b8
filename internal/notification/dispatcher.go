package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nao1215/issuehub/pkg/event"
)

// queueCapacity はディスパッチャの配信キューの容量。
// キューが満杯の場合、新しいインテントは破棄される（ベストエフォート配信）。
const queueCapacity = 256

// Envelope はWebSocket経由でクライアントへプッシュされる一時的なメッセージ。
// プッシュ試行の間だけ存在し、永続化されない。永続的な通知履歴はStoreが持つ。
type Envelope struct {
	// Type はイベントの種類。
	Type event.Type `json:"type"`
	// Data はイベント種類ごとのペイロード。
	Data map[string]any `json:"data"`
	// UserID は配信先ユーザーのID。
	UserID string `json:"user_id"`
	// Timestamp はエンベロープの生成日時（RFC3339形式）。
	Timestamp time.Time `json:"timestamp"`
}

// delivery はキューに積まれる1件のファンアウト対象。
type delivery struct {
	// recipients は重複とアクターを除去済みの配信先ユーザーIDリスト。
	recipients []string
	// eventType はイベントの種類。
	eventType event.Type
	// data はエンベロープに載せるペイロード。
	data map[string]any
}

// Dispatcher はドメインイベントをエンベロープへ変換し、Hubを通じて
// 対象ユーザーのライブ接続へプッシュする。
//
// プロデューサーはインテントをキューへ積むだけで、配信の完了を待たない。
// 配信の成否はプロデューサーへ返されない。オフラインユーザーへの配信は
// 何もせず成功扱いとなる。未達分の履歴はStoreをプルして取得する。
type Dispatcher struct {
	// hub は配信先接続の解決に使用するレジストリ。
	hub *Hub
	// queue はプロデューサーから積まれる配信インテントのキュー。
	queue chan delivery
	// cancel はバックグラウンドゴルーチンを停止するためのキャンセル関数。
	cancel context.CancelFunc
}

// NewDispatcher は新しいディスパッチャを生成する。
// プロセス起動時に1つだけ生成し、Hubと同様に参照渡しで共有する。
func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{
		hub:   hub,
		queue: make(chan delivery, queueCapacity),
	}
}

// Start はバックグラウンドで配信キューの消費を開始する。
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go func() {
		log.Println("Dispatcher: 配信キューの消費を開始します")
		for {
			select {
			case <-ctx.Done():
				log.Println("Dispatcher: 配信キューの消費を停止しました")
				return
			case job := <-d.queue:
				d.deliverToUsers(job.recipients, job.eventType, job.data)
			}
		}
	}()
}

// Stop はバックグラウンドの配信処理を停止する。
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

// NotifyIssueAssigned はIssueが担当者へ割り当てられた際の通知を配信する。
func (d *Dispatcher) NotifyIssueAssigned(issueID, assigneeID, issueTitle, assignedBy string) {
	d.enqueue([]string{assigneeID}, event.TypeIssueAssigned, map[string]any{
		"title":       "Issueが割り当てられました",
		"message":     fmt.Sprintf("Issue「%s」が%sによってあなたに割り当てられました", issueTitle, assignedBy),
		"issue_id":    issueID,
		"assigned_by": assignedBy,
	})
}

// NotifyIssueUpdated はIssueのフィールド更新時の通知を配信する。
// changesの順序がそのまま変更サマリーの表示順になる。
func (d *Dispatcher) NotifyIssueUpdated(issueID string, recipientIDs []string, actorID, issueTitle, updatedBy string, changes []event.FieldChange) {
	summary := changeSummary(changes)
	d.enqueue(recipients(recipientIDs, actorID), event.TypeIssueUpdated, map[string]any{
		"title":      "Issueが更新されました",
		"message":    fmt.Sprintf("Issue「%s」が%sによって更新されました。変更内容: %s", issueTitle, updatedBy, summary),
		"issue_id":   issueID,
		"updated_by": updatedBy,
		"changes":    changes,
	})
}

// NotifyCommentAdded はコメント追加時の通知を配信する。
// コメント本文は100文字のプレビューに切り詰められる。
func (d *Dispatcher) NotifyCommentAdded(issueID string, recipientIDs []string, actorID, issueTitle, commentAuthor, commentBody string) {
	preview := truncatePreview(commentBody)
	d.enqueue(recipients(recipientIDs, actorID), event.TypeCommentAdded, map[string]any{
		"title":           "新しいコメント",
		"message":         fmt.Sprintf("%sが「%s」にコメントしました: %s", commentAuthor, issueTitle, preview),
		"issue_id":        issueID,
		"comment_author":  commentAuthor,
		"comment_preview": preview,
	})
}

// NotifyMention はコメント内でメンションされたユーザーへの通知を配信する。
func (d *Dispatcher) NotifyMention(mentionedUserID, issueID, issueTitle, mentionedBy, commentBody string) {
	preview := truncatePreview(commentBody)
	d.enqueue([]string{mentionedUserID}, event.TypeMention, map[string]any{
		"title":           "メンションされました",
		"message":         fmt.Sprintf("%sが「%s」であなたをメンションしました: %s", mentionedBy, issueTitle, preview),
		"issue_id":        issueID,
		"mentioned_by":    mentionedBy,
		"comment_preview": preview,
	})
}

// NotifyTimeLogged は作業時間記録時の通知を配信する。
func (d *Dispatcher) NotifyTimeLogged(issueID string, recipientIDs []string, actorID, issueTitle, loggedBy string, hours float64) {
	d.enqueue(recipients(recipientIDs, actorID), event.TypeTimeLogged, map[string]any{
		"title":     "作業時間が記録されました",
		"message":   fmt.Sprintf("%sが「%s」に%g時間を記録しました", loggedBy, issueTitle, hours),
		"issue_id":  issueID,
		"logged_by": loggedBy,
		"hours":     hours,
	})
}

// enqueue は配信インテントをキューへ積む。プロデューサーをブロックしない。
// キューが満杯の場合はインテントを破棄してログに記録する。
func (d *Dispatcher) enqueue(recipientIDs []string, eventType event.Type, data map[string]any) {
	if len(recipientIDs) == 0 {
		return
	}

	select {
	case d.queue <- delivery{recipients: recipientIDs, eventType: eventType, data: data}:
	default:
		log.Printf("Dispatcher: 配信キューが満杯のため %s イベントを破棄しました", eventType)
	}
}

// deliverToUsers は各配信先ユーザーへ独立して配信する。
// あるユーザーへの配信失敗は他のユーザーへの配信に影響しない。
func (d *Dispatcher) deliverToUsers(userIDs []string, eventType event.Type, data map[string]any) {
	for _, userID := range userIDs {
		d.deliverToUser(userID, eventType, data)
	}
}

// deliverToUser は指定ユーザーの全ライブ接続へエンベロープを配信する。
//
// 接続集合のスナップショットを取得してから送信するため、送信中は
// Hubのロックを保持しない。送信に失敗した接続は送信パス完了後に
// まとめてレジストリから解除する（遅延プルーニング）。接続が0件の
// 場合は何もしない。リトライやキューイングは行わない。
func (d *Dispatcher) deliverToUser(userID string, eventType event.Type, data map[string]any) {
	conns := d.hub.ConnectionsFor(userID)
	if len(conns) == 0 {
		return
	}

	envelope := Envelope{
		Type:      eventType,
		Data:      data,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("Dispatcher: エンベロープのシリアライズに失敗: %v", err)
		return
	}

	var dead []*Conn
	for _, c := range conns {
		if err := c.Send(payload); err != nil {
			log.Printf("Dispatcher: user %s への送信に失敗: %v", userID, err)
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		d.hub.Unregister(c)
		_ = c.Close() //nolint:errcheck
	}
}

// recipients は配信先リストから重複とアクター（イベントを起こした本人）を
// 除去する。元の順序を保持する。
func recipients(recipientIDs []string, actorID string) []string {
	seen := make(map[string]struct{}, len(recipientIDs))
	result := make([]string, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if id == "" || id == actorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// changeSummary はフィールド変更のリストを人間が読めるサマリーへ変換する。
// 形式: "field: old → new" をカンマ区切りで連結する。
func changeSummary(changes []event.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, fmt.Sprintf("%s: %s → %s", ch.Field, ch.Old, ch.New))
	}
	return strings.Join(parts, ", ")
}

// previewLimit はコメントプレビューの最大文字数。
const previewLimit = 100

// truncatePreview はコメント本文を100文字のプレビューへ切り詰める。
// 切り詰めは単語境界ではなく文字数で行う。
func truncatePreview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLimit {
		return body
	}
	return string(runes[:previewLimit]) + "..."
}
