package event

import (
	"encoding/json"
	"time"
)

// Type は通知イベントの種類を表す。
// 値はWebSocketエンベロープのtypeフィールドと通知レコードのtypeカラムに
// そのまま使用されるため、変更してはならない。
type Type string

const (
	// TypeIssueAssigned はIssueが担当者に割り当てられたことを表す。
	TypeIssueAssigned Type = "issue_assigned"
	// TypeIssueUpdated はIssueのフィールドが更新されたことを表す。
	TypeIssueUpdated Type = "issue_updated"
	// TypeCommentAdded はIssueにコメントが追加されたことを表す。
	TypeCommentAdded Type = "comment_added"
	// TypeMention はコメント内でユーザーがメンションされたことを表す。
	TypeMention Type = "mention"
	// TypeTimeLogged はIssueに作業時間が記録されたことを表す。
	TypeTimeLogged Type = "time_logged"
)

// Event はプロデューサーサービスが通知サービスへ送信する通知インテント。
// ドメイン書き込みのコミット後にちょうど1回送信される。配信結果は
// プロデューサーへ返されない（fire-and-forget）。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// FieldChange はIssue更新時の1フィールド分の変更内容を表す。
// スライスの順序がそのまま変更サマリーの表示順になる。
type FieldChange struct {
	// Field は変更されたフィールド名。
	Field string `json:"field"`
	// Old は変更前の値。
	Old string `json:"old"`
	// New は変更後の値。
	New string `json:"new"`
}

// IssueAssignedData はissue_assignedイベントのデータ。
type IssueAssignedData struct {
	// IssueID は対象IssueのID。
	IssueID string `json:"issue_id"`
	// AssigneeID は割り当てられたユーザーのID。
	AssigneeID string `json:"assignee_id"`
	// IssueTitle はIssueのタイトル。
	IssueTitle string `json:"issue_title"`
	// AssignedBy は割り当てを行ったユーザーの表示名。
	AssignedBy string `json:"assigned_by"`
}

// IssueUpdatedData はissue_updatedイベントのデータ。
type IssueUpdatedData struct {
	// IssueID は対象IssueのID。
	IssueID string `json:"issue_id"`
	// RecipientIDs は通知先ユーザーIDのリスト。重複は配信時に1つに集約される。
	RecipientIDs []string `json:"recipient_ids"`
	// ActorID は更新を行ったユーザーのID。通知先から常に除外される。
	ActorID string `json:"actor_id"`
	// IssueTitle はIssueのタイトル。
	IssueTitle string `json:"issue_title"`
	// UpdatedBy は更新を行ったユーザーの表示名。
	UpdatedBy string `json:"updated_by"`
	// Changes はフィールドごとの変更内容。表示順を保持する。
	Changes []FieldChange `json:"changes"`
}

// CommentAddedData はcomment_addedイベントのデータ。
type CommentAddedData struct {
	// IssueID は対象IssueのID。
	IssueID string `json:"issue_id"`
	// RecipientIDs は通知先ユーザーIDのリスト。
	RecipientIDs []string `json:"recipient_ids"`
	// ActorID はコメントを投稿したユーザーのID。通知先から常に除外される。
	ActorID string `json:"actor_id"`
	// IssueTitle はIssueのタイトル。
	IssueTitle string `json:"issue_title"`
	// CommentAuthor はコメント投稿者の表示名。
	CommentAuthor string `json:"comment_author"`
	// CommentBody はコメント本文。配信時に100文字のプレビューへ切り詰められる。
	CommentBody string `json:"comment_body"`
}

// MentionData はmentionイベントのデータ。
type MentionData struct {
	// MentionedUserID はメンションされたユーザーのID。
	MentionedUserID string `json:"mentioned_user_id"`
	// IssueID は対象IssueのID。
	IssueID string `json:"issue_id"`
	// IssueTitle はIssueのタイトル。
	IssueTitle string `json:"issue_title"`
	// MentionedBy はメンションを行ったユーザーの表示名。
	MentionedBy string `json:"mentioned_by"`
	// CommentBody はメンションを含むコメント本文。配信時に100文字のプレビューへ切り詰められる。
	CommentBody string `json:"comment_body"`
}

// TimeLoggedData はtime_loggedイベントのデータ。
type TimeLoggedData struct {
	// IssueID は対象IssueのID。
	IssueID string `json:"issue_id"`
	// RecipientIDs は通知先ユーザーIDのリスト。
	RecipientIDs []string `json:"recipient_ids"`
	// ActorID は時間を記録したユーザーのID。通知先から常に除外される。
	ActorID string `json:"actor_id"`
	// IssueTitle はIssueのタイトル。
	IssueTitle string `json:"issue_title"`
	// LoggedBy は時間を記録したユーザーの表示名。
	LoggedBy string `json:"logged_by"`
	// Hours は記録された作業時間（時間単位）。
	Hours float64 `json:"hours"`
}
