package notify

import (
	"context"
	"fmt"

	"github.com/nao1215/issuehub/pkg/event"
	"github.com/nao1215/issuehub/pkg/httpclient"
)

// notifyPath はリアルタイム配信イベントを受け付ける内部APIのパス。
const notifyPath = "/api/v1/internal/notify"

// sendPath は永続通知レコードを作成する内部APIのパス。
const sendPath = "/api/v1/internal/send"

// Client は通知サービスの内部APIを呼び出すクライアント。
// 認証トークンは httpclient.WithToken でコンテキストに設定する。
type Client struct {
	// http は通知サービスへの通信に使用するHTTPクライアント。
	http *httpclient.Client
}

// New は新しい通知クライアントを生成する。
// baseURLには通知サービスのベースURL（例: "http://notification:8086"）を指定する。
func New(baseURL string) *Client {
	return &Client{http: httpclient.New(baseURL)}
}

// IssueAssigned はIssue割り当てのリアルタイム通知を依頼する。
func (c *Client) IssueAssigned(ctx context.Context, data event.IssueAssignedData) error {
	return c.postEvent(ctx, event.TypeIssueAssigned, data)
}

// IssueUpdated はIssue更新のリアルタイム通知を依頼する。
func (c *Client) IssueUpdated(ctx context.Context, data event.IssueUpdatedData) error {
	return c.postEvent(ctx, event.TypeIssueUpdated, data)
}

// CommentAdded はコメント追加のリアルタイム通知を依頼する。
func (c *Client) CommentAdded(ctx context.Context, data event.CommentAddedData) error {
	return c.postEvent(ctx, event.TypeCommentAdded, data)
}

// Mention はメンションのリアルタイム通知を依頼する。
func (c *Client) Mention(ctx context.Context, data event.MentionData) error {
	return c.postEvent(ctx, event.TypeMention, data)
}

// TimeLogged は作業時間記録のリアルタイム通知を依頼する。
func (c *Client) TimeLogged(ctx context.Context, data event.TimeLoggedData) error {
	return c.postEvent(ctx, event.TypeTimeLogged, data)
}

// postEvent はイベントを組み立てて内部APIへ送信する共通処理。
func (c *Client) postEvent(ctx context.Context, eventType event.Type, data any) error {
	ev, err := event.New(eventType, data)
	if err != nil {
		return fmt.Errorf("通知イベントの生成に失敗: %w", err)
	}
	if err := c.http.PostJSON(ctx, notifyPath, ev, nil); err != nil {
		return fmt.Errorf("通知イベントの送信に失敗: %w", err)
	}
	return nil
}

// CreateRecordRequest は永続通知レコードの作成リクエスト。
type CreateRecordRequest struct {
	// UserID は通知先のユーザーID。
	UserID string `json:"user_id"`
	// Type は通知の種類。
	Type event.Type `json:"type"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Message は通知メッセージ。
	Message string `json:"message"`
	// IssueID は関連するIssueのID（任意）。
	IssueID string `json:"issue_id,omitempty"`
}

// createRecordResponse は永続通知レコード作成APIのレスポンス。
type createRecordResponse struct {
	// ID は作成された通知のID。
	ID string `json:"id"`
}

// CreateRecord は永続通知レコードの作成を依頼し、作成されたレコードのIDを返す。
// リアルタイム配信とは独立した呼び出しであり、プッシュの成否にかかわらず
// 通知履歴を残したい場合に使用する。
func (c *Client) CreateRecord(ctx context.Context, req CreateRecordRequest) (string, error) {
	var resp createRecordResponse
	if err := c.http.PostJSON(ctx, sendPath, req, &resp); err != nil {
		return "", fmt.Errorf("通知レコードの作成に失敗: %w", err)
	}
	return resp.ID, nil
}
