package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	notificationdb "github.com/nao1215/issuehub/internal/notification/db"
	"github.com/nao1215/issuehub/pkg/event"
)

// ErrNotificationNotFound は通知が存在しない、または他ユーザーの所有である
// 場合に返される。所有者不一致は存在しないIDと区別できない。他ユーザーの
// 通知の存在を漏らさないためである。
var ErrNotificationNotFound = errors.New("通知が見つかりません")

// Store は通知の永続レコードを管理する。接続状態とは独立しており、
// オフラインのユーザー宛のレコードも保持する。プッシュ配信が
// ベストエフォートであるのに対し、Storeが通知履歴の正となる。
type Store struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *notificationdb.Queries
}

// NewStore は新しい通知ストアを生成する。
func NewStore(queries *notificationdb.Queries) *Store {
	return &Store{queries: queries}
}

// CreateParams は通知レコードの作成パラメータ。
type CreateParams struct {
	// Type は通知の種類。
	Type event.Type
	// Title は通知のタイトル。
	Title string
	// Message は通知メッセージ。
	Message string
	// UserID は通知先のユーザーID。
	UserID string
	// IssueID は関連するIssueのID。Issueに紐付かない場合は空文字列。
	IssueID string
}

// Create は通知レコードを作成する。既読フラグは入力にかかわらず
// 常に未読で開始する。IDと作成日時を割り当てたレコードを返す。
func (s *Store) Create(ctx context.Context, p CreateParams) (notificationdb.Notification, error) {
	record := notificationdb.Notification{
		ID:        uuid.New().String(),
		Type:      string(p.Type),
		Title:     p.Title,
		Message:   p.Message,
		UserID:    p.UserID,
		IsRead:    0,
		CreatedAt: time.Now().UTC(),
	}
	if p.IssueID != "" {
		record.IssueID = sql.NullString{String: p.IssueID, Valid: true}
	}

	err := s.queries.CreateNotification(ctx, notificationdb.CreateNotificationParams{
		ID:        record.ID,
		Type:      record.Type,
		Title:     record.Title,
		Message:   record.Message,
		UserID:    record.UserID,
		IssueID:   record.IssueID,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return notificationdb.Notification{}, fmt.Errorf("通知の作成に失敗: %w", err)
	}
	return record, nil
}

// ListForUser は指定ユーザーの通知を作成日時の降順（新しい順）で返す。
// ページネーション用に、offset/limitを無視した総件数も返す。
func (s *Store) ListForUser(ctx context.Context, userID string, offset, limit int64) ([]notificationdb.Notification, int64, error) {
	notifications, err := s.queries.ListNotificationsByUserID(ctx, notificationdb.ListNotificationsByUserIDParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}

	total, err := s.queries.CountNotificationsByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("通知総数の取得に失敗: %w", err)
	}
	return notifications, total, nil
}

// ListUnreadForUser は指定ユーザーの未読通知を作成日時の降順で返す。
func (s *Store) ListUnreadForUser(ctx context.Context, userID string) ([]notificationdb.Notification, error) {
	notifications, err := s.queries.ListUnreadNotificationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("未読通知一覧の取得に失敗: %w", err)
	}
	return notifications, nil
}

// UnreadCount は指定ユーザーの未読通知の件数を返す。
func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.queries.CountUnreadNotificationsByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("未読通知数の取得に失敗: %w", err)
	}
	return count, nil
}

// MarkRead は指定ユーザーが所有する通知を既読にし、更新後のレコードを返す。
// 通知が存在しない、または他ユーザーの所有である場合はErrNotificationNotFoundを返す。
// 既読を未読に戻す操作は存在しない。
func (s *Store) MarkRead(ctx context.Context, notificationID, userID string) (notificationdb.Notification, error) {
	rows, err := s.queries.MarkNotificationRead(ctx, notificationdb.MarkNotificationReadParams{
		ID:     notificationID,
		UserID: userID,
	})
	if err != nil {
		return notificationdb.Notification{}, fmt.Errorf("通知の既読処理に失敗: %w", err)
	}
	if rows == 0 {
		return notificationdb.Notification{}, ErrNotificationNotFound
	}

	record, err := s.queries.GetNotificationByIDAndUserID(ctx, notificationdb.GetNotificationByIDAndUserIDParams{
		ID:     notificationID,
		UserID: userID,
	})
	if err != nil {
		return notificationdb.Notification{}, fmt.Errorf("更新後の通知の取得に失敗: %w", err)
	}
	return record, nil
}

// MarkAllRead は指定ユーザーの未読通知をすべて既読にし、実際に更新された
// 件数を返す。既に既読のレコードは件数に含まれない。
func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	rows, err := s.queries.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("全通知の既読処理に失敗: %w", err)
	}
	return rows, nil
}
