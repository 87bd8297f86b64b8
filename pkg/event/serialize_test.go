package event

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNew はNew関数でイベントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("IssueAssignedDataでイベントを正常に生成できること", func(t *testing.T) {
		t.Parallel()

		data := IssueAssignedData{
			IssueID:    "issue-1",
			AssigneeID: "user-1",
			IssueTitle: "ログイン画面の不具合",
			AssignedBy: "alice",
		}

		before := time.Now().UTC()
		ev, err := New(TypeIssueAssigned, data)
		after := time.Now().UTC()

		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if ev == nil {
			t.Fatal("New()がnilを返した")
		}

		// UUIDが生成されていること
		if ev.ID == "" {
			t.Error("IDが空文字列")
		}
		if ev.EventType != TypeIssueAssigned {
			t.Errorf("EventType = %q, want %q", ev.EventType, TypeIssueAssigned)
		}

		// CreatedAtが呼び出し前後の範囲内であること
		if ev.CreatedAt.Before(before) || ev.CreatedAt.After(after) {
			t.Errorf("CreatedAt = %v, 期待する範囲: [%v, %v]", ev.CreatedAt, before, after)
		}

		// Dataが正しくシリアライズされていること
		var decoded IssueAssignedData
		if err := json.Unmarshal(ev.Data, &decoded); err != nil {
			t.Fatalf("Dataのデシリアライズに失敗: %v", err)
		}
		if decoded.AssigneeID != data.AssigneeID {
			t.Errorf("Data.AssigneeID = %q, want %q", decoded.AssigneeID, data.AssigneeID)
		}
		if decoded.IssueTitle != data.IssueTitle {
			t.Errorf("Data.IssueTitle = %q, want %q", decoded.IssueTitle, data.IssueTitle)
		}
	})

	t.Run("TimeLoggedDataでイベントを正常に生成できること", func(t *testing.T) {
		t.Parallel()

		data := TimeLoggedData{
			IssueID:      "issue-2",
			RecipientIDs: []string{"user-1", "user-2"},
			ActorID:      "user-3",
			IssueTitle:   "パフォーマンス改善",
			LoggedBy:     "bob",
			Hours:        2.5,
		}

		ev, err := New(TypeTimeLogged, data)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}

		if ev.EventType != TypeTimeLogged {
			t.Errorf("EventType = %q, want %q", ev.EventType, TypeTimeLogged)
		}

		var decoded TimeLoggedData
		if err := json.Unmarshal(ev.Data, &decoded); err != nil {
			t.Fatalf("Dataのデシリアライズに失敗: %v", err)
		}
		if decoded.Hours != 2.5 {
			t.Errorf("Data.Hours = %v, want 2.5", decoded.Hours)
		}
	})

	t.Run("連続して生成したイベントのIDが異なること", func(t *testing.T) {
		t.Parallel()

		data := MentionData{MentionedUserID: "user-1", IssueID: "issue-1"}

		ev1, err := New(TypeMention, data)
		if err != nil {
			t.Fatalf("1回目のNew()でエラーが発生: %v", err)
		}

		ev2, err := New(TypeMention, data)
		if err != nil {
			t.Fatalf("2回目のNew()でエラーが発生: %v", err)
		}

		if ev1.ID == ev2.ID {
			t.Errorf("連続生成したイベントのIDが同一: %q", ev1.ID)
		}
	})

	t.Run("シリアライズ不可能なデータでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		// チャネルはJSONシリアライズ不可
		ev, err := New(TypeIssueAssigned, make(chan int))
		if err == nil {
			t.Error("エラーが返らなかった")
		}
		if ev != nil {
			t.Errorf("エラー時にイベントが返された: %+v", ev)
		}
	})
}

// TestDecodeData はDecodeData関数でイベントデータが正しく復元されることを検証する。
func TestDecodeData(t *testing.T) {
	t.Parallel()

	t.Run("CommentAddedDataを正常にデコードできること", func(t *testing.T) {
		t.Parallel()

		original := CommentAddedData{
			IssueID:       "issue-1",
			RecipientIDs:  []string{"user-1", "user-2"},
			ActorID:       "user-3",
			IssueTitle:    "ログイン不具合",
			CommentAuthor: "alice",
			CommentBody:   "再現手順を確認しました",
		}

		ev, err := New(TypeCommentAdded, original)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}

		decoded, err := DecodeData[CommentAddedData](ev)
		if err != nil {
			t.Fatalf("DecodeData()でエラーが発生: %v", err)
		}

		if decoded.CommentAuthor != original.CommentAuthor {
			t.Errorf("CommentAuthor = %q, want %q", decoded.CommentAuthor, original.CommentAuthor)
		}
		if decoded.CommentBody != original.CommentBody {
			t.Errorf("CommentBody = %q, want %q", decoded.CommentBody, original.CommentBody)
		}
		if len(decoded.RecipientIDs) != 2 {
			t.Errorf("RecipientIDsの長さ: got %d, want 2", len(decoded.RecipientIDs))
		}
	})

	t.Run("不正なJSONデータでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ev := &Event{
			ID:        "event-1",
			EventType: TypeIssueUpdated,
			Data:      json.RawMessage(`{invalid json`),
			CreatedAt: time.Now().UTC(),
		}

		if _, err := DecodeData[IssueUpdatedData](ev); err == nil {
			t.Error("不正なJSONに対してエラーが返らなかった")
		}
	})
}
