package notification

import (
	"context"
	"testing"
)

// testContext はテスト終了時にキャンセルされるコンテキストを返す。
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
