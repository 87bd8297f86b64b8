package notification

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	_ "modernc.org/sqlite"

	notificationdb "github.com/nao1215/issuehub/internal/notification/db"
	"github.com/nao1215/issuehub/pkg/event"
	"github.com/nao1215/issuehub/pkg/middleware"
	"github.com/nao1215/issuehub/pkg/migration"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// Server は通知サービスのHTTPサーバー。
// リアルタイム配信用のWebSocketエンドポイントと、永続化された通知を
// プルするためのREST APIの両方を提供する。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// store は通知の永続レコードを管理するストア。
	store *Store
	// hub はライブWebSocket接続のレジストリ。
	hub *Hub
	// dispatcher はイベントをライブ接続へファンアウトするディスパッチャ。
	dispatcher *Dispatcher
	// upgrader はHTTP接続をWebSocketへアップグレードする。
	upgrader websocket.Upgrader
}

// NewServer は新しい通知サーバーを生成する。
// SQLiteデータベースの初期化とマイグレーションの適用を行う。
// Hub・Dispatcher・Storeはここで1度だけ構築され、参照で共有される。
func NewServer(port string) (*Server, error) {
	dbPath := os.Getenv("NOTIFICATION_DB")
	if dbPath == "" {
		dbPath = "/data/notification.db?_journal_mode=WAL&_busy_timeout=5000"
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := migration.Run(sqlDB, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("マイグレーションの適用に失敗: %w", err)
	}

	allowedOrigins := strings.Split(envOrDefault("ALLOWED_ORIGINS", "http://localhost:4200"), ",")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(allowedOrigins))

	hub := NewHub()
	s := &Server{
		router:     router,
		port:       port,
		db:         sqlDB,
		store:      NewStore(notificationdb.New(sqlDB)),
		hub:        hub,
		dispatcher: NewDispatcher(hub),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	s.setupRoutes()

	return s, nil
}

// Run はディスパッチャとHTTPサーバーを起動する。
func (s *Server) Run() error {
	s.dispatcher.Start(context.Background())
	defer s.dispatcher.Stop()
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	jwtSecret := envOrDefault("JWT_SECRET", "dev-secret-key")

	// WebSocketエンドポイント。ユーザーIDはパスパラメータで受け取る。
	// 認証はこの層では行わない。gatewayがトークン検証後に中継する。
	s.router.GET("/ws/:user_id", s.handleWebSocket())

	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	{
		notifications := api.Group("/notifications")
		{
			// 通知一覧取得（ページネーション付き）
			notifications.GET("", s.handleList())
			// 未読通知一覧取得
			notifications.GET("/unread", s.handleListUnread())
			// 通知を既読にする
			notifications.PUT("/:id/read", s.handleMarkAsRead())
			// 全通知を既読にする
			notifications.PUT("/read-all", s.handleMarkAllAsRead())
		}

		// 内部API（プロデューサーサービスから呼び出される）
		internal := api.Group("/internal")
		{
			// リアルタイム配信イベントの受け付け
			internal.POST("/notify", s.handleNotify())
			// 永続通知レコードの作成
			internal.POST("/send", s.handleSend())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})
}

// handleWebSocket はWebSocket接続を受け付けるハンドラ。
// ハンドシェイク成功後に接続をHubへ登録し、切断（明示的クローズまたは
// トランスポートエラー）で解除する。ハートビートによる死活監視は
// 行わない。書き込みエラーを返さない死んだ接続は、次回の送信失敗時に
// ディスパッチャがプルーニングする。
func (s *Server) handleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ユーザーIDが必要です"})
			return
		}

		ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocketへのアップグレードに失敗: %v", err)
			return
		}

		conn := NewConn(ws, userID)
		s.hub.Register(conn)
		log.Printf("user %s がWebSocketで接続しました", userID)

		defer func() {
			s.hub.Unregister(conn)
			_ = conn.Close() //nolint:errcheck
			log.Printf("user %s がWebSocketから切断しました", userID)
		}()

		// キープアライブトラフィックの読み捨てと切断検知のみを行う。
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// notificationResponse は通知のJSONレスポンス構造。
type notificationResponse struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// Type は通知の種類。
	Type string `json:"type"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Message は通知メッセージ。
	Message string `json:"message"`
	// UserID は通知先のユーザーID。
	UserID string `json:"user_id"`
	// IssueID は関連するIssueのID。紐付くIssueがない場合はnull。
	IssueID *string `json:"issue_id"`
	// IsRead は通知の既読状態。
	IsRead bool `json:"is_read"`
	// CreatedAt は通知の作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// toNotificationResponse はDB行をJSONレスポンスに変換する。
func toNotificationResponse(n notificationdb.Notification) notificationResponse {
	resp := notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		UserID:    n.UserID,
		IsRead:    n.IsRead != 0,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.IssueID.Valid {
		resp.IssueID = &n.IssueID.String
	}
	return resp
}

// toNotificationResponses はDB行のスライスをJSONレスポンスのスライスに変換する。
func toNotificationResponses(notifications []notificationdb.Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, toNotificationResponse(n))
	}
	return responses
}

// listDefaultLimit は通知一覧のデフォルト取得件数。
const listDefaultLimit = 50

// listMaxLimit は通知一覧の最大取得件数。
const listMaxLimit = 200

// handleList は認証済みユーザーの通知一覧を返すハンドラ。
// レスポンスにはページネーション用の総件数と未読件数を含む。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		offset := parseQueryInt(c, "offset", 0)
		limit := parseQueryInt(c, "limit", listDefaultLimit)
		if limit <= 0 || limit > listMaxLimit {
			limit = listDefaultLimit
		}
		if offset < 0 {
			offset = 0
		}

		notifications, total, err := s.store.ListForUser(c.Request.Context(), userID, offset, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知一覧の取得に失敗しました"})
			log.Printf("通知一覧取得エラー: %v", err)
			return
		}

		unreadCount, err := s.store.UnreadCount(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "未読通知数の取得に失敗しました"})
			log.Printf("未読通知数取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"notifications": toNotificationResponses(notifications),
			"total":         total,
			"unread_count":  unreadCount,
		})
	}
}

// handleListUnread は認証済みユーザーの未読通知一覧を返すハンドラ。
func (s *Server) handleListUnread() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		notifications, err := s.store.ListUnreadForUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "未読通知一覧の取得に失敗しました"})
			log.Printf("未読通知一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toNotificationResponses(notifications))
	}
}

// handleMarkAsRead は指定された通知を既読にするハンドラ。
// 通知が存在しない場合と他ユーザーの所有である場合は、同一のNotFoundを返す。
func (s *Server) handleMarkAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		notificationID := c.Param("id")
		if notificationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "通知IDが必要です"})
			return
		}

		record, err := s.store.MarkRead(c.Request.Context(), notificationID, userID)
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "通知が見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の既読処理に失敗しました"})
			log.Printf("通知既読処理エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toNotificationResponse(record))
	}
}

// handleMarkAllAsRead は認証済みユーザーの全通知を既読にするハンドラ。
// レスポンスには実際に既読へ変更した件数を含む。
func (s *Server) handleMarkAllAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		count, err := s.store.MarkAllRead(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "全通知の既読処理に失敗しました"})
			log.Printf("全通知既読処理エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("%d件の通知を既読にしました", count),
			"count":   count,
		})
	}
}

// handleNotify はプロデューサーからの通知イベントを受け付けるハンドラ。
// イベントをディスパッチャのキューへ積んだ時点で202を返す。配信の成否は
// レスポンスに反映されない（fire-and-forget）。永続レコードの作成は
// 行わない。必要なら別途 /internal/send を呼び出すこと。
func (s *Server) handleNotify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ev event.Event
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if err := s.dispatchEvent(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("イベントの解釈に失敗しました: %v", err)})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"message": "通知イベントを受け付けました"})
	}
}

// dispatchEvent はイベント種類に応じてペイロードをデコードし、
// 対応するディスパッチャの操作を呼び出す。
func (s *Server) dispatchEvent(ev *event.Event) error {
	switch ev.EventType {
	case event.TypeIssueAssigned:
		data, err := event.DecodeData[event.IssueAssignedData](ev)
		if err != nil {
			return err
		}
		s.dispatcher.NotifyIssueAssigned(data.IssueID, data.AssigneeID, data.IssueTitle, data.AssignedBy)
	case event.TypeIssueUpdated:
		data, err := event.DecodeData[event.IssueUpdatedData](ev)
		if err != nil {
			return err
		}
		s.dispatcher.NotifyIssueUpdated(data.IssueID, data.RecipientIDs, data.ActorID, data.IssueTitle, data.UpdatedBy, data.Changes)
	case event.TypeCommentAdded:
		data, err := event.DecodeData[event.CommentAddedData](ev)
		if err != nil {
			return err
		}
		s.dispatcher.NotifyCommentAdded(data.IssueID, data.RecipientIDs, data.ActorID, data.IssueTitle, data.CommentAuthor, data.CommentBody)
	case event.TypeMention:
		data, err := event.DecodeData[event.MentionData](ev)
		if err != nil {
			return err
		}
		s.dispatcher.NotifyMention(data.MentionedUserID, data.IssueID, data.IssueTitle, data.MentionedBy, data.CommentBody)
	case event.TypeTimeLogged:
		data, err := event.DecodeData[event.TimeLoggedData](ev)
		if err != nil {
			return err
		}
		s.dispatcher.NotifyTimeLogged(data.IssueID, data.RecipientIDs, data.ActorID, data.IssueTitle, data.LoggedBy, data.Hours)
	default:
		return fmt.Errorf("未知のイベント種類: %q", ev.EventType)
	}
	return nil
}

// sendRequest は永続通知レコード作成リクエストのJSON構造。
type sendRequest struct {
	// UserID は通知先のユーザーID。
	UserID string `json:"user_id" binding:"required"`
	// Type は通知の種類。
	Type string `json:"type" binding:"required"`
	// Title は通知のタイトル。
	Title string `json:"title" binding:"required"`
	// Message は通知メッセージ。
	Message string `json:"message" binding:"required"`
	// IssueID は関連するIssueのID（任意）。
	IssueID string `json:"issue_id"`
}

// handleSend は永続通知レコードを作成するハンドラ。
// リアルタイム配信とは独立しており、プロデューサーが明示的に呼び出す。
func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if !validNotificationType(req.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("未知の通知種類です: %q", req.Type)})
			return
		}

		record, err := s.store.Create(c.Request.Context(), CreateParams{
			Type:    event.Type(req.Type),
			Title:   req.Title,
			Message: req.Message,
			UserID:  req.UserID,
			IssueID: req.IssueID,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の作成に失敗しました"})
			log.Printf("通知作成エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, toNotificationResponse(record))
	}
}

// validNotificationType は文字列が定義済みの通知種類かどうかを判定する。
func validNotificationType(t string) bool {
	switch event.Type(t) {
	case event.TypeIssueAssigned, event.TypeIssueUpdated, event.TypeCommentAdded,
		event.TypeMention, event.TypeTimeLogged:
		return true
	default:
		return false
	}
}

// parseQueryInt はクエリパラメータを整数として取得する。
// 未指定またはパース不能の場合はデフォルト値を返す。
func parseQueryInt(c *gin.Context, key string, defaultValue int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// originChecker はWebSocketハンドシェイクのOriginヘッダー検証関数を返す。
// Originヘッダーのないリクエスト（非ブラウザクライアント）は許可する。
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	originsSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := originsSet[origin]
		return ok
	}
}

// envOrDefault は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
