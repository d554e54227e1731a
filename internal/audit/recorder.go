package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nao1215/barmanager/pkg/event"
	"github.com/nao1215/barmanager/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

const (
	// DefaultListLimit はListのデフォルト件数。
	DefaultListLimit = 50
	// MaxListLimit はListで取得できる最大件数。
	MaxListLimit = 500
	// timeLayout は文字列比較で時刻順に並ぶ固定長の形式。
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Recorder は監査イベントをSQLiteに保存する。
type Recorder struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// Open はSQLiteデータベースを開き、スキーマを適用したRecorderを返す。
// pathに ":memory:" を指定するとインメモリDBを使う。
func Open(ctx context.Context, path string, logger *zap.Logger) (*Recorder, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		// インメモリDBは接続ごとに別のDBになる
		db.SetMaxOpenConns(1)
	}

	if err := migration.Run(ctx, db, migrationsFS, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Record はイベントを1件保存する。
func (r *Recorder) Record(ctx context.Context, e *event.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_events (id, type, subject, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Subject, string(e.Data), e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("監査イベントの保存に失敗: %w", err)
	}
	return nil
}

// Filter はListの絞り込み条件。
type Filter struct {
	// Type は取得するイベントの種類。空の場合はすべて。
	Type event.Type
	// Limit は取得件数。0以下の場合はDefaultListLimit。
	Limit int
}

// List は新しい順にイベントを返す。
func (r *Recorder) List(ctx context.Context, f Filter) ([]*event.Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	query := "SELECT id, type, subject, data, created_at FROM auth_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("監査イベントの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*event.Event
	for rows.Next() {
		var (
			e         event.Event
			eventType string
			data      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &eventType, &e.Subject, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("監査イベントの読み取りに失敗: %w", err)
		}
		e.Type = event.Type(eventType)
		e.Data = []byte(data)
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("作成日時の解析に失敗: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
