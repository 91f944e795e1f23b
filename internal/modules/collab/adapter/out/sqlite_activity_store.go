package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"peerpad/internal/modules/collab/domain"
	collabout "peerpad/internal/modules/collab/port/out"

	_ "modernc.org/sqlite"
)

// SQLiteActivityStore journals per-project activity in a single table. Rows
// are append-only; Tail reads the newest first and returns them oldest first
// so callers can print in order.
type SQLiteActivityStore struct {
	db *sql.DB
}

var _ collabout.ActivityStore = (*SQLiteActivityStore)(nil)

func NewSQLiteActivityStore(dbPath string) (*SQLiteActivityStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteActivityStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteActivityStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS activity (
  id TEXT PRIMARY KEY,
  project TEXT NOT NULL,
  kind TEXT NOT NULL,
  actor TEXT NOT NULL,
  text TEXT NOT NULL,
  occurred_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_project_time ON activity(project, occurred_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create activity table: %w", err)
	}
	return nil
}

func (s *SQLiteActivityStore) Append(ctx context.Context, event domain.ActivityEvent) error {
	const stmt = `
INSERT INTO activity (id, project, kind, actor, text, occurred_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	_, err := s.db.ExecContext(ctx, stmt,
		event.ID, event.Project, string(event.Kind), event.Actor, event.Text,
		event.OccurredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *SQLiteActivityStore) Tail(ctx context.Context, query collabout.ActivityQuery) ([]domain.ActivityEvent, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	since := int64(0)
	if !query.Since.IsZero() {
		since = query.Since.UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, project, kind, actor, text, occurred_at
FROM activity
WHERE (? = '' OR project = ?) AND occurred_at >= ?
ORDER BY occurred_at DESC, id DESC
LIMIT ?;
`, query.Project, query.Project, since, limit)
	if err != nil {
		return nil, fmt.Errorf("tail activity: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ActivityEvent, 0, limit)
	for rows.Next() {
		var event domain.ActivityEvent
		var kind string
		var occurredAt int64
		if err := rows.Scan(&event.ID, &event.Project, &kind, &event.Actor, &event.Text, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		event.Kind = domain.ActivityKind(kind)
		event.OccurredAt = time.UnixMilli(occurredAt).UTC()
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteActivityStore) Close() error {
	return s.db.Close()
}
