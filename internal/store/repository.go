package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/clipforge/clipforge-agent/internal/media"
)

// Config keys.
const (
	KeyAuthToken = "auth_token"
	KeyDeviceID  = "device_id"
)

type Repository interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	SaveMedia(ctx context.Context, item media.Item) error
	SetThumbnail(ctx context.Context, id, handle string) error
	GetMedia(ctx context.Context, id string) (*media.Item, error)
	ListMedia(ctx context.Context) ([]media.Item, error)
	DeleteMedia(ctx context.Context, id string) error

	AppendSnapshot(ctx context.Context, s *Snapshot) (int64, error)
	GetSnapshot(ctx context.Context, seq int64) (*Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*Snapshot, error)
}

// Snapshot is one committed timeline state. Data holds the JSON encoded
// project and is left empty by ListSnapshots.
type Snapshot struct {
	Seq       int64     `json:"seq"`
	Duration  float64   `json:"duration"`
	ClipCount int       `json:"clip_count"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// SaveMedia inserts item or replaces the stored fields of an existing item
// with the same id. The thumbnail is kept when item carries none.
func (r *SQLiteRepository) SaveMedia(ctx context.Context, item media.Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_items (id, name, kind, path, duration, width, height, size, thumbnail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			path = excluded.path,
			duration = excluded.duration,
			width = excluded.width,
			height = excluded.height,
			size = excluded.size,
			thumbnail = COALESCE(excluded.thumbnail, media_items.thumbnail)
	`, item.ID, item.Name, string(item.Kind), item.Path, item.Duration, item.Width, item.Height, item.Size,
		nullString(item.Thumbnail), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) SetThumbnail(ctx context.Context, id, handle string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE media_items SET thumbnail = ? WHERE id = ?", nullString(handle), id)
	return err
}

func (r *SQLiteRepository) GetMedia(ctx context.Context, id string) (*media.Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, path, duration, width, height, size, thumbnail
		FROM media_items WHERE id = ?
	`, id)

	item, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *SQLiteRepository) ListMedia(ctx context.Context) ([]media.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, path, duration, width, height, size, thumbnail
		FROM media_items ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []media.Item
	for rows.Next() {
		item, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) DeleteMedia(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media_items WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(row scanner) (media.Item, error) {
	var item media.Item
	var kind string
	var thumbnail sql.NullString

	if err := row.Scan(&item.ID, &item.Name, &kind, &item.Path, &item.Duration,
		&item.Width, &item.Height, &item.Size, &thumbnail); err != nil {
		return media.Item{}, err
	}
	item.Kind = media.Kind(kind)
	item.Thumbnail = thumbnail.String
	return item, nil
}

// AppendSnapshot stores s and returns its sequence number. s.Seq and
// s.CreatedAt are filled in.
func (r *SQLiteRepository) AppendSnapshot(ctx context.Context, s *Snapshot) (int64, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (duration, clip_count, data, created_at)
		VALUES (?, ?, ?, ?)
	`, s.Duration, s.ClipCount, string(s.Data), s.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.Seq = seq
	return seq, nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, seq int64) (*Snapshot, error) {
	var s Snapshot
	var data, createdAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT seq, duration, clip_count, data, created_at FROM snapshots WHERE seq = ?
	`, seq).Scan(&s.Seq, &s.Duration, &s.ClipCount, &data, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Data = []byte(data)
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &s, nil
}

// ListSnapshots returns the newest limit snapshots, newest first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, limit int) ([]*Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, duration, clip_count, created_at FROM snapshots
		ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var s Snapshot
		var createdAt string
		if err := rows.Scan(&s.Seq, &s.Duration, &s.ClipCount, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
