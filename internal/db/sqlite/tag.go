package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kailas-cloud/quizdex/internal/db"
)

// InsertTag inserts a tag row. Returns db.ErrUniqueViolation when the
// (name, visibility, owner) scope is already taken.
func (s *Store) InsertTag(ctx context.Context, row db.TagRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, visibility, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.Name, row.Visibility, row.OwnerID,
		row.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrUniqueViolation
		}
		return &db.Error{Op: db.OpInsertTag, Err: err}
	}
	return nil
}

// FindTag looks up a tag by its scope key. Returns db.ErrNotFound on a miss.
func (s *Store) FindTag(ctx context.Context, key db.TagKey) (db.TagRow, error) {
	var row db.TagRow
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, visibility, owner_id, created_at
		 FROM tags WHERE name = ? AND visibility = ? AND owner_id = ?`,
		key.Name, key.Visibility, key.OwnerID,
	).Scan(&row.ID, &row.Name, &row.Visibility, &row.OwnerID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.TagRow{}, db.ErrNotFound
		}
		return db.TagRow{}, &db.Error{Op: db.OpFindTag, Err: err}
	}
	row.CreatedAt = parseTime(createdAt)
	return row, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
