package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/quizdex/internal/db"
)

// InsertTag claims the scope-index key with SET NX and writes the tag hash
// in a single pipelined round-trip, so the index never dangles over a
// missing hash. A losing racer gets db.ErrUniqueViolation, mirroring a
// relational unique constraint.
func (s *Store) InsertTag(ctx context.Context, row db.TagRow) error {
	ixKey := s.tagScopeKey(row.Name, row.Visibility, row.OwnerID)

	results := s.client.DoMulti(ctx,
		s.b().Set().Key(ixKey).Value(row.ID).Nx().Build(),
		s.b().Hset().Key(s.tagKey(row.ID)).FieldValue().
			FieldValue("name", row.Name).
			FieldValue("visibility", row.Visibility).
			FieldValue("owner_id", row.OwnerID).
			FieldValue("created_at", row.CreatedAt.UTC().Format(time.RFC3339Nano)).
			Build(),
	)

	if err := results[0].Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			// Lost the race. The hash written alongside is keyed by this
			// row's own id and unreachable from any index; drop it.
			_ = s.do(ctx, s.b().Del().Key(s.tagKey(row.ID)).Build()).Error()
			return db.ErrUniqueViolation
		}
		return &db.Error{Op: db.OpInsertTag, Err: err}
	}
	if err := results[1].Error(); err != nil {
		return &db.Error{Op: db.OpInsertTag, Err: err}
	}
	return nil
}

// FindTag resolves the scope-index key, then loads the tag hash.
func (s *Store) FindTag(ctx context.Context, key db.TagKey) (db.TagRow, error) {
	ixKey := s.tagScopeKey(key.Name, key.Visibility, key.OwnerID)

	id, err := s.do(ctx, s.b().Get().Key(ixKey).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return db.TagRow{}, db.ErrNotFound
		}
		return db.TagRow{}, &db.Error{Op: db.OpFindTag, Err: err}
	}

	fields, err := s.do(ctx, s.b().Hgetall().Key(s.tagKey(id)).Build()).AsStrMap()
	if err != nil {
		return db.TagRow{}, &db.Error{Op: db.OpFindTag, Err: err}
	}
	if len(fields) == 0 {
		return db.TagRow{}, db.ErrNotFound
	}

	return db.TagRow{
		ID:         id,
		Name:       fields["name"],
		Visibility: fields["visibility"],
		OwnerID:    fields["owner_id"],
		CreatedAt:  parseTime(fields["created_at"]),
	}, nil
}

func (s *Store) tagKey(id string) string {
	return s.prefix + "tag:" + id
}

func (s *Store) tagScopeKey(name, visibility, ownerID string) string {
	return s.prefix + "tag:ix:" + visibility + ":" + ownerID + ":" + name
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
