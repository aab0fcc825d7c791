package records

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSet is a durable Set kept in Redis. Each record is a hash; a sorted set per content
// type orders records by creation time and another tracks dirty records. Loaded records
// are cached so that every lookup of the same record returns the same pointer.
type RedisSet struct {
	db     redis.UniversalClient
	prefix string

	mu    sync.Mutex
	cache map[uuid.UUID]*Record
}

// NewRedisSet returns a set storing its keys under prefix. client is typically shared with
// the credential store.
func NewRedisSet(client redis.UniversalClient, prefix string) *RedisSet {
	return &RedisSet{db: client, prefix: prefix, cache: make(map[uuid.UUID]*Record)}
}

func (s *RedisSet) recordKey(id string) string { return s.prefix + "record:" + id }
func (s *RedisSet) typeKey(ct string) string   { return s.prefix + "type:" + ct }
func (s *RedisSet) dirtyKey() string           { return s.prefix + "dirty" }

func (s *RedisSet) FindByContentType(ctx context.Context, contentType string) (*Record, bool, error) {
	ids, err := s.db.ZRange(ctx, s.typeKey(contentType), 0, 0).Result()
	if err != nil {
		return nil, false, errors.Join(ErrStorageFailed, err)
	}
	list, err := s.load(ctx, ids)
	if err != nil || len(list) == 0 {
		return nil, false, err
	}
	return list[0], true, nil
}

func (s *RedisSet) ListByContentType(ctx context.Context, contentType string) ([]*Record, error) {
	ids, err := s.db.ZRange(ctx, s.typeKey(contentType), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return s.load(ctx, ids)
}

// DirtyRecords returns records waiting for sync.
func (s *RedisSet) DirtyRecords(ctx context.Context) ([]*Record, error) {
	ids, err := s.db.ZRange(ctx, s.dirtyKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return s.load(ctx, ids)
}

func (s *RedisSet) Add(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	body, err := encodeContent(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[r.ID]; ok {
		return ErrDuplicateRecord
	}

	id := r.ID.String()
	key := s.recordKey(id)
	// content_type doubles as the existence marker
	created, err := s.db.HSetNX(ctx, key, "content_type", r.ContentType).Result()
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	if !created {
		return ErrDuplicateRecord
	}

	_, err = s.db.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"content", body,
			"dirty", boolInt(r.Dirty()),
			"created_at", formatTime(r.CreatedAt),
			"updated_at", formatTime(r.UpdatedAt()),
		)
		p.ZAdd(ctx, s.typeKey(r.ContentType), redis.Z{Score: float64(r.CreatedAt.UnixMicro()), Member: id})
		if r.Dirty() {
			p.ZAdd(ctx, s.dirtyKey(), redis.Z{Score: float64(r.UpdatedAt().UnixMicro()), Member: id})
		}
		return nil
	})
	if err != nil {
		_ = s.db.Del(ctx, key).Err()
		return errors.Join(ErrStorageFailed, err)
	}
	s.cache[r.ID] = r
	return nil
}

func (s *RedisSet) MarkDirty(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	r.setDirty(true)
	return s.save(ctx, r)
}

// MarkClean clears the dirty flag after a successful sync.
func (s *RedisSet) MarkClean(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		key := s.recordKey(id.String())
		_, err := s.db.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, "dirty", 0)
			p.ZRem(ctx, s.dirtyKey(), id.String())
			return nil
		})
		if err != nil {
			return errors.Join(ErrStorageFailed, err)
		}
		s.mu.Lock()
		if r, ok := s.cache[id]; ok {
			r.setDirty(false)
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *RedisSet) save(ctx context.Context, r *Record) error {
	body, err := encodeContent(r)
	if err != nil {
		return err
	}
	id := r.ID.String()
	key := s.recordKey(id)

	n, err := s.db.Exists(ctx, key).Result()
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = s.db.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"content", body,
			"dirty", boolInt(r.Dirty()),
			"updated_at", formatTime(r.UpdatedAt()),
		)
		if r.Dirty() {
			p.ZAdd(ctx, s.dirtyKey(), redis.Z{Score: float64(r.UpdatedAt().UnixMicro()), Member: id})
		} else {
			p.ZRem(ctx, s.dirtyKey(), id)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// load resolves ids to records, fetching the ones not cached yet. Ids whose hash is gone
// are skipped.
func (s *RedisSet) load(ctx context.Context, ids []string) ([]*Record, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Join(ErrDecodeFailed, err)
		}
		parsed = append(parsed, id)
	}

	s.mu.Lock()
	var missing []uuid.UUID
	for _, id := range parsed {
		if _, ok := s.cache[id]; !ok {
			missing = append(missing, id)
		}
	}
	s.mu.Unlock()

	fetched := make(map[uuid.UUID]map[string]string, len(missing))
	if len(missing) > 0 {
		cmds := make([]*redis.MapStringStringCmd, len(missing))
		_, err := s.db.Pipelined(ctx, func(p redis.Pipeliner) error {
			for i, id := range missing {
				cmds[i] = p.HGetAll(ctx, s.recordKey(id.String()))
			}
			return nil
		})
		if err != nil {
			return nil, errors.Join(ErrStorageFailed, err)
		}
		for i, id := range missing {
			fetched[id] = cmds[i].Val()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, 0, len(parsed))
	for _, id := range parsed {
		if cached, ok := s.cache[id]; ok {
			out = append(out, cached)
			continue
		}
		fields := fetched[id]
		if len(fields) == 0 {
			continue
		}
		appData, err := decodeContent([]byte(fields["content"]))
		if err != nil {
			return nil, err
		}
		dirty, _ := strconv.Atoi(fields["dirty"])
		r := &Record{
			ID:          id,
			ContentType: fields["content_type"],
			CreatedAt:   parseTime(fields["created_at"]),
			appData:     appData,
			dirty:       dirty == 1,
			updatedAt:   parseTime(fields["updated_at"]),
		}
		s.cache[id] = r
		out = append(out, r)
	}
	return out, nil
}
