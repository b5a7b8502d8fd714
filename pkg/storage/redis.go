package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cooketh/flow/pkg/errors"
)

// DefaultRedisPrefix namespaces every key the Redis store writes.
const DefaultRedisPrefix = "flow:"

// Hash fields of a stored map.
const (
	fieldTitle   = "title"
	fieldCreated = "created_at"
	fieldUpdated = "updated_at"
	fieldBody    = "body"
)

// RedisConfig configures [DialRedis].
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore stores each document in a hash at <prefix>map:<id> and keeps
// a sorted set <prefix>maps scored by update time (unix millis) as the
// listing index. Writes update both keys in one MULTI/EXEC.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// DialRedis connects to Redis and verifies the connection with PING.
func DialRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect redis %s", cfg.Addr)
	}
	s := NewRedisStore(client, cfg.Prefix)
	s.owned = true
	return s, nil
}

// NewRedisStore wraps an existing client. The caller keeps ownership of
// client; Close is a no-op.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) docKey(id string) string { return s.prefix + "map:" + id }
func (s *RedisStore) indexKey() string        { return s.prefix + "maps" }

func (s *RedisStore) Save(ctx context.Context, doc Document) (Document, error) {
	doc, err := prepare(doc)
	if err != nil {
		return Document{}, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("marshal map: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docKey(doc.ID), map[string]any{
			fieldTitle:   doc.Title,
			fieldCreated: doc.CreatedAt.UnixMilli(),
			fieldUpdated: doc.UpdatedAt.UnixMilli(),
			fieldBody:    body,
		})
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(doc.UpdatedAt.UnixMilli()), Member: doc.ID})
		return nil
	})
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "save map %s", doc.ID)
	}
	return doc, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Document, error) {
	body, err := s.client.HGet(ctx, s.docKey(id), fieldBody).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return Document{}, notFound(id)
	}
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "load map %s", id)
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "parse map %s", id)
	}
	return doc, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Meta, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list maps")
	}
	if len(ids) == 0 {
		return []Meta{}, nil
	}

	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HMGet(ctx, s.docKey(id), fieldTitle, fieldCreated, fieldUpdated)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list maps")
	}

	out := make([]Meta, 0, len(ids))
	for i, id := range ids {
		vals := cmds[i].Val()
		if len(vals) != 3 || vals[0] == nil {
			// Index entry without a hash: a delete raced with this read.
			continue
		}
		out = append(out, Meta{
			ID:        id,
			Title:     fmt.Sprint(vals[0]),
			CreatedAt: millis(vals[1]),
			UpdatedAt: millis(vals[2]),
		})
	}
	sortMetas(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete map %s", id)
	}
	return nil
}

// Close closes the client if the store dialed it.
func (s *RedisStore) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}

func millis(v any) time.Time {
	str, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ Store = (*RedisStore)(nil)
