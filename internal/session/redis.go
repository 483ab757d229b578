package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

const scanBatch = 100

// RedisStore keeps each session under <prefix><tempId> with a native TTL,
// so expiry needs no sweep.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) key(tempID string) string {
	return r.prefix + tempID
}

func (r *RedisStore) Create(ctx context.Context, s *model.RegistrationSession) error {
	return r.setNX(ctx, s)
}

func (r *RedisStore) setNX(ctx context.Context, s *model.RegistrationSession) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return ErrNotFound
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.key(s.TempID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func decode(data []byte) (*model.RegistrationSession, error) {
	var s model.RegistrationSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Get(ctx context.Context, tempID string) (*model.RegistrationSession, error) {
	data, err := r.client.Get(ctx, r.key(tempID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return decode(data)
}

// AttachImage rewrites the session with SET XX KEEPTTL, so a session taken or
// expired in the meantime is not recreated.
func (r *RedisStore) AttachImage(ctx context.Context, tempID, path string) error {
	s, err := r.Get(ctx, tempID)
	if err != nil {
		return err
	}
	s.ImagePath = path

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	err = r.client.SetArgs(ctx, r.key(tempID), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (r *RedisStore) Take(ctx context.Context, tempID string) (*model.RegistrationSession, error) {
	data, err := r.client.GetDel(ctx, r.key(tempID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take session: %w", err)
	}
	return decode(data)
}

func (r *RedisStore) Restore(ctx context.Context, s *model.RegistrationSession) error {
	return r.setNX(ctx, s)
}

func (r *RedisStore) Delete(ctx context.Context, tempID string) error {
	n, err := r.client.Del(ctx, r.key(tempID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (r *RedisStore) DeleteExpired(context.Context) (int, error) {
	return 0, nil
}

func (r *RedisStore) List(ctx context.Context) ([]*model.RegistrationSession, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	if len(keys) == 0 {
		return []*model.RegistrationSession{}, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	sessions := make([]*model.RegistrationSession, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		s, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}
