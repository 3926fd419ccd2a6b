package participant

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// participantsKey is the Redis hash holding name -> lastStatus (unix millis).
const participantsKey = "chat:participants"

const redisOpTimeout = 2 * time.Second

// RedisStore persists participants in a Redis hash. Uniqueness relies on
// HSETNX, which is atomic per field; everything else is last-write-wins,
// matching how concurrent heartbeats and sweeps are allowed to race.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a participant store backed by the given Redis client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Register creates the participant, failing with ErrNameTaken on duplicates.
func (s *RedisStore) Register(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	now := time.Now().UnixMilli()
	set, err := s.client.HSetNX(ctx, participantsKey, name, now).Result()
	if err != nil {
		return fmt.Errorf("redis: register participant: %w", err)
	}
	if !set {
		return ErrNameTaken
	}
	return nil
}

// Get returns the participant with the given name, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, name string) (*Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	val, err := s.client.HGet(ctx, participantsKey, name).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get participant: %w", err)
	}
	last, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: corrupt lastStatus for %q: %w", name, err)
	}
	return &Participant{Name: name, LastStatus: last}, nil
}

// List returns all participants. Hash fields carry no ordering, which is
// within the contract: storage order only, no guarantee beyond that.
func (s *RedisStore) List(ctx context.Context) ([]*Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, participantsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list participants: %w", err)
	}

	result := make([]*Participant, 0, len(fields))
	for name, val := range fields {
		last, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		result = append(result, &Participant{Name: name, LastStatus: last})
	}
	return result, nil
}

// Touch refreshes the participant's lastStatus. The existence check and the
// write are separate commands; a participant removed in between is simply
// re-written, which the last-write-wins model accepts.
func (s *RedisStore) Touch(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	exists, err := s.client.HExists(ctx, participantsKey, name).Result()
	if err != nil {
		return fmt.Errorf("redis: touch participant: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	if err := s.client.HSet(ctx, participantsKey, name, time.Now().UnixMilli()).Err(); err != nil {
		return fmt.Errorf("redis: touch participant: %w", err)
	}
	return nil
}

// Remove deletes the participant. HDEL of a missing field is a no-op.
func (s *RedisStore) Remove(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := s.client.HDel(ctx, participantsKey, name).Err(); err != nil {
		return fmt.Errorf("redis: remove participant: %w", err)
	}
	return nil
}
