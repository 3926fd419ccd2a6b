package message

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// messagesKey is the Redis list holding the full message log.
const messagesKey = "chat:messages"

const redisOpTimeout = 2 * time.Second

// RedisLog persists the message log as a Redis list of JSON documents.
// Individual commands are atomic; find-then-modify sequences (Update, Delete)
// are not, which matches the single-document guarantees the rest of the
// system assumes.
type RedisLog struct {
	client redis.Cmdable
}

// NewRedisLog creates a message log backed by the given Redis client.
func NewRedisLog(client redis.Cmdable) *RedisLog {
	return &RedisLog{client: client}
}

// Append assigns an ID, pushes the message onto the list, and returns the
// stored record.
func (l *RedisLog) Append(ctx context.Context, msg *Message) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	stored := *msg
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("redis: marshal message: %w", err)
	}
	if err := l.client.RPush(ctx, messagesKey, data).Err(); err != nil {
		return nil, fmt.Errorf("redis: append message: %w", err)
	}
	return &stored, nil
}

// VisibleTo returns messages visible to user, applying the limit/ordering
// contract from the Log interface.
func (l *RedisLog) VisibleTo(ctx context.Context, user string, limit int) ([]*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	vals, err := l.client.LRange(ctx, messagesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read messages: %w", err)
	}

	visible := make([]*Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue
		}
		if m.VisibleTo(user) {
			visible = append(visible, &m)
		}
	}
	return applyLimit(visible, limit), nil
}

// Update locates the message by ID and rewrites it in place with LSET.
func (l *RedisLog) Update(ctx context.Context, id, editor, to, text string, kind Type) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	idx, m, _, err := l.find(ctx, id)
	if err != nil {
		return err
	}
	if m.From != editor {
		return ErrNotOwner
	}

	m.To = to
	m.Text = text
	m.Type = kind
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("redis: marshal message: %w", err)
	}
	if err := l.client.LSet(ctx, messagesKey, int64(idx), data).Err(); err != nil {
		return fmt.Errorf("redis: update message: %w", err)
	}
	return nil
}

// Delete removes the exact stored payload with LREM, enforcing ownership.
func (l *RedisLog) Delete(ctx context.Context, id, requester string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	_, m, raw, err := l.find(ctx, id)
	if err != nil {
		return err
	}
	if m.From != requester {
		return ErrNotOwner
	}

	if err := l.client.LRem(ctx, messagesKey, 1, raw).Err(); err != nil {
		return fmt.Errorf("redis: delete message: %w", err)
	}
	return nil
}

// find scans the list for the message with the given ID, returning its index,
// decoded form, and raw stored payload.
func (l *RedisLog) find(ctx context.Context, id string) (int, *Message, string, error) {
	vals, err := l.client.LRange(ctx, messagesKey, 0, -1).Result()
	if err != nil {
		return 0, nil, "", fmt.Errorf("redis: read messages: %w", err)
	}

	for i, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue
		}
		if m.ID == id {
			return i, &m, v, nil
		}
	}
	return 0, nil, "", ErrNotFound
}
