package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis, for deployments where agent
// replicas share one thread table. Each thread is a hash; the
// compare-and-set runs as a Lua script so the read-then-write is atomic
// on the server.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, default "planexec:"
}

var casScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'status')
if cur == ARGV[1] then
  redis.call('HSET', KEYS[1], 'status', ARGV[2])
  return 1
end
return 0
`)

// NewRedisStore creates a Redis-backed thread store.
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "planexec:"
	}

	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) threadKey(id string) string {
	return fmt.Sprintf("%sthread:%s", s.prefix, id)
}

// Create registers a thread in the "ready" state.
func (s *RedisStore) Create(ctx context.Context, threadID string) (*Entry, error) {
	key := s.threadKey(threadID)
	now := time.Now()

	ok, err := s.client.HSetNX(ctx, key, "status", string(StatusReady)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("thread already exists: %s", threadID)
	}
	if err := s.client.HSet(ctx, key, "created_at", now.Format(time.RFC3339Nano)).Err(); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	return &Entry{ThreadID: threadID, CreatedAt: now, Status: StatusReady}, nil
}

// Get returns the entry for a thread.
func (s *RedisStore) Get(ctx context.Context, threadID string) (*Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.threadKey(threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	entry := &Entry{
		ThreadID: threadID,
		Status:   Status(fields["status"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		entry.CreatedAt = ts
	}
	return entry, nil
}

// SetStatus unconditionally rewrites a thread's status.
func (s *RedisStore) SetStatus(ctx context.Context, threadID string, status Status) error {
	key := s.threadKey(threadID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to set thread status: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return s.client.HSet(ctx, key, "status", string(status)).Err()
}

// CompareAndSetStatus atomically swaps the status if it equals from.
func (s *RedisStore) CompareAndSetStatus(ctx context.Context, threadID string, from, to Status) (bool, error) {
	key := s.threadKey(threadID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to compare thread status: %w", err)
	}
	if exists == 0 {
		return false, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	res, err := casScript.Run(ctx, s.client, []string{key}, string(from), string(to)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to compare thread status: %w", err)
	}
	return res == 1, nil
}

// Delete removes a thread.
func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	return s.client.Del(ctx, s.threadKey(threadID)).Err()
}
