package notify

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	xerrors "taskmanager/internal/errors"
	"taskmanager/internal/task"
)

// RedisConfig describes the Redis list that receives events.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// listClient is the subset of *redis.Client the publisher uses.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher pushes JSON encoded events onto a Redis list. Consumers pop
// from the other end with BRPOP.
type RedisPublisher struct {
	client listClient
	key    string
}

// NewRedisPublisher connects to Redis and checks the connection with PING.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, xerrors.Wrap(xerrors.CodePublishFailure, err, "connect to redis",
			xerrors.WithMetadata("address", cfg.Address))
	}
	return newRedisPublisher(client, cfg.Key), nil
}

func newRedisPublisher(client listClient, key string) *RedisPublisher {
	if key == "" {
		key = "taskmanager:events"
	}
	return &RedisPublisher{client: client, key: key}
}

// Publish implements task.Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, ev task.Event) error {
	if p == nil || p.client == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "redis publisher not initialized")
	}
	body, err := encode(ev)
	if err != nil {
		return err
	}
	if err := p.client.LPush(ctx, p.key, body).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodePublishFailure, err, "redis publish task event",
			xerrors.WithMetadata("event_id", ev.ID))
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
