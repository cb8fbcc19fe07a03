// Package notify publishes task change events to an external feed. The
// backends are a Redis list and a RabbitMQ queue; the default is Noop.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"taskmanager/internal/config"
	xerrors "taskmanager/internal/errors"
	"taskmanager/internal/task"
)

// Noop drops every event.
type Noop struct{}

// Publish implements task.Publisher.
func (Noop) Publish(context.Context, task.Event) error { return nil }

// Close implements task.Publisher.
func (Noop) Close() error { return nil }

// New builds the publisher selected by cfg.Driver.
func New(ctx context.Context, cfg config.NotifyConfig) (task.Publisher, error) {
	switch cfg.Driver {
	case "", config.NotifyNone:
		return Noop{}, nil
	case config.NotifyRedis:
		pub, err := NewRedisPublisher(ctx, RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	case config.NotifyRabbitMQ:
		pub, err := NewRabbitMQPublisher(RabbitMQConfig{
			URL:     cfg.RabbitMQ.URL,
			Queue:   cfg.RabbitMQ.Queue,
			Durable: cfg.RabbitMQ.Durable,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("unknown notify driver %q", cfg.Driver))
	}
}

func encode(ev task.Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodePublishFailure, err, "encode task event")
	}
	return body, nil
}

var (
	_ task.Publisher = Noop{}
	_ task.Publisher = (*RedisPublisher)(nil)
	_ task.Publisher = (*RabbitMQPublisher)(nil)
)
