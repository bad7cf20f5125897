// Package pubsub carries document store change signals between server
// instances through Redis pub/sub.
package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/familyalbum/internal/docstore"
)

// Ensure RedisNotifier implements docstore.Notifier
var _ docstore.Notifier = (*RedisNotifier)(nil)

const channelPrefix = "docstore:"

// RedisNotifier publishes "collection changed" messages on
// docstore:<collection>. Each message carries the publishing instance ID so
// an instance ignores its own writes.
type RedisNotifier struct {
	rdb        *redis.Client
	instanceID string
}

// NewRedisNotifier creates a notifier with a fresh instance ID.
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		rdb:        rdb,
		instanceID: uuid.New().String(),
	}
}

// Connect opens a Redis client and checks it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// InstanceID identifies this notifier in published messages.
func (n *RedisNotifier) InstanceID() string { return n.instanceID }

// Publish announces a change to collection.
func (n *RedisNotifier) Publish(ctx context.Context, collection string) error {
	return n.rdb.Publish(ctx, channelPrefix+collection, n.instanceID).Err()
}

// Listen calls fn for every change announced by another instance until ctx
// is done.
func (n *RedisNotifier) Listen(ctx context.Context, fn func(collection string)) error {
	ps := n.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()

	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	slog.Info("Listening for store changes", "instance_id", n.instanceID)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription closed")
			}
			if msg.Payload == n.instanceID {
				continue
			}
			fn(strings.TrimPrefix(msg.Channel, channelPrefix))
		}
	}
}
