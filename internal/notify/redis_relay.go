package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"QA_Community/internal/pkg"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRelay 通过 redis pub/sub 把事件同步给其他实例
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	origin  string
	local   Sink
	ready   chan struct{}
}

type relayMessage struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// NewRedisRelay local 是收到其他实例事件后的本地去向，一般是 Hub
func NewRedisRelay(rdb *redis.Client, channel string, local Sink) *RedisRelay {
	return &RedisRelay{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		ready:   make(chan struct{}),
	}
}

func (r *RedisRelay) Name() string { return "redis" }

// Ready 订阅建立后关闭
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

func (r *RedisRelay) Deliver(ctx context.Context, ev Event) error {
	b, err := json.Marshal(relayMessage{Origin: r.origin, Event: ev})
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run 阻塞消费，直到 ctx 结束；跳过本实例发出的消息
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	close(r.ready)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var rm relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				pkg.Logger.WithError(err).Warn("relay: bad payload")
				continue
			}
			if rm.Origin == r.origin {
				continue
			}
			if err := r.local.Deliver(ctx, rm.Event); err != nil {
				pkg.Logger.WithError(err).Warn("relay: local deliver failed")
			}
		}
	}
}
