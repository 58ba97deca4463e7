package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// wireEvent is the JSON form on the Redis channel. Payload stays raw so a
// relayed event re-encodes byte for byte.
type wireEvent struct {
	Name      string          `json:"event"`
	Topics    []Topic         `json:"topics"`
	Payload   json.RawMessage `json:"payload"`
	Origin    string          `json:"origin"`
	Timestamp time.Time       `json:"ts"`
}

// RedisRelay shares events between server instances. As a Sink it publishes
// local events to a Redis channel; Run feeds events from other instances
// into the local sink.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	local   Sink
	ready   chan struct{}
	logger  *slog.Logger
}

// NewRedisRelay connects to redisURL and checks the connection.
func NewRedisRelay(redisURL, channel string, local Sink, logger *slog.Logger) (*RedisRelay, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisRelayWithClient(client, channel, local, logger), nil
}

// NewRedisRelayWithClient creates a relay from an existing client.
func NewRedisRelayWithClient(client *redis.Client, channel string, local Sink, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		ready:   make(chan struct{}),
		logger:  logger.With("component", "realtime.redis"),
	}
}

// Deliver publishes evt for the other instances.
func (r *RedisRelay) Deliver(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(wireEvent{
		Name:      evt.Name,
		Topics:    evt.Topics,
		Payload:   payload,
		Origin:    r.origin,
		Timestamp: evt.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Ready is closed once Run has an active subscription.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run consumes the channel until ctx is cancelled. Events published by this
// instance are skipped; they were already delivered locally.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	close(r.ready)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, raw string) {
	var w wireEvent
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		r.logger.Warn("discarding malformed relayed event", "err", err)
		return
	}
	if w.Origin == r.origin {
		return
	}
	evt := Event{
		Name:      w.Name,
		Topics:    w.Topics,
		Payload:   w.Payload,
		Origin:    w.Origin,
		Timestamp: w.Timestamp,
	}
	if err := r.local.Deliver(ctx, evt); err != nil {
		r.logger.Warn("local delivery of relayed event failed", "event", w.Name, "err", err)
	}
}

// Ping checks if Redis is reachable.
func (r *RedisRelay) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}
