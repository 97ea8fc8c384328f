package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// bodyField is the stream entry field carrying the raw message payload.
const bodyField = "body"

// RedisStream implements Queue on a Redis stream with a consumer group.
// Group semantics give the required delivery model: XREADGROUP delivers
// each entry to exactly one consumer, and entries pending longer than the
// visibility timeout are reclaimed via XAUTOCLAIM, which is how
// unacknowledged messages come back around.
type RedisStream struct {
	client     *redis.Client
	stream     string
	group      string
	consumer   string
	visibility time.Duration
}

// StreamOptions configures a RedisStream queue.
type StreamOptions struct {
	Stream     string
	Group      string
	Consumer   string
	Visibility time.Duration
}

// NewRedisStream wraps an existing Redis client as a stream-backed queue.
func NewRedisStream(client *redis.Client, opts StreamOptions) *RedisStream {
	if opts.Visibility == 0 {
		opts.Visibility = 30 * time.Second
	}
	return &RedisStream{
		client:     client,
		stream:     opts.Stream,
		group:      opts.Group,
		consumer:   opts.Consumer,
		visibility: opts.Visibility,
	}
}

// Ensure creates the stream and consumer group if absent. An already
// existing group is not an error.
func (q *RedisStream) Ensure(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create stream group %s/%s: %w", q.stream, q.group, err)
	}
	return nil
}

// Receive first reclaims entries another consumer left pending beyond the
// visibility timeout, then long-polls for new entries. Either source yields
// at most max messages; a wait that elapses with nothing is an empty result.
func (q *RedisStream) Receive(ctx context.Context, max int64, wait time.Duration) ([]Message, error) {
	reclaimed, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: q.consumer,
		MinIdle:  q.visibility,
		Start:    "0-0",
		Count:    max,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reclaim pending entries: %w", err)
	}
	if len(reclaimed) > 0 {
		return toMessages(reclaimed), nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    max,
		Block:    wait,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // block timeout, nothing arrived
		}
		return nil, fmt.Errorf("read stream group: %w", err)
	}

	var msgs []Message
	for _, stream := range streams {
		msgs = append(msgs, toMessages(stream.Messages)...)
	}
	return msgs, nil
}

// Ack removes entries from the pending list so they are never redelivered.
func (q *RedisStream) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := q.client.XAck(ctx, q.stream, q.group, ids...).Err(); err != nil {
		return fmt.Errorf("ack %v: %w", ids, err)
	}
	return nil
}

// Publish appends one payload to the stream.
func (q *RedisStream) Publish(ctx context.Context, body []byte) (string, error) {
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{bodyField: body},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", q.stream, err)
	}
	return id, nil
}

func toMessages(entries []redis.XMessage) []Message {
	msgs := make([]Message, 0, len(entries))
	for _, entry := range entries {
		var body []byte
		if raw, ok := entry.Values[bodyField].(string); ok {
			body = []byte(raw)
		}
		msgs = append(msgs, Message{ID: entry.ID, Body: body})
	}
	return msgs
}
