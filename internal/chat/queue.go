// Package chat relays ephemeral overlay messages through a capped
// Redis list per topic. Messages are opaque to the queue; nothing is
// persisted beyond the window.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Capacity is the number of messages retained per topic. Older
// messages fall off the end.
const Capacity = 100

// Message is one relayed chat or overlay item.
type Message struct {
	ID     string    `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Color  string    `json:"color,omitempty"`
	Kind   string    `json:"kind,omitempty"`
	Origin string    `json:"origin,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

// Queue is a capped per-topic message list backed by Redis.
type Queue struct {
	rdb *redis.Client
	now func() time.Time
}

// NewQueue constructs a Queue.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb, now: time.Now}
}

func key(topic string) string {
	return "chat:" + topic
}

// Push appends a message to the topic and trims the list to Capacity.
// The message's ID and SentAt are assigned here.
func (q *Queue) Push(ctx context.Context, topic string, msg Message) (Message, error) {
	msg.ID = uuid.NewString()
	msg.SentAt = q.now().UTC()

	raw, err := json.Marshal(msg)
	if err != nil {
		return Message{}, fmt.Errorf("chat: marshal: %w", err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, key(topic), raw)
	pipe.LTrim(ctx, key(topic), 0, Capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return Message{}, fmt.Errorf("chat: push: %w", err)
	}
	return msg, nil
}

// Window returns the messages at positions start..end, newest first,
// matching Redis LRANGE semantics. Undecodable entries are skipped.
func (q *Queue) Window(ctx context.Context, topic string, start, end int64) ([]Message, error) {
	raw, err := q.rdb.LRange(ctx, key(topic), start, end).Result()
	if err != nil {
		return nil, fmt.Errorf("chat: window: %w", err)
	}
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
