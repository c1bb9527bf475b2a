package chat_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/reelhouse/reelhouse/internal/chat"
	_ "github.com/reelhouse/reelhouse/testing"
)

func newQueue(t *testing.T) (*chat.Queue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return chat.NewQueue(client), client
}

func TestPushAssignsIdentityAndTime(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	msg, err := q.Push(ctx, "lobby", chat.Message{Author: "ada", Text: "hi"})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if msg.ID == "" {
		t.Fatalf("expected an assigned ID")
	}
	if msg.SentAt.IsZero() {
		t.Fatalf("expected an assigned timestamp")
	}
	if msg.Author != "ada" || msg.Text != "hi" {
		t.Fatalf("payload must survive: %+v", msg)
	}
}

func TestWindowNewestFirst(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := q.Push(ctx, "lobby", chat.Message{Author: "ada", Text: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	msgs, err := q.Window(ctx, "lobby", 0, chat.Capacity-1)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"m2", "m1", "m0"} {
		if msgs[i].Text != want {
			t.Fatalf("position %d: expected %q got %q", i, want, msgs[i].Text)
		}
	}
}

func TestQueueCapsAtCapacity(t *testing.T) {
	q, client := newQueue(t)
	ctx := context.Background()

	for i := 0; i < chat.Capacity+25; i++ {
		if _, err := q.Push(ctx, "lobby", chat.Message{Author: "ada", Text: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	size, err := client.LLen(ctx, "chat:lobby").Result()
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if size != chat.Capacity {
		t.Fatalf("expected list capped at %d, got %d", chat.Capacity, size)
	}

	msgs, err := q.Window(ctx, "lobby", 0, 0)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != fmt.Sprintf("m%d", chat.Capacity+24) {
		t.Fatalf("expected the newest message at position 0, got %+v", msgs)
	}
}

func TestTopicsAreIndependent(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	if _, err := q.Push(ctx, "lobby", chat.Message{Author: "ada", Text: "a"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := q.Push(ctx, "movie-7", chat.Message{Author: "bob", Text: "b"}); err != nil {
		t.Fatalf("push: %v", err)
	}

	lobby, _ := q.Window(ctx, "lobby", 0, chat.Capacity-1)
	movie, _ := q.Window(ctx, "movie-7", 0, chat.Capacity-1)
	if len(lobby) != 1 || lobby[0].Text != "a" {
		t.Fatalf("lobby window wrong: %+v", lobby)
	}
	if len(movie) != 1 || movie[0].Text != "b" {
		t.Fatalf("movie window wrong: %+v", movie)
	}
}

func TestWindowSkipsUndecodableEntries(t *testing.T) {
	q, client := newQueue(t)
	ctx := context.Background()

	if _, err := q.Push(ctx, "lobby", chat.Message{Author: "ada", Text: "ok"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := client.LPush(ctx, "chat:lobby", "not json").Err(); err != nil {
		t.Fatalf("lpush garbage: %v", err)
	}

	msgs, err := q.Window(ctx, "lobby", 0, chat.Capacity-1)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "ok" {
		t.Fatalf("expected garbage skipped, got %+v", msgs)
	}
}
