package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed before a message arrived")
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "mail", Body: json.RawMessage(`{"to":"a@b.c"}`)}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	msg := receive(t, ch)
	assert.Equal(t, "mail", msg.Type)
	assert.JSONEq(t, `{"to":"a@b.c"}`, string(msg.Body))
}

func TestInMemoryPublishRespectsContextWhenFull(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "x"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Publish(ctx, Message{Type: "y"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInMemoryConsumeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewRedisQueue(client, "test:queue")
	q.block = 100 * time.Millisecond

	require.NoError(t, q.Publish(ctx, Message{Type: "mail", Body: json.RawMessage(`{"subject":"hi"}`)}))
	assert.Equal(t, int64(1), client.LLen(ctx, "test:queue").Val())

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	msg := receive(t, ch)
	assert.Equal(t, "mail", msg.Type)
	assert.JSONEq(t, `{"subject":"hi"}`, string(msg.Body))
}

func TestRedisQueueDropsMalformed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewRedisQueue(client, "test:queue")
	q.block = 100 * time.Millisecond

	// BRPOP pops from the tail, so the malformed entry is read first.
	require.NoError(t, client.LPush(ctx, "test:queue", "not-json").Err())
	require.NoError(t, q.Publish(ctx, Message{Type: "ok"}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", receive(t, ch).Type)
}
