package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wikidomains/internal/services/requests/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func note(recipient int64, comment string) domain.Notification {
	return domain.Notification{
		Event:     "requestssl-comment",
		RequestID: 7,
		Kind:      domain.KindSSL,
		Comment:   comment,
		Agent:     domain.UserActor(2, "Bob"),
		Recipient: domain.UserActor(recipient, "Alice"),
	}
}

func TestRedisSinkPublishesAndKeepsInbox(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "notifications:user:1")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	s := NewRedis(rdb, RedisOptions{})
	if err := s.Send(ctx, note(1, "hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got domain.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil || got.Comment != "hello" || got.Recipient.ID != 1 {
			t.Fatalf("payload = %q %v", msg.Payload, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}

	items, err := mr.List("notifications:inbox:1")
	if err != nil || len(items) != 1 {
		t.Fatalf("inbox = %v %v", items, err)
	}
	if ttl := mr.TTL("notifications:inbox:1"); ttl != defaultInboxTTL {
		t.Fatalf("ttl = %v", ttl)
	}
}

func TestRedisSinkCapsInbox(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)
	s := NewRedis(rdb, RedisOptions{InboxCap: 2})
	for _, c := range []string{"a", "b", "c"} {
		if err := s.Send(context.Background(), note(5, c)); err != nil {
			t.Fatal(err)
		}
	}
	items, _ := mr.List("notifications:inbox:5")
	if len(items) != 2 {
		t.Fatalf("inbox len = %d", len(items))
	}
	var newest domain.Notification
	_ = json.Unmarshal([]byte(items[0]), &newest)
	if newest.Comment != "c" {
		t.Fatalf("newest = %+v", newest)
	}
}

func TestRedisSinkErrors(t *testing.T) {
	t.Parallel()

	if err := NewRedis(nil, RedisOptions{}).Send(context.Background(), note(1, "x")); err == nil {
		t.Fatal("nil client accepted")
	}

	mr, rdb := newRedis(t)
	mr.Close()
	if err := NewRedis(rdb, RedisOptions{}).Send(context.Background(), note(1, "x")); err == nil {
		t.Fatal("closed redis should fail")
	}
}

type sinkFunc func(context.Context, domain.Notification) error

func (f sinkFunc) Send(ctx context.Context, n domain.Notification) error { return f(ctx, n) }

func TestFanout(t *testing.T) {
	t.Parallel()

	var calls int
	ok := sinkFunc(func(context.Context, domain.Notification) error { calls++; return nil })
	boom := errors.New("boom")
	bad := sinkFunc(func(context.Context, domain.Notification) error { calls++; return boom })

	f := Fanout{ok, nil, bad, NewLog()}
	if err := f.Send(context.Background(), note(1, "x")); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
	if err := (Fanout{ok}).Send(context.Background(), note(1, "x")); err != nil {
		t.Fatalf("ok fanout = %v", err)
	}
}
