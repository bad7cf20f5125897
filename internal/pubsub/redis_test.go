package pubsub

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mmynk/familyalbum/internal/docstore"
)

// Requires a reachable Redis; set REDIS_ADDR to run.
func TestRedisNotifier(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer rdb.Close()

	listener := NewRedisNotifier(rdb)
	publisher := NewRedisNotifier(rdb)
	if listener.InstanceID() == publisher.InstanceID() {
		t.Fatal("instance IDs must differ")
	}

	got := make(chan string, 4)
	go listener.Listen(ctx, func(c string) { got <- c })

	// Give PSUBSCRIBE time to be confirmed.
	time.Sleep(200 * time.Millisecond)

	if err := listener.Publish(ctx, docstore.Users); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := publisher.Publish(ctx, docstore.Photos); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case c := <-got:
		// The listener's own publish is skipped.
		if c != docstore.Photos {
			t.Errorf("expected photos change, got %s", c)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for change")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Connect(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Error("expected error for unreachable redis")
	}
}
