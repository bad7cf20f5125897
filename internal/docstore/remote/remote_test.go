package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/familyalbum/internal/auth"
	"github.com/mmynk/familyalbum/internal/docstore"
	"github.com/mmynk/familyalbum/internal/middleware"
	"github.com/mmynk/familyalbum/internal/models"
	"github.com/mmynk/familyalbum/internal/rpc"
	"github.com/mmynk/familyalbum/internal/service"
	"github.com/mmynk/familyalbum/internal/storage/sqlite"
)

const testSecret = "test-secret"

// setupTestServer starts a store server and returns a client holding a valid credential.
func setupTestServer(t *testing.T) (*Client, *docstore.Local, string) {
	t.Helper()

	backend, err := sqlite.New(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	local := docstore.NewLocal(backend)

	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	path, handler := rpc.NewDocumentServiceHandler(
		service.NewDocumentService(local),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.Logging(nil)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		backend.Close()
	})

	token, err := jwtManager.Generate("test-client")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return New(server.Client(), server.URL, token), local, server.URL
}

// waitSnapshot reads from ch until pred holds or the timeout expires.
func waitSnapshot(t *testing.T, ch <-chan docstore.Snapshot, pred func(docstore.Snapshot) bool) docstore.Snapshot {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap := <-ch:
			if pred(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestClient_SetAndSubscribe(t *testing.T) {
	client, _, _ := setupTestServer(t)
	ctx := context.Background()

	if err := client.Set(ctx, docstore.Groups, "g1", models.Group{Name: "Family", Members: []string{"u1"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ch := make(chan docstore.Snapshot, 16)
	unsubscribe, err := client.Subscribe(ctx, docstore.Groups, func(s docstore.Snapshot) { ch <- s })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	// The first snapshot is delivered before Subscribe returns.
	select {
	case snap := <-ch:
		groups, err := docstore.Decode[models.Group](snap)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != "g1" || groups[0].Name != "Family" {
			t.Errorf("unexpected initial groups: %+v", groups)
		}
	default:
		t.Fatal("expected initial snapshot before Subscribe returned")
	}

	key, err := docstore.Push(ctx, client, docstore.Groups, models.Group{Name: "Friends"})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	snap := waitSnapshot(t, ch, func(s docstore.Snapshot) bool { return s.Len() == 2 })
	if snap.Docs[1].Key != key {
		t.Errorf("expected pushed key last, got %s", snap.Docs[1].Key)
	}

	if err := client.Remove(ctx, docstore.Groups, "g1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	waitSnapshot(t, ch, func(s docstore.Snapshot) bool { return s.Len() == 1 && s.Docs[0].Key == key })
}

func TestClient_UnsubscribeStopsStream(t *testing.T) {
	client, local, _ := setupTestServer(t)
	ctx := context.Background()

	unsubscribe, err := client.Subscribe(ctx, docstore.Photos, func(docstore.Snapshot) {})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if local.Subscribers(docstore.Photos) != 1 {
		t.Fatalf("expected server-side subscriber")
	}

	unsubscribe()

	deadline := time.Now().Add(5 * time.Second)
	for local.Subscribers(docstore.Photos) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("server kept the subscription after unsubscribe")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClient_Errors(t *testing.T) {
	client, _, url := setupTestServer(t)
	ctx := context.Background()

	t.Run("unknown collection rejected locally", func(t *testing.T) {
		if err := client.Set(ctx, "familyMembers", "k", struct{}{}); !errors.Is(err, docstore.ErrUnknownCollection) {
			t.Errorf("expected ErrUnknownCollection, got %v", err)
		}
		if _, err := client.Subscribe(ctx, "comments", func(docstore.Snapshot) {}); !errors.Is(err, docstore.ErrUnknownCollection) {
			t.Errorf("expected ErrUnknownCollection, got %v", err)
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		anonymous := New(nil, url, "")
		err := anonymous.Set(ctx, docstore.Users, "u1", models.User{Username: "x"})
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("expected CodeUnauthenticated, got %v", err)
		}
		if _, err := anonymous.Subscribe(ctx, docstore.Users, func(docstore.Snapshot) {}); connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("expected CodeUnauthenticated for stream, got %v", err)
		}
	})

	t.Run("forged credential", func(t *testing.T) {
		forged, err := auth.NewJWTManager("not-the-secret", time.Hour).Generate("intruder")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		err = New(nil, url, forged).Remove(ctx, docstore.Users, "u1")
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("expected CodeUnauthenticated, got %v", err)
		}
	})
}
