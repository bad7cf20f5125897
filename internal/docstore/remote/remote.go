// Package remote implements docstore.Store on top of the connect
// DocumentService, so that an album session can run against a store server.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/familyalbum/internal/docstore"
	"github.com/mmynk/familyalbum/internal/middleware"
	"github.com/mmynk/familyalbum/internal/rpc"
)

// Ensure Client implements docstore.Store
var _ docstore.Store = (*Client)(nil)

// Client is a docstore.Store backed by a remote store server.
type Client struct {
	rpc *rpc.DocumentServiceClient
}

// New connects to the store at baseURL, presenting token on every call.
// httpClient may be nil to use http.DefaultClient.
func New(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if token != "" {
		opts = append(opts, connect.WithInterceptors(middleware.BearerCredentials(token)))
	}
	return &Client{rpc: rpc.NewDocumentServiceClient(httpClient, baseURL, opts...)}
}

// Set overwrites collection/key on the server.
func (c *Client) Set(ctx context.Context, collection, key string, doc any) error {
	if err := docstore.Validate(collection, key); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	_, err = c.rpc.Set(ctx, connect.NewRequest(&rpc.SetRequest{
		Collection: collection,
		Key:        key,
		Document:   body,
	}))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Remove deletes collection/key on the server.
func (c *Client) Remove(ctx context.Context, collection, key string) error {
	if err := docstore.Validate(collection, key); err != nil {
		return err
	}
	_, err := c.rpc.Remove(ctx, connect.NewRequest(&rpc.RemoveRequest{
		Collection: collection,
		Key:        key,
	}))
	if err != nil {
		return fmt.Errorf("remove %s/%s: %w", collection, key, err)
	}
	return nil
}

// Subscribe opens a snapshot stream. It blocks until the first snapshot has
// been delivered to fn, then keeps delivering from a background goroutine
// until unsubscribe is called, ctx is done, or the stream fails. A failed
// stream is logged and not reopened.
func (c *Client) Subscribe(ctx context.Context, collection string, fn docstore.Listener) (func(), error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.rpc.Subscribe(ctx, connect.NewRequest(&rpc.SubscribeRequest{Collection: collection}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	if !stream.Receive() {
		err := stream.Err()
		stream.Close()
		cancel()
		if err == nil {
			err = fmt.Errorf("stream ended before first snapshot")
		}
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}
	fn(fromSnapshotMessage(stream.Msg()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close()
		for stream.Receive() {
			fn(fromSnapshotMessage(stream.Msg()))
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			slog.Error("Subscription stream failed", "collection", collection, "error", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func fromSnapshotMessage(msg *rpc.SnapshotMessage) docstore.Snapshot {
	snap := docstore.Snapshot{
		Collection: msg.Collection,
		Docs:       make([]docstore.Doc, len(msg.Documents)),
	}
	for i, d := range msg.Documents {
		snap.Docs[i] = docstore.Doc{Key: d.Key, Body: d.Body}
	}
	return snap
}
