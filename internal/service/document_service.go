// Package service implements the album connect services.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/familyalbum/internal/docstore"
	"github.com/mmynk/familyalbum/internal/middleware"
	"github.com/mmynk/familyalbum/internal/rpc"
)

// Ensure DocumentService implements rpc.DocumentServiceHandler
var _ rpc.DocumentServiceHandler = (*DocumentService)(nil)

// DocumentService exposes a docstore.Store over connect.
type DocumentService struct {
	store docstore.Store
}

// NewDocumentService creates a DocumentService backed by store.
func NewDocumentService(store docstore.Store) *DocumentService {
	return &DocumentService{store: store}
}

// Set overwrites one document.
func (s *DocumentService) Set(ctx context.Context, req *connect.Request[rpc.SetRequest]) (*connect.Response[emptypb.Empty], error) {
	msg := req.Msg
	slog.Debug("Set request received",
		"collection", msg.Collection,
		"key", msg.Key,
		"bytes", len(msg.Document),
		"client_id", middleware.GetClientID(ctx),
	)

	if len(msg.Document) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("document required"))
	}
	if !json.Valid(msg.Document) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("document is not valid JSON"))
	}
	if err := s.store.Set(ctx, msg.Collection, msg.Key, msg.Document); err != nil {
		slog.Error("Set failed", "collection", msg.Collection, "key", msg.Key, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Remove deletes one document.
func (s *DocumentService) Remove(ctx context.Context, req *connect.Request[rpc.RemoveRequest]) (*connect.Response[emptypb.Empty], error) {
	msg := req.Msg
	slog.Debug("Remove request received",
		"collection", msg.Collection,
		"key", msg.Key,
		"client_id", middleware.GetClientID(ctx),
	)

	if err := s.store.Remove(ctx, msg.Collection, msg.Key); err != nil {
		slog.Error("Remove failed", "collection", msg.Collection, "key", msg.Key, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Subscribe streams a snapshot of the collection now and after every change
// until the client goes away. Snapshots that arrive while the previous one is
// still being sent are coalesced: only the newest is sent.
func (s *DocumentService) Subscribe(ctx context.Context, req *connect.Request[rpc.SubscribeRequest], stream *connect.ServerStream[rpc.SnapshotMessage]) error {
	collection := req.Msg.Collection
	slog.Info("Subscribe request received",
		"collection", collection,
		"client_id", middleware.GetClientID(ctx),
	)

	latest := make(chan docstore.Snapshot, 1)
	unsubscribe, err := s.store.Subscribe(ctx, collection, func(snap docstore.Snapshot) {
		// Replace any snapshot not yet picked up by the sender.
		select {
		case <-latest:
		default:
		}
		latest <- snap
	})
	if err != nil {
		return toConnectError(err)
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-latest:
			if err := stream.Send(ToSnapshotMessage(snap)); err != nil {
				slog.Warn("Subscribe stream closed", "collection", collection, "error", err)
				return err
			}
		}
	}
}

// ToSnapshotMessage converts a store snapshot to its wire form.
func ToSnapshotMessage(snap docstore.Snapshot) *rpc.SnapshotMessage {
	msg := &rpc.SnapshotMessage{
		Collection: snap.Collection,
		Documents:  make([]rpc.Document, len(snap.Docs)),
	}
	for i, d := range snap.Docs {
		msg.Documents[i] = rpc.Document{Key: d.Key, Body: d.Body}
	}
	return msg
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, docstore.ErrUnknownCollection), errors.Is(err, docstore.ErrInvalidKey):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
