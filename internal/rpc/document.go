// Package rpc defines the wire contract of the album.v1.DocumentService
// connect service: messages, procedure names, and handler/client
// constructors shaped like generated connect code.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// DocumentServiceName is the fully-qualified name of the service.
const DocumentServiceName = "album.v1.DocumentService"

// Procedure paths.
const (
	DocumentServiceSetProcedure       = "/album.v1.DocumentService/Set"
	DocumentServiceRemoveProcedure    = "/album.v1.DocumentService/Remove"
	DocumentServiceSubscribeProcedure = "/album.v1.DocumentService/Subscribe"
)

// SetRequest overwrites one document.
type SetRequest struct {
	Collection string          `json:"collection"`
	Key        string          `json:"key"`
	Document   json.RawMessage `json:"document"`
}

// RemoveRequest deletes one document.
type RemoveRequest struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
}

// SubscribeRequest opens a snapshot stream for a collection.
type SubscribeRequest struct {
	Collection string `json:"collection"`
}

// Document is one entry of a SnapshotMessage.
type Document struct {
	Key  string          `json:"key"`
	Body json.RawMessage `json:"body"`
}

// SnapshotMessage carries a full collection, ordered by key.
type SnapshotMessage struct {
	Collection string     `json:"collection"`
	Documents  []Document `json:"documents"`
}

// DocumentServiceHandler is implemented by the server.
type DocumentServiceHandler interface {
	Set(context.Context, *connect.Request[SetRequest]) (*connect.Response[emptypb.Empty], error)
	Remove(context.Context, *connect.Request[RemoveRequest]) (*connect.Response[emptypb.Empty], error)
	Subscribe(context.Context, *connect.Request[SubscribeRequest], *connect.ServerStream[SnapshotMessage]) error
}

// NewDocumentServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewDocumentServiceHandler(svc DocumentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	setHandler := connect.NewUnaryHandler(DocumentServiceSetProcedure, svc.Set, opts...)
	removeHandler := connect.NewUnaryHandler(DocumentServiceRemoveProcedure, svc.Remove, opts...)
	subscribeHandler := connect.NewServerStreamHandler(DocumentServiceSubscribeProcedure, svc.Subscribe, opts...)

	return "/" + DocumentServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DocumentServiceSetProcedure:
			setHandler.ServeHTTP(w, r)
		case DocumentServiceRemoveProcedure:
			removeHandler.ServeHTTP(w, r)
		case DocumentServiceSubscribeProcedure:
			subscribeHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// DocumentServiceClient is the client side of the service.
type DocumentServiceClient struct {
	set       *connect.Client[SetRequest, emptypb.Empty]
	remove    *connect.Client[RemoveRequest, emptypb.Empty]
	subscribe *connect.Client[SubscribeRequest, SnapshotMessage]
}

// NewDocumentServiceClient constructs a client for the service at baseURL
// (e.g. http://localhost:8080).
func NewDocumentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *DocumentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &DocumentServiceClient{
		set:       connect.NewClient[SetRequest, emptypb.Empty](httpClient, baseURL+DocumentServiceSetProcedure, opts...),
		remove:    connect.NewClient[RemoveRequest, emptypb.Empty](httpClient, baseURL+DocumentServiceRemoveProcedure, opts...),
		subscribe: connect.NewClient[SubscribeRequest, SnapshotMessage](httpClient, baseURL+DocumentServiceSubscribeProcedure, opts...),
	}
}

// Set calls album.v1.DocumentService.Set.
func (c *DocumentServiceClient) Set(ctx context.Context, req *connect.Request[SetRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.set.CallUnary(ctx, req)
}

// Remove calls album.v1.DocumentService.Remove.
func (c *DocumentServiceClient) Remove(ctx context.Context, req *connect.Request[RemoveRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.remove.CallUnary(ctx, req)
}

// Subscribe calls album.v1.DocumentService.Subscribe.
func (c *DocumentServiceClient) Subscribe(ctx context.Context, req *connect.Request[SubscribeRequest]) (*connect.ServerStreamForClient[SnapshotMessage], error) {
	return c.subscribe.CallServerStream(ctx, req)
}
