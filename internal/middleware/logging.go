package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/familyalbum/internal/metrics"
)

// Logging returns an interceptor that logs every RPC call: procedure,
// client ID, duration, and any error code/message. Unary latencies are
// also recorded in m (which may be nil).
//
// Install it after RequireAuth so the client ID is known.
func Logging(m *metrics.Metrics) connect.Interceptor {
	return &loggingInterceptor{metrics: m}
}

type loggingInterceptor struct {
	metrics *metrics.Metrics
}

func (l *loggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		elapsed := time.Since(start)

		logResult(ctx, req.Spec().Procedure, err, elapsed)
		code := "ok"
		if err != nil {
			code = connect.CodeOf(err).String()
		}
		l.metrics.RPC(req.Spec().Procedure, code, elapsed)

		return resp, err
	}
}

func (l *loggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (l *loggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		slog.Info("Stream opened",
			"procedure", conn.Spec().Procedure,
			"client_id", GetClientID(ctx),
		)
		err := next(ctx, conn)
		logResult(ctx, conn.Spec().Procedure, err, time.Since(start))
		return err
	}
}

func logResult(ctx context.Context, procedure string, err error, elapsed time.Duration) {
	clientID := GetClientID(ctx)
	duration := elapsed.Milliseconds()

	if err == nil {
		slog.Info("RPC ok",
			"procedure", procedure,
			"client_id", clientID,
			"duration_ms", duration,
		)
		return
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		slog.Warn("RPC error",
			"procedure", procedure,
			"code", connectErr.Code(),
			"error", connectErr.Message(),
			"client_id", clientID,
			"duration_ms", duration,
		)
		return
	}
	slog.Error("RPC error",
		"procedure", procedure,
		"error", err,
		"client_id", clientID,
		"duration_ms", duration,
	)
}
