package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"warehouse-lending-backend/internal/logger"
)

const RequestIDKey = "x-request-id"

// RequestLogging tags every call with a request id (the caller's, or a new UUID),
// echoes it in the response header and logs the outcome.
func RequestLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			md = metadata.New(nil)
		} else {
			md = md.Copy()
		}
		requestID := ""
		if ids := md.Get(RequestIDKey); len(ids) > 0 && ids[0] != "" {
			requestID = ids[0]
		} else {
			requestID = uuid.NewString()
			md.Set(RequestIDKey, requestID)
		}
		ctx = metadata.NewIncomingContext(ctx, md)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, requestID))

		resp, err := handler(ctx, req)

		code := status.Code(err)
		args := []any{"method", info.FullMethod, "request_id", requestID, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
		if err != nil {
			logger.WarnContext(ctx, "gRPC call failed", append(args, "error", err)...)
		} else {
			logger.DebugContext(ctx, "gRPC call completed", args...)
		}
		return resp, err
	}
}
