package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
)

// toStatus maps a service error onto a gRPC status. Unknown errors are logged and hidden.
func toStatus(ctx context.Context, method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrReservationMismatch),
		errors.Is(err, domain.ErrUnknownInventoryRecord),
		errors.Is(err, domain.ErrInvalidTransition):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrInventoryContention), errors.Is(err, domain.ErrConflict):
		code = codes.Aborted
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		logger.ErrorContext(ctx, "Unhandled error in handler", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
