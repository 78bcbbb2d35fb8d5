package grpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"warehouse-lending-backend/internal/domain"
)

// Metadata keys set by the auth interceptor after the token is validated.
const (
	UserIDKey   = "user-id"
	UserRoleKey = "user-role"
)

// GetUserIDFromContext extracts the user ID from the gRPC metadata.
// It expects a header named "user-id".
func GetUserIDFromContext(ctx context.Context) (int32, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	userIDs := md.Get(UserIDKey)
	if len(userIDs) == 0 {
		return 0, status.Errorf(codes.Unauthenticated, "user_id is not provided in metadata")
	}

	userID, err := strconv.ParseInt(userIDs[0], 10, 32)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid user_id format: %v", err)
	}

	return int32(userID), nil
}

// GetIdentityFromContext returns the caller's user id and role.
func GetIdentityFromContext(ctx context.Context) (domain.Identity, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	md, _ := metadata.FromIncomingContext(ctx)
	roles := md.Get(UserRoleKey)
	if len(roles) == 0 {
		return domain.Identity{}, status.Errorf(codes.Unauthenticated, "user_role is not provided in metadata")
	}
	return domain.Identity{UserID: userID, Role: domain.Role(roles[0])}, nil
}
