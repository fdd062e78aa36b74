package interceptor

import (
	"context"
	"errors"
	"fmt"

	"github.com/chnu/award-monitoring-system/pkg/apperror"
	"github.com/chnu/award-monitoring-system/pkg/observability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var grpcCodes = []struct {
	target error
	code   codes.Code
}{
	{apperror.ErrNotFound, codes.NotFound},
	{apperror.ErrInvalidArgument, codes.InvalidArgument},
	{apperror.ErrConflict, codes.AlreadyExists},
}

// ErrorInterceptor turns panics and unknown errors into codes.Internal and
// maps application errors to their gRPC codes.
func ErrorInterceptor(log observability.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", observability.String("panic", fmt.Sprintf("%v", r)), observability.String("method", info.FullMethod))
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		resp, err = handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return nil, err
		}

		for _, m := range grpcCodes {
			if errors.Is(err, m.target) {
				return nil, status.Error(m.code, err.Error())
			}
		}

		log.Error("unhandled error", observability.Err(err), observability.String("method", info.FullMethod))
		return nil, status.Error(codes.Internal, "internal server error")
	}
}
