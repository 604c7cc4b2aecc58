package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/clinic-booking/internal/apperror"
)

// toStatus переводит ошибку приложения в gRPC-статус.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(grpcCode(apperror.KindOf(err)), apperror.Message(err))
}

func grpcCode(kind apperror.Kind) codes.Code {
	switch kind {
	case apperror.KindNotFound:
		return codes.NotFound
	case apperror.KindConflict:
		return codes.AlreadyExists
	case apperror.KindForbidden:
		return codes.PermissionDenied
	case apperror.KindBusinessRule:
		return codes.FailedPrecondition
	case apperror.KindValidation:
		return codes.InvalidArgument
	case apperror.KindGateway:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
