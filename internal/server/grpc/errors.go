package grpc

import (
	"github.com/dmitrijs2005/gophstore/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusError maps a service error onto a gRPC status whose message is the
// sentinel text, so clients can map it back with common.FromMessage.
func statusError(err error) error {
	sentinel, ok := common.Surface(err)
	if !ok {
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
	return status.Error(codeFor(sentinel), sentinel.Error())
}

func codeFor(sentinel error) codes.Code {
	switch sentinel {
	case common.ErrValidation:
		return codes.InvalidArgument
	case common.ErrAlreadyOwned:
		return codes.AlreadyExists
	case common.ErrNotPurchasable, common.ErrPaymentNotCompleted, common.ErrDownloadTokenExpired:
		return codes.FailedPrecondition
	case common.ErrGatewayUnavailable:
		return codes.Unavailable
	case common.ErrNotOwned:
		return codes.PermissionDenied
	case common.ErrIntentNotFound, common.ErrDownloadTokenNotFound:
		return codes.NotFound
	case common.ErrorUnauthorized, common.ErrInvalidToken, common.ErrTokenExpired:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}
