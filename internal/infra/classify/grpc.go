package classify

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/resilience/internal/core/failure"
)

// GRPC classifies a gRPC status error. It returns nil for errors that carry no status and for
// codes that are not failures (OK, Canceled).
func GRPC(err error) *failure.Error {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return nil
	}

	var kind failure.Kind
	switch st.Code() {
	case codes.OK, codes.Canceled:
		return nil
	case codes.DeadlineExceeded:
		kind = failure.APITimeout
	case codes.ResourceExhausted:
		kind = failure.APIRateLimit
	case codes.Unavailable, codes.Aborted, codes.Internal, codes.Unknown, codes.DataLoss:
		kind = failure.API
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		kind = failure.Validation
	case codes.Unauthenticated, codes.PermissionDenied, codes.Unimplemented:
		kind = failure.Configuration
	case codes.NotFound, codes.AlreadyExists:
		kind = failure.DataFetch
	default:
		kind = failure.API
	}

	fe := failure.Wrap(kind, err, "grpc %s: %s", st.Code(), st.Message())
	for _, d := range st.Details() {
		if ri, ok := d.(*errdetails.RetryInfo); ok && ri.GetRetryDelay() != nil {
			fe.RetryAfter = ri.GetRetryDelay().AsDuration()
		}
	}
	return fe
}
