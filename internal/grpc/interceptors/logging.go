package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"malt-scraper/internal/logging"
	"malt-scraper/pkg/utils"
)

// RequestIDHeader is the metadata key carrying a caller-supplied request ID
const RequestIDHeader = "x-request-id"

func requestIDFromMetadata(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return utils.GenerateRequestID()
}

// LoggingInterceptor returns a gRPC unary interceptor that tags the context with a
// request ID and logs each call
func LoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	logger = logging.OrGlobal(logger)

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		ctx = logging.ContextWithRequestID(ctx, requestIDFromMetadata(ctx))
		log := logger.WithContext(ctx).WithField("method", info.FullMethod)

		log.Debug("gRPC request started")

		resp, err := handler(ctx, req)

		logFields := map[string]interface{}{
			"processing_time": utils.FormatDuration(time.Since(startTime)),
			"status_code":     status.Code(err).String(),
		}

		if err != nil {
			logFields["error"] = err.Error()
			log.Error("gRPC request failed", logFields)
		} else {
			log.Info("gRPC request completed", logFields)
		}

		return resp, err
	}
}
