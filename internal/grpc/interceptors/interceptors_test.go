package interceptors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"malt-scraper/internal/logging"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/malt.v1.ProfileService/ProcessProfile"}

func TestRecoveryInterceptor(t *testing.T) {
	resp, err := RecoveryInterceptor(logging.NewNop())(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestLoggingInterceptor_PropagatesRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-42"))

	var seen string
	_, err := LoggingInterceptor(logging.NewNop())(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logging.RequestIDFromContext(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", seen)

	_, _ = LoggingInterceptor(logging.NewNop())(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logging.RequestIDFromContext(ctx)
		return nil, nil
	})
	assert.NotEmpty(t, seen)
}

func TestMetricsInterceptor(t *testing.T) {
	c := NewMetricsCollector()
	interceptor := MetricsInterceptor(c)

	ok := func(ctx context.Context, req interface{}) (interface{}, error) { return nil, nil }
	fail := func(ctx context.Context, req interface{}) (interface{}, error) { return nil, errors.New("blocked") }

	_, _ = interceptor(context.Background(), nil, info, ok)
	_, _ = interceptor(context.Background(), nil, info, fail)
	_, _ = interceptor(context.Background(), nil, info, ok)

	snap := c.Snapshot()
	require.Contains(t, snap, info.FullMethod)
	assert.Equal(t, int64(3), snap[info.FullMethod].Requests)
	assert.Equal(t, int64(1), snap[info.FullMethod].Errors)

	c.RecordMetrics("/other", 2*time.Second, nil)
	assert.Equal(t, "2.00s", c.Snapshot()["/other"].AverageDuration)
}
