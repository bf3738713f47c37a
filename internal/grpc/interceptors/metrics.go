package interceptors

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"

	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

type methodMetrics struct {
	requests      int64
	errors        int64
	totalDuration time.Duration
}

// MetricsCollector counts calls and errors per gRPC method
type MetricsCollector struct {
	mu      sync.RWMutex
	methods map[string]*methodMetrics
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{methods: make(map[string]*methodMetrics)}
}

// RecordMetrics records one call of method
func (c *MetricsCollector) RecordMetrics(method string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.methods[method]
	if !ok {
		m = &methodMetrics{}
		c.methods[method] = m
	}
	m.requests++
	m.totalDuration += duration
	if err != nil {
		m.errors++
	}
}

// Snapshot returns the counters of every method called so far
func (c *MetricsCollector) Snapshot() map[string]models.MethodStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]models.MethodStats, len(c.methods))
	for method, m := range c.methods {
		out[method] = models.MethodStats{
			Requests:        m.requests,
			Errors:          m.errors,
			AverageDuration: utils.FormatDuration(m.totalDuration / time.Duration(m.requests)),
		}
	}
	return out
}

// MetricsInterceptor returns a gRPC unary interceptor feeding c
func MetricsInterceptor(c *MetricsCollector) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		c.RecordMetrics(info.FullMethod, time.Since(start), err)
		return resp, err
	}
}
