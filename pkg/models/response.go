package models

import "time"

// APIResponse is the envelope every /api/v1 endpoint answers with
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Status    bool      `json:"status"`
	Message   string    `json:"message"`
	Error     string    `json:"error"`
	Kind      string    `json:"kind"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// StatusResponse describes live browser sessions and host load
type StatusResponse struct {
	Sessions      SessionStats `json:"sessions"`
	CPUPercent    float64      `json:"cpu_percent"`
	MemoryPercent float64      `json:"memory_percent"`
	Goroutines    int          `json:"goroutines"`

	// RPC holds per-method gRPC counters keyed by full method name
	RPC map[string]MethodStats `json:"rpc,omitempty"`
}

// MethodStats are the counters kept for one gRPC method
type MethodStats struct {
	Requests        int64  `json:"requests"`
	Errors          int64  `json:"errors"`
	AverageDuration string `json:"average_duration"`
}

// SessionStats are the counters kept by the browser session registry
type SessionStats struct {
	Live     int   `json:"live"`
	Capacity int   `json:"capacity"`
	Opened   int64 `json:"opened"`
	Failed   int64 `json:"failed"`
	Closed   int64 `json:"closed"`
}
