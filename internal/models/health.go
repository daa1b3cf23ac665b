package models

import "time"

// MetricsSnapshot is a coarse summary of process counters.
type MetricsSnapshot struct {
	RequestsTotal         uint64    `json:"requests_total"`
	APICallsTotal         uint64    `json:"api_calls_total"`
	APIFailuresTotal      uint64    `json:"api_failures_total"`
	AverageAPICallLatency float64   `json:"average_api_call_latency_ms"`
	Goroutines            int       `json:"goroutines"`
	GeneratedAt           time.Time `json:"generated_at"`
}

// ReadinessStatus reports whether the User API is reachable.
type ReadinessStatus struct {
	Status    string           `json:"status"`
	APIURL    string           `json:"api_url"`
	Reachable bool             `json:"reachable"`
	LatencyMs int64            `json:"latency_ms"`
	Error     string           `json:"error,omitempty"`
	Metrics   *MetricsSnapshot `json:"metrics,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}
