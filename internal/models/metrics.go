package models

import "time"

// SystemMetrics summarises instrumentation for the JSON metrics endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	GatewayCalls             uint64    `json:"gateway_calls"`
	AverageGatewayDurationMs float64   `json:"average_gateway_duration_ms"`
	GatewayFallbacks         uint64    `json:"gateway_fallbacks"`
	CatalogSize              int       `json:"catalog_size"`
	CatalogSource            Source    `json:"catalog_source"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
