package config

import (
	"runtime"
	"time"
)

// Default resolution chain (highest priority first):
//   1. CLI flags (--buffer, --interval)
//   2. Environment variables (FIBITER_BUFFER, FIBITER_INTERVAL)
//   3. Hardware and mode estimation (this file)

// DefaultTUIInterval paces the dashboard so the term log stays readable.
const DefaultTUIInterval = 150 * time.Millisecond

// ApplyAdaptiveDefaults fills fields left at their zero value with values
// derived from the host and the selected mode.
func ApplyAdaptiveDefaults(cfg AppConfig) AppConfig {
	if cfg.Buffer == 0 {
		cfg.Buffer = EstimateBufferSize(cfg.Count)
	}
	if cfg.TUI && cfg.Interval == 0 {
		cfg.Interval = DefaultTUIInterval
	}
	return cfg
}

// EstimateBufferSize picks the channel capacity between the term producer
// and the writer. The result never exceeds count when count is non-zero.
func EstimateBufferSize(count uint64) int {
	numCPU := runtime.NumCPU()

	var size int
	switch {
	case numCPU == 1:
		size = 16
	case numCPU <= 4:
		size = 64
	case numCPU <= 16:
		size = 256
	default:
		size = 1024
	}
	if count > 0 && count < uint64(size) {
		size = int(count)
	}
	return size
}
