// Package config holds the build-time-fixed parameters of the index
// stack (spec §3 "Configuration parameters") threaded through as a
// struct, the way the teacher codebase threads its own *Config through
// every component, so tests can shrink them for fast property checks.
package config

// Config bundles the three spec-fixed parameters plus the cache root.
type Config struct {
	// WMax is the maximum supported terminal width; summary rows carry
	// one u32 entry per width in [1, WMax]. Reference value: 512.
	WMax int

	// SummaryInterval is the number of lines S per summary block.
	// Reference value: 1000.
	SummaryInterval int

	// ChunkSize is the Array file-growth granularity in bytes.
	// Reference value: 4096.
	ChunkSize int

	// CacheRoot is the directory under which per-log cache
	// subdirectories are created. Empty means "ask the OS" at open
	// time (os.UserCacheDir, joined with "logloglog").
	CacheRoot string
}

const (
	defaultWMax            = 512
	defaultSummaryInterval = 1000
	defaultChunkSize       = 4096
)

// Default returns the reference configuration from the spec.
func Default() *Config {
	return &Config{
		WMax:            defaultWMax,
		SummaryInterval: defaultSummaryInterval,
		ChunkSize:       defaultChunkSize,
	}
}

// ClampWidth applies the spec's width clamp: W <- min(max(W, 1), WMax).
func (c *Config) ClampWidth(w int) int {
	if w < 1 {
		return 1
	}
	if w > c.WMax {
		return c.WMax
	}
	return w
}
