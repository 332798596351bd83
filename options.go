package logloglog

import (
	"github.com/kbazzad/logloglog/internal/config"
	"github.com/kbazzad/logloglog/internal/logger"
)

// Option configures an Indexer at Open time.
type Option func(*openOptions)

type openOptions struct {
	widthFn  WidthFunc
	cacheDir string
	log      *logger.Logger
	cfg      *config.Config
}

func defaultOpenOptions() *openOptions {
	return &openOptions{
		widthFn: newDefaultWidthFunc(),
		log:     logger.Default(),
		cfg:     config.Default(),
	}
}

// WithWidthFunc overrides the function used to measure a decoded
// line's display width. The default is ASCII-fast-path plus a
// Unicode-aware fallback (see width.go).
func WithWidthFunc(fn WidthFunc) Option {
	return func(o *openOptions) { o.widthFn = fn }
}

// WithCacheDir overrides the cache root directory under which
// per-log identity subdirectories are created. The default asks the
// OS for a platform cache location (os.UserCacheDir).
func WithCacheDir(dir string) Option {
	return func(o *openOptions) { o.cacheDir = dir }
}

// WithLogger redirects the Indexer's ambient diagnostics. Pass
// logger.Discard() to silence them entirely.
func WithLogger(l *logger.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithConfig overrides the build-time-fixed parameters (W_max, S,
// CHUNK). Only meant for tests shrinking these for speed; production
// callers should use config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *openOptions) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}
