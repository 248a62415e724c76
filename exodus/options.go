package exodus

import (
	"fmt"

	"github.com/meshio/exodus/internal/perf"
)

// config is the resolved construction-time configuration shared by
// Reader/Writer/Appender. Immutable once a role is constructed.
type config struct {
	preset    perf.Preset
	overrides perf.Overrides
}

// Option configures a Reader, Writer, or Appender at construction
// time. Functional-options pattern adapted from the teacher's
// libravdb/options.go `Option func(*Config) error`.
type Option func(*config) error

// WithPerformancePreset selects a canned deployment profile
// ("conservative", "aggressive") instead of relying on auto-detection.
func WithPerformancePreset(p perf.Preset) Option {
	return func(c *config) error {
		c.preset = p
		return nil
	}
}

// WithCacheBytes overrides the chunk cache's total byte budget.
func WithCacheBytes(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("cache bytes must be positive, got %d", n)
		}
		c.overrides.CacheBytes = &n
		return nil
	}
}

// WithPreemption overrides the chunk cache's preemption fraction.
func WithPreemption(f float64) Option {
	return func(c *config) error {
		if f < 0 || f > 1 {
			return fmt.Errorf("preemption must be in [0,1], got %g", f)
		}
		c.overrides.Preemption = &f
		return nil
	}
}

// WithNodeChunkSize overrides how many nodes are grouped per physical
// chunk for nodal variables.
func WithNodeChunkSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("node chunk size must be positive, got %d", n)
		}
		c.overrides.NodeChunk = &n
		return nil
	}
}

// WithElementChunkSize overrides how many elements are grouped per
// physical chunk for element variables.
func WithElementChunkSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("element chunk size must be positive, got %d", n)
		}
		c.overrides.ElementChunk = &n
		return nil
	}
}

// WithTimeChunkSize overrides how many time steps are grouped per
// physical chunk for time-varying variables.
func WithTimeChunkSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("time chunk size must be positive, got %d", n)
		}
		c.overrides.TimeChunk = &n
		return nil
	}
}

func resolveConfig(opts []Option) (*perf.Config, error) {
	cfg := &config{preset: perf.PresetAuto}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return perf.New(cfg.preset, cfg.overrides)
}
