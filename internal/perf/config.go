package perf

import "fmt"

// Config is the performance configuration attached to a substrate
// handle exactly once, at open/create time (spec.md section 4.2).
// Immutable after construction — mirroring the teacher's
// internal/memory.MemoryConfig "defaults-with-override" shape
// (internal/memory/interfaces.go).
type Config struct {
	CacheBytes    int64
	Preemption    float64
	NodeChunk     int
	ElementChunk  int
	TimeChunk     int
}

// Overrides holds the subset of Config fields a caller explicitly
// supplied; absent fields (zero value, use a pointer to distinguish
// "not set") fall back to a profile-derived default.
type Overrides struct {
	CacheBytes   *int64
	Preemption   *float64
	NodeChunk    *int
	ElementChunk *int
	TimeChunk    *int
}

// Preset names a canned deployment profile.
type Preset int

const (
	PresetAuto Preset = iota
	PresetConservative
	PresetAggressive
)

// presetDefaults mirrors internal/memory.DefaultMemoryConfig: a static
// table of sensible defaults, one row per preset.
var presetDefaults = map[Preset]Config{
	PresetConservative: {
		CacheBytes:   32 * 1024 * 1024,
		Preemption:   0.75,
		NodeChunk:    1000,
		ElementChunk: 1000,
		TimeChunk:    1,
	},
	PresetAggressive: {
		CacheBytes:   512 * 1024 * 1024,
		Preemption:   0.1,
		NodeChunk:    100000,
		ElementChunk: 100000,
		TimeChunk:    200,
	},
}

// New builds a Config by resolving `preset` (auto detects a profile, see
// profile.go) to its defaults and then applying any explicit overrides
// supplied by the caller. Never mutated again after this call, per the
// role-construction contract in spec.md section 4.2.
func New(preset Preset, overrides Overrides) (*Config, error) {
	base := presetDefaults[PresetConservative]
	if preset == PresetAuto {
		base = presetDefaults[DetectProfile()]
	} else if row, ok := presetDefaults[preset]; ok {
		base = row
	}

	if overrides.CacheBytes != nil {
		base.CacheBytes = *overrides.CacheBytes
	}
	if overrides.Preemption != nil {
		base.Preemption = *overrides.Preemption
	}
	if overrides.NodeChunk != nil {
		base.NodeChunk = *overrides.NodeChunk
	}
	if overrides.ElementChunk != nil {
		base.ElementChunk = *overrides.ElementChunk
	}
	if overrides.TimeChunk != nil {
		base.TimeChunk = *overrides.TimeChunk
	}

	if err := base.validate(); err != nil {
		return nil, fmt.Errorf("invalid performance config: %w", err)
	}
	return &base, nil
}

func (c Config) validate() error {
	if c.CacheBytes <= 0 {
		return fmt.Errorf("cache bytes must be positive, got %d", c.CacheBytes)
	}
	if c.Preemption < 0 || c.Preemption > 1 {
		return fmt.Errorf("preemption must be in [0,1], got %g", c.Preemption)
	}
	if c.NodeChunk <= 0 || c.ElementChunk <= 0 || c.TimeChunk <= 0 {
		return fmt.Errorf("chunk sizes must be positive, got node=%d element=%d time=%d",
			c.NodeChunk, c.ElementChunk, c.TimeChunk)
	}
	return nil
}
