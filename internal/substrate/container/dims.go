package container

import (
	"fmt"

	"github.com/meshio/exodus/internal/errs"
)

// UnlimitedDim is the reserved name for the single unlimited dimension a
// container may declare (the time axis).
const UnlimitedDim = "time_step"

// DefineDimension declares a named dimension of the given size. size 0
// declares the unlimited dimension; only UnlimitedDim may use it.
func (c *Container) DefineDimension(name string, size int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readOnly {
		return fmt.Errorf("%w: container is read-only", errs.ErrSequence)
	}
	if _, exists := c.dims[name]; exists {
		return fmt.Errorf("%w: dimension %q already defined", errs.ErrDuplicateID, name)
	}
	if size == 0 && name != UnlimitedDim {
		return fmt.Errorf("%w: only %q may be unlimited, got %q", errs.ErrSchema, UnlimitedDim, name)
	}
	if size < 0 {
		return fmt.Errorf("%w: dimension size must be non-negative, got %d", errs.ErrSchema, size)
	}
	c.dims[name] = dimDef{Name: name, Size: size}
	return nil
}

// DimensionSize returns the declared size of a dimension (0 for the
// unlimited dimension's nominal size; use UnlimitedExtent for its
// current extent).
func (c *Container) DimensionSize(name string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.dims[name]
	if !ok {
		return 0, false
	}
	return d.Size, true
}

// UnlimitedExtent returns how many steps have been written along
// UnlimitedDim so far, derived from the number of time-chunk records
// committed for any variable that uses it (0 if none yet).
func (c *Container) UnlimitedExtent() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var maxExtent int64
	for _, v := range c.vars {
		timeAxis := -1
		for i, d := range v.DimNames {
			if d == UnlimitedDim {
				timeAxis = i
				break
			}
		}
		if timeAxis == -1 {
			continue
		}
		for idx := range v.Chunks {
			extent := int64(idx+1) * int64(v.ChunkShape[timeAxis])
			if extent > maxExtent {
				maxExtent = extent
			}
		}
	}
	return maxExtent
}

// DimensionNames returns the declared dimension names in no particular
// order; callers that need the insertion order should track it
// separately (the catalog itself is an unordered map, matching how the
// underlying format treats dimensions as a flat namespace).
func (c *Container) DimensionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.dims))
	for n := range c.dims {
		names = append(names, n)
	}
	return names
}
