package perf

import (
	"os"
	"runtime"
)

// DetectProfile picks a deployment profile ("compute-node" vs
// "login-node" vs "unknown" per spec.md section 4.2) from ambient
// process facts, the way the teacher's internal/memory/manager.go reads
// runtime.MemStats to judge memory pressure: here runtime.NumCPU and an
// optional environment hint stand in for that ambient signal.
func DetectProfile() Preset {
	if hint := os.Getenv("EXODUS_DEPLOY_PROFILE"); hint != "" {
		switch hint {
		case "conservative", "login-node":
			return PresetConservative
		case "aggressive", "compute-node":
			return PresetAggressive
		}
	}

	// Heuristic: a login node is shared and core-constrained per-process;
	// a compute node exposes the whole allocation to one process. Without
	// a cgroup/scheduler hint, many cores is the best available proxy.
	if runtime.NumCPU() >= 16 {
		return PresetAggressive
	}
	return PresetConservative
}
