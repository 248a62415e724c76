package transform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/meshio/exodus/internal/geom"
	"github.com/meshio/exodus/internal/obs"
	"github.com/meshio/exodus/internal/schema"
	"go.uber.org/zap"
)

// Source is the slice of exodus.Reader the pipeline depends on. Kept
// narrow (substrate-style) so internal/transform never imports the
// public exodus package and stays free of an import cycle.
type Source interface {
	Title() (string, error)
	NumNodes() (int, error)
	NumTimeSteps() (int, error)
	Coordinates() (schema.Coordinates, error)
	Connectivity(blockID int64) ([]schema.NodeID, error)
	GlobalVariables(step int) ([]float64, error)
	NodalVariable(name string, step int) ([]float64, error)
	ElemVariable(blockID int64, name string, step int) ([]float64, error)
}

// Sink is the slice of exodus.Writer the pipeline depends on.
type Sink interface {
	PutCoordinates(c schema.Coordinates) error
	PutConnectivity(blockID int64, conn []schema.NodeID) error
	PutTimeStep(step int, t float64) error
	PutGlobalVariables(step int, values []float64) error
	PutNodalVariable(step int, name string, values []float64) error
	PutElemVariable(step int, blockID int64, name string, values []float64) error
}

// Block describes one element block a run operates over, since
// neither Source nor Sink exposes block enumeration directly (that
// lives on the schema.InitParams/Block records the caller already has
// from opening the input file).
type Block struct {
	ID            int64
	NumEntries    int
	NodesPerEntry int
}

// NodalVariableRotation rotates a 6-component symmetric tensor field
// stored as six separate scalar nodal variables (xx, yy, zz, xy, yz,
// xz suffixes) by a fixed rotation matrix at every node, every step.
type NodalVariableRotation struct {
	BaseName string // e.g. "stress" -> stress_xx, stress_yy, ...
	Rotation Mat3
}

// Options configures one pipeline run (spec.md section 4.7).
type Options struct {
	Transform      *CoordinateTransform
	TensorRotation *NodalVariableRotation
	ScaleVariables map[string]float64 // variable name -> multiplicative factor
	Blocks         []Block
	Times          []float64
	GlobalVarCount int
	NodalVars      []string
	ElemVars       map[int64][]string // blockID -> variable names
}

// StageTiming records one pipeline stage's wall-clock duration.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Result is the pipeline's structured outcome: per-stage timing, a
// peak-memory figure (the largest heap allocation sampled at the end of
// each stage), and any non-fatal warnings accumulated along the way
// (spec.md section 4.7's "Warnings channel"). Run itself performs no
// operator that emits warnings, so it leaves Warnings empty.
type Result struct {
	Stages    []StageTiming `json:"stages"`
	PeakAlloc uint64        `json:"peak_alloc_bytes"`
	Warnings  []Warning     `json:"warnings"`
}

// Run drives the five-stage transform pipeline end to end: read
// metadata, copy mesh structure, transform coordinates, transform
// variables, write output. Grounded on the teacher's
// time.Since(start)-per-operation timing (libravdb/collection.go's
// Search method) generalized from one operation to five pipeline
// stages.
func Run(src Source, dst Sink, opts Options, metrics *obs.Metrics, log *zap.Logger) (*Result, error) {
	res := &Result{}

	stage := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		elapsed := time.Since(start)
		res.Stages = append(res.Stages, StageTiming{Stage: name, Duration: elapsed})
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if ms.HeapAlloc > res.PeakAlloc {
			res.PeakAlloc = ms.HeapAlloc
		}
		if metrics != nil {
			metrics.PipelineStage.WithLabelValues(name).Observe(elapsed.Seconds())
		}
		if err != nil {
			if metrics != nil {
				metrics.PipelineErrors.WithLabelValues(name).Inc()
			}
			if log != nil {
				log.Error("pipeline stage failed", zap.String("stage", name), zap.Error(err))
			}
			return fmt.Errorf("stage %q: %w", name, err)
		}
		if log != nil {
			log.Info("pipeline stage complete", zap.String("stage", name), zap.Duration("elapsed", elapsed))
		}
		return nil
	}

	var coords schema.Coordinates
	var numSteps int

	if err := stage("read-metadata", func() error {
		var err error
		coords, err = src.Coordinates()
		if err != nil {
			return err
		}
		numSteps, err = src.NumTimeSteps()
		return err
	}); err != nil {
		return res, err
	}

	if err := stage("copy-mesh", func() error {
		for _, b := range opts.Blocks {
			conn, err := src.Connectivity(b.ID)
			if err != nil {
				return err
			}
			if err := dst.PutConnectivity(b.ID, conn); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return res, err
	}

	if err := stage("transform-coords", func() error {
		points := CoordsToPoints(coords)
		if opts.Transform != nil {
			points = opts.Transform.ApplyAll(points)
		}
		out := PointsToCoords(points, coords)
		return dst.PutCoordinates(out)
	}); err != nil {
		return res, err
	}

	if err := stage("transform-variables", func() error {
		for step := 0; step < numSteps; step++ {
			if step < len(opts.Times) {
				if err := dst.PutTimeStep(step, opts.Times[step]); err != nil {
					return err
				}
			}
			if opts.GlobalVarCount > 0 {
				vals, err := src.GlobalVariables(step)
				if err != nil {
					return err
				}
				if err := dst.PutGlobalVariables(step, vals); err != nil {
					return err
				}
			}
			for _, name := range opts.NodalVars {
				vals, err := src.NodalVariable(name, step)
				if err != nil {
					return err
				}
				if factor, ok := opts.ScaleVariables[name]; ok {
					vals = ScaleVariable(vals, factor)
				}
				if err := dst.PutNodalVariable(step, name, vals); err != nil {
					return err
				}
			}
			if err := rotateTensorStep(src, dst, step, opts); err != nil {
				return err
			}
			for blockID, names := range opts.ElemVars {
				for _, name := range names {
					vals, err := src.ElemVariable(blockID, name, step)
					if err != nil {
						return err
					}
					if factor, ok := opts.ScaleVariables[name]; ok {
						vals = ScaleVariable(vals, factor)
					}
					if err := dst.PutElemVariable(step, blockID, name, vals); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}); err != nil {
		return res, err
	}

	if err := stage("write-output", func() error {
		return nil
	}); err != nil {
		return res, err
	}

	return res, nil
}

func rotateTensorStep(src Source, dst Sink, step int, opts Options) error {
	rot := opts.TensorRotation
	if rot == nil {
		return nil
	}
	suffixes := [6]string{"xx", "yy", "zz", "xy", "yz", "xz"}
	var comp [6][]float64
	for i, suf := range suffixes {
		vals, err := src.NodalVariable(rot.BaseName+"_"+suf, step)
		if err != nil {
			return err
		}
		comp[i] = vals
	}
	n := len(comp[0])
	out := [6][]float64{}
	for i := range out {
		out[i] = make([]float64, n)
	}
	for node := 0; node < n; node++ {
		t := VoigtTensor{comp[0][node], comp[1][node], comp[2][node], comp[3][node], comp[4][node], comp[5][node]}
		rotated := RotateTensor(t, rot.Rotation)
		for i := range rotated {
			out[i][node] = rotated[i]
		}
	}
	for i, suf := range suffixes {
		if err := dst.PutNodalVariable(step, rot.BaseName+"_"+suf, out[i]); err != nil {
			return err
		}
	}
	return nil
}

func CoordsToPoints(c schema.Coordinates) []geom.Vec3 {
	n := len(c.X)
	out := make([]geom.Vec3, n)
	for i := 0; i < n; i++ {
		p := geom.Vec3{X: c.X[i]}
		if i < len(c.Y) {
			p.Y = c.Y[i]
		}
		if i < len(c.Z) {
			p.Z = c.Z[i]
		}
		out[i] = p
	}
	return out
}

func PointsToCoords(points []geom.Vec3, orig schema.Coordinates) schema.Coordinates {
	out := schema.Coordinates{AxisNames: orig.AxisNames}
	out.X = make([]float64, len(points))
	if len(orig.Y) > 0 {
		out.Y = make([]float64, len(points))
	}
	if len(orig.Z) > 0 {
		out.Z = make([]float64, len(points))
	}
	for i, p := range points {
		out.X[i] = p.X
		if out.Y != nil {
			out.Y[i] = p.Y
		}
		if out.Z != nil {
			out.Z[i] = p.Z
		}
	}
	return out
}
