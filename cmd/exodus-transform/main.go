// Command exodus-transform reads an Exodus II file, applies a
// coordinate transform (uniform scale, rotation about an axis, offset)
// to its node coordinates, and writes the result to a new file. The
// transform pipeline's tensor rotation and per-field scaling have no
// flags here and are not applied.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/meshio/exodus"
	"github.com/meshio/exodus/internal/geom"
	"github.com/meshio/exodus/internal/obs"
	"github.com/meshio/exodus/internal/transform"
)

type flags struct {
	input  string
	output string

	cacheMB         int64
	nodeChunkSize   int
	elementChunkSize int
	timeChunkSize   int
	preemption      float64

	scale       float64
	offsetX     float64
	offsetY     float64
	offsetZ     float64
	rotAxisX    float64
	rotAxisY    float64
	rotAxisZ    float64
	rotRadians  float64

	outputJSON bool
	verbose    bool
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("exodus-transform", flag.ContinueOnError)
	f := &flags{}

	fs.StringVar(&f.input, "input", "", "path to the input Exodus file (required)")
	fs.StringVar(&f.output, "output", "", "path to the output Exodus file (required)")

	fs.Int64Var(&f.cacheMB, "cache-mb", 64, "chunk cache size in megabytes")
	fs.IntVar(&f.nodeChunkSize, "node-chunk-size", 0, "override nodal variable chunk size (0 = preset default)")
	fs.IntVar(&f.elementChunkSize, "element-chunk-size", 0, "override element variable chunk size (0 = preset default)")
	fs.IntVar(&f.timeChunkSize, "time-chunk-size", 0, "override time-varying chunk size (0 = preset default)")
	fs.Float64Var(&f.preemption, "preemption", -1, "chunk cache preemption fraction in [0,1] (negative = preset default)")

	fs.Float64Var(&f.scale, "scale", 1.0, "uniform coordinate scale factor")
	fs.Float64Var(&f.offsetX, "offset-x", 0, "coordinate offset, x component")
	fs.Float64Var(&f.offsetY, "offset-y", 0, "coordinate offset, y component")
	fs.Float64Var(&f.offsetZ, "offset-z", 0, "coordinate offset, z component")
	fs.Float64Var(&f.rotAxisX, "rotate-axis-x", 0, "rotation axis, x component")
	fs.Float64Var(&f.rotAxisY, "rotate-axis-y", 0, "rotation axis, y component")
	fs.Float64Var(&f.rotAxisZ, "rotate-axis-z", 1, "rotation axis, z component")
	fs.Float64Var(&f.rotRadians, "rotate-radians", 0, "rotation angle in radians about the rotation axis")

	fs.BoolVar(&f.outputJSON, "output-json", false, "emit the run's stage timings/warnings as JSON on stdout")
	fs.BoolVar(&f.verbose, "verbose", false, "use console-friendly development logging instead of JSON logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.input == "" || f.output == "" {
		return nil, fmt.Errorf("--input and --output are required")
	}
	return f, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "exodus-transform:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	log, err := obs.NewLogger(f.verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	metrics := obs.NewMetrics()

	opts := []exodus.Option{exodus.WithCacheBytes(f.cacheMB * 1024 * 1024)}
	if f.preemption >= 0 {
		opts = append(opts, exodus.WithPreemption(f.preemption))
	}
	if f.nodeChunkSize > 0 {
		opts = append(opts, exodus.WithNodeChunkSize(f.nodeChunkSize))
	}
	if f.elementChunkSize > 0 {
		opts = append(opts, exodus.WithElementChunkSize(f.elementChunkSize))
	}
	if f.timeChunkSize > 0 {
		opts = append(opts, exodus.WithTimeChunkSize(f.timeChunkSize))
	}

	reader, err := exodus.NewReader(f.input, opts...)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.input, err)
	}
	defer reader.Close()

	summary, err := reader.Summary()
	if err != nil {
		return fmt.Errorf("reading summary of %s: %w", f.input, err)
	}

	title, err := reader.Title()
	if err != nil {
		return fmt.Errorf("reading title: %w", err)
	}

	writer, err := exodus.NewWriter(f.output, exodus.InitParams{
		Title:         title,
		NumDim:        summary.NumDim,
		NumNodes:      summary.NumNodes,
		NumElems:      summary.NumElems,
		NumElemBlocks: summary.NumElemBlocks,
	}, opts...)
	if err != nil {
		return fmt.Errorf("creating %s: %w", f.output, err)
	}
	defer writer.Close()

	blocks := make([]transform.Block, 0, len(summary.BlockIDs))
	for _, id := range summary.BlockIDs {
		b, err := reader.BlockDef(id)
		if err != nil {
			return fmt.Errorf("reading block %d: %w", id, err)
		}
		if err := writer.DefineElemBlock(b); err != nil {
			return fmt.Errorf("defining block %d: %w", id, err)
		}
		blocks = append(blocks, transform.Block{ID: b.ID, NumEntries: b.NumEntries, NodesPerEntry: b.NodesPerEntry})
	}

	rotation := transform.Identity3()
	if f.rotRadians != 0 {
		axis := geom.Vec3{X: f.rotAxisX, Y: f.rotAxisY, Z: f.rotAxisZ}
		norm := math.Sqrt(axis.X*axis.X + axis.Y*axis.Y + axis.Z*axis.Z)
		if norm == 0 {
			return fmt.Errorf("rotation axis must be non-zero")
		}
		axis = geom.Vec3{X: axis.X / norm, Y: axis.Y / norm, Z: axis.Z / norm}
		rotation, err = transform.RotationFromArbitraryAxis(axis, f.rotRadians)
		if err != nil {
			return fmt.Errorf("building rotation: %w", err)
		}
	}

	ct := &transform.CoordinateTransform{
		Scale:    f.scale,
		Rotation: rotation,
		Offset:   geom.Vec3{X: f.offsetX, Y: f.offsetY, Z: f.offsetZ},
	}

	if len(summary.GlobalVariables) > 0 {
		if err := writer.DefineGlobalVariables(summary.GlobalVariables); err != nil {
			return fmt.Errorf("defining global variables: %w", err)
		}
	}
	if len(summary.NodalVariables) > 0 {
		if err := writer.DefineNodalVariables(summary.NodalVariables); err != nil {
			return fmt.Errorf("defining nodal variables: %w", err)
		}
	}

	runOpts := transform.Options{
		Transform:      ct,
		Times:          timesFromSummary(summary),
		GlobalVarCount: len(summary.GlobalVariables),
		NodalVars:      summary.NodalVariables,
		Blocks:         blocks,
	}

	res, err := transform.Run(readerAdapter{reader}, writerAdapter{writer}, runOpts, metrics, log)
	if err != nil {
		return fmt.Errorf("running transform pipeline: %w", err)
	}

	if f.outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	for _, st := range res.Stages {
		fmt.Printf("%-20s %s\n", st.Stage, st.Duration)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: [%s] %s\n", w.Stage, w.Message)
	}
	return nil
}

func timesFromSummary(s exodus.Summary) []float64 {
	times := make([]float64, s.NumTimeSteps)
	for i := range times {
		times[i] = float64(i)
	}
	return times
}

// readerAdapter/writerAdapter satisfy transform.Source/Sink without
// internal/transform importing the public exodus package (avoids an
// import cycle: exodus -> internal/transform would otherwise be
// mutual).
type readerAdapter struct{ r *exodus.Reader }

func (a readerAdapter) Title() (string, error)       { return a.r.Title() }
func (a readerAdapter) NumNodes() (int, error)        { return a.r.NumNodes() }
func (a readerAdapter) NumTimeSteps() (int, error)    { return a.r.NumTimeSteps() }
func (a readerAdapter) Coordinates() (exodus.Coordinates, error) { return a.r.Coordinates() }
func (a readerAdapter) Connectivity(blockID int64) ([]exodus.NodeID, error) {
	return a.r.Connectivity(blockID)
}
func (a readerAdapter) GlobalVariables(step int) ([]float64, error) { return a.r.GlobalVariables(step) }
func (a readerAdapter) NodalVariable(name string, step int) ([]float64, error) {
	return a.r.NodalVariable(name, step)
}
func (a readerAdapter) ElemVariable(blockID int64, name string, step int) ([]float64, error) {
	return a.r.ElemVariable(blockID, name, step)
}

type writerAdapter struct{ w *exodus.Writer }

func (a writerAdapter) PutCoordinates(c exodus.Coordinates) error { return a.w.PutCoordinates(c) }
func (a writerAdapter) PutConnectivity(blockID int64, conn []exodus.NodeID) error {
	return a.w.PutConnectivity(blockID, conn)
}
func (a writerAdapter) PutTimeStep(step int, t float64) error { return a.w.PutTimeStep(step, t) }
func (a writerAdapter) PutGlobalVariables(step int, values []float64) error {
	return a.w.PutGlobalVariables(step, values)
}
func (a writerAdapter) PutNodalVariable(step int, name string, values []float64) error {
	return a.w.PutNodalVariable(step, name, values)
}
func (a writerAdapter) PutElemVariable(step int, blockID int64, name string, values []float64) error {
	return a.w.PutElemVariable(step, blockID, name, values)
}
