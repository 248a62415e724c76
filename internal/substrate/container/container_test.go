package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDefineWriteCloseReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.ex2")

	c, err := Create(path, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.DefineDimension("num_nodes", 8); err != nil {
		t.Fatalf("DefineDimension: %v", err)
	}
	if err := c.DefineDimension("num_dim", 3); err != nil {
		t.Fatalf("DefineDimension: %v", err)
	}
	if err := c.DefineVariable("coordx", DTypeFloat64, []string{"num_nodes"}, []int{8}); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	coords := []float64{0, 1, 0, 1, 0, 1, 0, 1}
	if err := c.WriteChunk("coordx", 0, EncodeFloat64s(coords)); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := c.SetGlobalTextAttr("title", "unit cube"); err != nil {
		t.Fatalf("SetGlobalTextAttr: %v", err)
	}
	c.AppendQARecord("exodus-transform", "1.0", "2026-07-31", "00:00:00")

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, true, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	size, ok := reopened.DimensionSize("num_nodes")
	if !ok || size != 8 {
		t.Fatalf("expected num_nodes=8, got %d ok=%v", size, ok)
	}

	raw, err := reopened.ReadChunk("coordx", 0)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	got := DecodeFloat64s(raw)
	for i, v := range coords {
		if got[i] != v {
			t.Fatalf("coordx[%d] = %v, want %v", i, got[i], v)
		}
	}

	title, ok := reopened.GlobalTextAttr("title")
	if !ok || title != "unit cube" {
		t.Fatalf("expected title attr, got %q ok=%v", title, ok)
	}

	qa := reopened.QARecords()
	if len(qa) != 1 || qa[0].Code != "exodus-transform" {
		t.Fatalf("expected one QA record, got %+v", qa)
	}
}

func TestWriteChunkRejectsDuplicateIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.ex2")
	c, err := Create(path, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer c.Close()

	if err := c.DefineDimension("num_nodes", 4); err != nil {
		t.Fatalf("DefineDimension: %v", err)
	}
	if err := c.DefineVariable("coordx", DTypeFloat64, []string{"num_nodes"}, []int{4}); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	if err := c.WriteChunk("coordx", 0, EncodeFloat64s([]float64{0, 1, 2, 3})); err != nil {
		t.Fatalf("first WriteChunk: %v", err)
	}
	if err := c.WriteChunk("coordx", 0, EncodeFloat64s([]float64{9, 9, 9, 9})); err == nil {
		t.Fatalf("expected duplicate chunk write to fail")
	}
}

func TestAppendAcrossReopenDoesNotDisturbExistingChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.ex2")

	c, err := Create(path, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.DefineDimension(UnlimitedDim, 0); err != nil {
		t.Fatalf("DefineDimension: %v", err)
	}
	if err := c.DefineVariable("vals_glo_var1", DTypeFloat64, []string{UnlimitedDim}, []int{1}); err != nil {
		t.Fatalf("DefineVariable: %v", err)
	}
	if err := c.WriteChunk("vals_glo_var1", 0, EncodeFloat64s([]float64{1.0})); err != nil {
		t.Fatalf("WriteChunk 0: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	appender, err := Open(path, false, nil)
	if err != nil {
		t.Fatalf("Open for append: %v", err)
	}
	if err := appender.WriteChunk("vals_glo_var1", 1, EncodeFloat64s([]float64{2.0})); err != nil {
		t.Fatalf("WriteChunk 1: %v", err)
	}
	if err := appender.Close(); err != nil {
		t.Fatalf("Close appender: %v", err)
	}

	reopened, err := Open(path, true, nil)
	if err != nil {
		t.Fatalf("final Open: %v", err)
	}
	defer reopened.Close()

	raw0, err := reopened.ReadChunk("vals_glo_var1", 0)
	if err != nil {
		t.Fatalf("ReadChunk 0: %v", err)
	}
	if DecodeFloat64s(raw0)[0] != 1.0 {
		t.Fatalf("chunk 0 was disturbed by append")
	}
	raw1, err := reopened.ReadChunk("vals_glo_var1", 1)
	if err != nil {
		t.Fatalf("ReadChunk 1: %v", err)
	}
	if DecodeFloat64s(raw1)[0] != 2.0 {
		t.Fatalf("chunk 1 missing after append")
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-container.bin")
	if err := os.WriteFile(path, []byte("not an exodus container at all"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(path, true, nil); err == nil {
		t.Fatalf("expected Open to reject a non-container file")
	}
}
