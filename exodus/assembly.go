package exodus

import (
	"fmt"

	"github.com/meshio/exodus/internal/schema"
	"github.com/meshio/exodus/internal/substrate"
	"github.com/meshio/exodus/internal/substrate/container"
)

func assemblyEntityListVar(id int64) string { return fmt.Sprintf("assembly:%d", id) }
func assemblyNameAttr(id int64) string      { return fmt.Sprintf("assembly:%d_name", id) }
func blobVar(id int64) string               { return fmt.Sprintf("blob:%d", id) }
func blobNameAttr(id int64) string          { return fmt.Sprintf("blob:%d_name", id) }

// persistAssembly writes an assembly's entity list, entity kind, and name.
func persistAssembly(eng substrate.Engine, a *schema.Assembly) error {
	dim := fmt.Sprintf("assembly%d_len", a.ID)
	if err := eng.DefineDimension(dim, int64(len(a.EntityList))); err != nil {
		return err
	}
	varName := assemblyEntityListVar(a.ID)
	if err := eng.DefineVariable(varName, container.DTypeInt64, []string{dim}, []int{len(a.EntityList)}); err != nil {
		return err
	}
	if err := eng.WriteChunk(varName, 0, container.EncodeInt64s(a.EntityList)); err != nil {
		return err
	}
	if err := eng.SetVariableRealAttr(varName, "entity_kind", []float64{float64(a.EntityKind)}); err != nil {
		return err
	}
	return eng.SetGlobalTextAttr(assemblyNameAttr(a.ID), a.Name)
}

// loadAssembly reads back a persisted assembly.
func loadAssembly(eng substrate.Engine, id int64) (*schema.Assembly, error) {
	raw, err := eng.ReadChunk(assemblyEntityListVar(id), 0)
	if err != nil {
		return nil, err
	}
	kindAttr, _ := eng.VariableRealAttr(assemblyEntityListVar(id), "entity_kind")
	a := &schema.Assembly{ID: id, EntityList: container.DecodeInt64s(raw)}
	if len(kindAttr) == 1 {
		a.EntityKind = schema.EntityKind(kindAttr[0])
	}
	a.Name, _ = eng.GlobalTextAttr(assemblyNameAttr(id))
	return a, nil
}

// persistBlob writes an opaque blob's bytes and name.
func persistBlob(eng substrate.Engine, b *schema.Blob) error {
	dim := fmt.Sprintf("blob%d_len", b.ID)
	if err := eng.DefineDimension(dim, int64(len(b.Bytes))); err != nil {
		return err
	}
	varName := blobVar(b.ID)
	if err := eng.DefineVariable(varName, container.DTypeText, []string{dim}, []int{len(b.Bytes)}); err != nil {
		return err
	}
	if err := eng.WriteChunk(varName, 0, b.Bytes); err != nil {
		return err
	}
	return eng.SetGlobalTextAttr(blobNameAttr(b.ID), b.Name)
}

// loadBlob reads back a persisted blob.
func loadBlob(eng substrate.Engine, id int64) (*schema.Blob, error) {
	raw, err := eng.ReadChunk(blobVar(id), 0)
	if err != nil {
		return nil, err
	}
	b := &schema.Blob{ID: id, Bytes: raw}
	b.Name, _ = eng.GlobalTextAttr(blobNameAttr(id))
	return b, nil
}
