package container

import (
	"fmt"

	"github.com/meshio/exodus/internal/errs"
)

// SetGlobalTextAttr sets (or replaces) a global text attribute.
func (c *Container) SetGlobalTextAttr(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readOnly {
		return fmt.Errorf("%w: container is read-only", errs.ErrSequence)
	}
	c.globalAttrs = upsertAttr(c.globalAttrs, attrRecord{Name: name, Kind: AttrText, Text: value})
	return nil
}

// GlobalTextAttr reads a global text attribute.
func (c *Container) GlobalTextAttr(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.globalAttrs {
		if a.Name == name {
			return a.Text, true
		}
	}
	return "", false
}

// SetVariableRealAttr sets (or replaces) a real-valued attribute on a
// defined variable (e.g. a per-block material property).
func (c *Container) SetVariableRealAttr(varName, attrName string, values []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readOnly {
		return fmt.Errorf("%w: container is read-only", errs.ErrSequence)
	}
	v, ok := c.vars[varName]
	if !ok {
		return fmt.Errorf("%w: variable %q is not defined", errs.ErrNotDefined, varName)
	}
	v.Attrs = upsertAttr(v.Attrs, attrRecord{Name: attrName, Kind: AttrReals, Reals: values})
	return nil
}

// VariableRealAttr reads a real-valued variable attribute.
func (c *Container) VariableRealAttr(varName, attrName string) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[varName]
	if !ok {
		return nil, false
	}
	for _, a := range v.Attrs {
		if a.Name == attrName {
			return a.Reals, true
		}
	}
	return nil, false
}

// AppendQARecord appends an entry to the QA history, never overwriting
// prior entries (the QA record log is append-only by convention).
func (c *Container) AppendQARecord(code, version, date, time string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.qaRecords = append(c.qaRecords, QARecord{Code: code, Version: version, Date: date, Time: time})
}

// QARecords returns a copy of the accumulated QA history.
func (c *Container) QARecords() []QARecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]QARecord, len(c.qaRecords))
	copy(out, c.qaRecords)
	return out
}

// AppendInfoRecord appends a free-text info record.
func (c *Container) AppendInfoRecord(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infoRecords = append(c.infoRecords, text)
}

// InfoRecords returns a copy of the accumulated info records.
func (c *Container) InfoRecords() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.infoRecords))
	copy(out, c.infoRecords)
	return out
}

func upsertAttr(list []attrRecord, rec attrRecord) []attrRecord {
	for i, a := range list {
		if a.Name == rec.Name {
			list[i] = rec
			return list
		}
	}
	return append(list, rec)
}
