package kvtx

import (
	"fmt"
	"strings"
)

// tableRef is the type-erased face every Table[K,V] presents to Schema. It
// only needs enough to assign slots and seal tables at first use; the
// richer TableHandle interface the SQL planner drives lives in
// tablehandle.go and is implemented by the same *Table[K,V].
type tableRef interface {
	Name() string
	seal()
	newSlotData() any
}

// Schema is the static description of a database: the set of tables and
// their indexes, fixed before the first transaction runs. There is no
// on-disk format to version or migrate, so schema construction and
// sealing live in one type rather than a separate builder.
type Schema struct {
	tables []tableRef
	byName map[string]int // lower-cased name -> index into tables
	sealed bool
}

// NewSchema returns an empty schema ready for CreateTable calls.
func NewSchema() *Schema {
	return &Schema{byName: make(map[string]int)}
}

func (scm *Schema) addTable(ref tableRef) {
	if scm.sealed {
		panic(fmt.Errorf("kvtx: cannot add table %q: schema is already in use", ref.Name()))
	}
	key := strings.ToLower(ref.Name())
	if _, dup := scm.byName[key]; dup {
		panic(fmt.Errorf("kvtx: duplicate table name %q", ref.Name()))
	}
	scm.byName[key] = len(scm.tables)
	scm.tables = append(scm.tables, ref)
}

// seal freezes the schema and every table registered on it; called once, by
// the Engine that adopts this schema, before its first transaction.
func (scm *Schema) seal() {
	if scm.sealed {
		return
	}
	scm.sealed = true
	for _, ref := range scm.tables {
		ref.seal()
	}
}

func (scm *Schema) tableNamed(name string) (tableRef, bool) {
	i, ok := scm.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return scm.tables[i], true
}

// TableNamed resolves a table by name, case-insensitively, and exposes it
// as a TableHandle for the sql package's planner.
func (scm *Schema) TableNamed(name string) (TableHandle, bool) {
	ref, ok := scm.tableNamed(name)
	if !ok {
		return nil, false
	}
	handle, ok := ref.(TableHandle)
	if !ok {
		return nil, false
	}
	return handle, true
}

func (scm *Schema) newSnapshotSlots() []any {
	slots := make([]any, len(scm.tables))
	for i, ref := range scm.tables {
		slots[i] = ref.newSlotData()
	}
	return slots
}
