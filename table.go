package kvtx

import (
	"cmp"
)

// Table is a named mapping from primary key K to row value V. It is a
// schema-time object: it knows its indexes and its key extractor, but it
// never itself holds row data — that lives in a tableData[K,V], reachable
// only through an engine snapshot or a write transaction's working copy
// (see tabledata.go, engine.go). This split is what lets ReadTransaction and
// WriteTransaction pin/publish data atomically without the Table itself
// needing to change identity. Rows are immutable values: nothing anywhere
// holds a pointer into a stored row.
type Table[K comparable, V any] struct {
	name    string
	pos     int // index into engineSnapshot.slots; assigned by CreateTable
	keyFunc func(V) K
	indexes []indexDef[K, V]
	sealed  bool
}

// CreateTable registers a new table on scm. keyFunc extracts the primary
// key from a row; the result must be stable for a given row's lifetime.
//
// A free function rather than a method: Go methods cannot introduce their
// own type parameters, so schema construction uses free functions
// parameterized over the table's [K, V] throughout — the index
// constructors below (AddValueIndex, AddRangeScanIndex) follow the same
// shape.
func CreateTable[K comparable, V any](scm *Schema, name string, keyFunc func(V) K) *Table[K, V] {
	tbl := &Table[K, V]{
		name:    name,
		pos:     len(scm.tables),
		keyFunc: keyFunc,
	}
	scm.addTable(tbl)
	return tbl
}

func (tbl *Table[K, V]) Name() string { return tbl.name }

func (tbl *Table[K, V]) seal() { tbl.sealed = true }

// newSlotData manufactures the empty tableData[K,V] this table occupies in
// a brand new engineSnapshot, type-erased to any for storage in
// engineSnapshot.slots.
func (tbl *Table[K, V]) newSlotData() any {
	return newTableData[K, V](tbl.indexes)
}

// AddValueIndex attaches an unordered secondary index to tbl and returns a
// handle usable with Find once inside a transaction. Schema-construction-time
// only: panics if the engine has already served a transaction.
func AddValueIndex[K comparable, V any, S comparable](tbl *Table[K, V], name string, f func(V) S) *ValueIndex[K, V, S] {
	tbl.requireUnsealed(name)
	def := &valueIndexDef[K, V, S]{name: name, f: f}
	tbl.indexes = append(tbl.indexes, def)
	return &ValueIndex[K, V, S]{tbl: tbl, pos: len(tbl.indexes) - 1}
}

// AddRangeScanIndex attaches an ordered secondary index to tbl. Same
// schema-construction-time restriction as AddValueIndex.
func AddRangeScanIndex[K comparable, V any, S cmp.Ordered](tbl *Table[K, V], name string, f func(V) S) *RangeIndex[K, V, S] {
	tbl.requireUnsealed(name)
	def := &rangeIndexDef[K, V, S]{name: name, f: f}
	tbl.indexes = append(tbl.indexes, def)
	return &RangeIndex[K, V, S]{tbl: tbl, pos: len(tbl.indexes) - 1}
}

func (tbl *Table[K, V]) requireUnsealed(indexName string) {
	if tbl.sealed {
		panic(tableErrf(tbl.name, nil, nil, "cannot add index %q after the engine has served a transaction", indexName))
	}
}
