package kvtx

import "cmp"

// ValueIndex is the query handle returned by AddValueIndex: an unordered
// secondary index from an extracted value S to the rows whose extractor
// produced it.
type ValueIndex[K comparable, V any, S comparable] struct {
	tbl *Table[K, V]
	pos int
}

// Find returns every row currently indexed under s, in unspecified order,
// as seen by ctx's pinned snapshot.
func (vi *ValueIndex[K, V, S]) Find(ctx *ReadContext, s S) []V {
	data := ctx.snap.slots[vi.tbl.pos].(*tableData[K, V])
	return vi.materialize(data, s)
}

// FindRW is Find for use inside a write transaction, seeing that
// transaction's own pending mutations.
func (vi *ValueIndex[K, V, S]) FindRW(ctx *WriteContext, s S) []V {
	data := (&writeTable[K, V]{tbl: vi.tbl, ctx: ctx}).currentData()
	return vi.materialize(data, s)
}

func (vi *ValueIndex[K, V, S]) materialize(data *tableData[K, V], s S) []V {
	idx := data.indexes[vi.pos].(*valueIndexData[K, V, S])
	keys := idx.find(s)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, data.rows[k])
	}
	return out
}

// RangeIndex is the query handle returned by AddRangeScanIndex: an ordered
// secondary index supporting bounded range scans.
type RangeIndex[K comparable, V any, S cmp.Ordered] struct {
	tbl *Table[K, V]
	pos int
}

// Range returns every row whose extracted key falls within b, ascending by
// that key, as seen by ctx's pinned snapshot.
func (ri *RangeIndex[K, V, S]) Range(ctx *ReadContext, b Bound[S]) []V {
	data := ctx.snap.slots[ri.tbl.pos].(*tableData[K, V])
	return ri.materialize(data, b)
}

// RangeRW is Range for use inside a write transaction.
func (ri *RangeIndex[K, V, S]) RangeRW(ctx *WriteContext, b Bound[S]) []V {
	data := (&writeTable[K, V]{tbl: ri.tbl, ctx: ctx}).currentData()
	return ri.materialize(data, b)
}

func (ri *RangeIndex[K, V, S]) materialize(data *tableData[K, V], b Bound[S]) []V {
	idx := data.indexes[ri.pos].(*rangeIndexData[K, V, S])
	keys := idx.rangeKeys(b)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, data.rows[k])
	}
	return out
}
