package kvtx

import (
	"cmp"

	"github.com/google/btree"
)

// tableData is the mutable payload behind one Table at one point in time: a
// published (immutable-by-convention) snapshot, or a writer's private
// working copy. Readers only ever see a *tableData reachable through an
// engineSnapshot they pinned at transaction start; writers operate on a
// freshly cloned copy that becomes the next published version on commit.
// The clone is scoped to one table rather than the whole database, since
// publication is already atomic across every table at the engineSnapshot
// level (see engine.go).
type tableData[K comparable, V any] struct {
	rows    map[K]V
	order   []K // key order; stable within a snapshot, appended to on first insert
	indexes []indexData[K, V]
}

// indexDef is the schema-time description of an attached index: it knows
// how to manufacture fresh, empty indexData for a brand new table.
type indexDef[K comparable, V any] interface {
	indexName() string
	newData() indexData[K, V]
}

// indexData is the per-index maintained state. It reacts to Set/Delete
// without reflection, since V is known at the call site that constructs it.
type indexData[K comparable, V any] interface {
	clone() indexData[K, V]
	add(k K, v V)
	remove(k K, v V)
}

func newTableData[K comparable, V any](defs []indexDef[K, V]) *tableData[K, V] {
	td := &tableData[K, V]{
		rows:    make(map[K]V),
		indexes: make([]indexData[K, V], len(defs)),
	}
	for i, def := range defs {
		td.indexes[i] = def.newData()
	}
	return td
}

func (td *tableData[K, V]) clone() *tableData[K, V] {
	out := &tableData[K, V]{
		rows:    make(map[K]V, len(td.rows)),
		order:   append([]K(nil), td.order...),
		indexes: make([]indexData[K, V], len(td.indexes)),
	}
	for k, v := range td.rows {
		out.rows[k] = v
	}
	for i, idx := range td.indexes {
		out.indexes[i] = idx.clone()
	}
	return out
}

func (td *tableData[K, V]) get(k K) (V, bool) {
	v, ok := td.rows[k]
	return v, ok
}

func (td *tableData[K, V]) set(k K, v V) {
	if old, existed := td.rows[k]; existed {
		for _, idx := range td.indexes {
			idx.remove(k, old)
		}
	} else {
		td.order = append(td.order, k)
	}
	td.rows[k] = v
	for _, idx := range td.indexes {
		idx.add(k, v)
	}
}

func (td *tableData[K, V]) delete(k K) {
	old, existed := td.rows[k]
	if !existed {
		return
	}
	for _, idx := range td.indexes {
		idx.remove(k, old)
	}
	delete(td.rows, k)
	for i, k2 := range td.order {
		if k2 == k {
			td.order = append(td.order[:i], td.order[i+1:]...)
			break
		}
	}
}

// --- value index --------------------------------------------------------

// valueIndexDef is the schema-time descriptor for an unordered secondary
// index: extractor V -> S, looked up later by exact-match Find.
type valueIndexDef[K comparable, V any, S comparable] struct {
	name string
	f    func(V) S
}

func (d *valueIndexDef[K, V, S]) indexName() string { return d.name }

func (d *valueIndexDef[K, V, S]) newData() indexData[K, V] {
	return &valueIndexData[K, V, S]{def: d, byValue: make(map[S]map[K]struct{})}
}

type valueIndexData[K comparable, V any, S comparable] struct {
	def     *valueIndexDef[K, V, S]
	byValue map[S]map[K]struct{}
}

func (idx *valueIndexData[K, V, S]) clone() indexData[K, V] {
	clone := &valueIndexData[K, V, S]{def: idx.def, byValue: make(map[S]map[K]struct{}, len(idx.byValue))}
	for s, ks := range idx.byValue {
		ks2 := make(map[K]struct{}, len(ks))
		for k := range ks {
			ks2[k] = struct{}{}
		}
		clone.byValue[s] = ks2
	}
	return clone
}

func (idx *valueIndexData[K, V, S]) add(k K, v V) {
	s := idx.def.f(v)
	ks := idx.byValue[s]
	if ks == nil {
		ks = make(map[K]struct{})
		idx.byValue[s] = ks
	}
	ks[k] = struct{}{}
}

func (idx *valueIndexData[K, V, S]) remove(k K, v V) {
	s := idx.def.f(v)
	ks := idx.byValue[s]
	if ks == nil {
		return
	}
	delete(ks, k)
	if len(ks) == 0 {
		delete(idx.byValue, s)
	}
}

func (idx *valueIndexData[K, V, S]) find(s S) []K {
	ks := idx.byValue[s]
	out := make([]K, 0, len(ks))
	for k := range ks {
		out = append(out, k)
	}
	return out
}

// --- range-scan index -----------------------------------------------

// rangeIndexDef is the schema-time descriptor for an ordered secondary
// index, backed by a google/btree BTreeG keyed on (extracted value, pk).
type rangeIndexDef[K comparable, V any, S cmp.Ordered] struct {
	name string
	f    func(V) S
}

func (d *rangeIndexDef[K, V, S]) indexName() string { return d.name }

func (d *rangeIndexDef[K, V, S]) newData() indexData[K, V] {
	less := func(a, b rangeEntry[K, S]) bool {
		if c := cmp.Compare(a.s, b.s); c != 0 {
			return c < 0
		}
		if a.min != b.min {
			return a.min
		}
		return fmtKey(a.k) < fmtKey(b.k)
	}
	return &rangeIndexData[K, V, S]{def: d, tree: btree.NewG(32, less)}
}

// rangeEntry is a tree node keyed on (extracted value, primary key). min
// marks a synthetic scan-start pivot (see rangeKeys) that never corresponds
// to a stored row; it sorts before every real entry tied on s, regardless
// of how the tie-break on k would otherwise order them.
type rangeEntry[K comparable, S cmp.Ordered] struct {
	s   S
	k   K
	min bool
}

type rangeIndexData[K comparable, V any, S cmp.Ordered] struct {
	def  *rangeIndexDef[K, V, S]
	tree *btree.BTreeG[rangeEntry[K, S]]
}

func (idx *rangeIndexData[K, V, S]) clone() indexData[K, V] {
	return &rangeIndexData[K, V, S]{def: idx.def, tree: idx.tree.Clone()}
}

func (idx *rangeIndexData[K, V, S]) add(k K, v V) {
	idx.tree.ReplaceOrInsert(rangeEntry[K, S]{s: idx.def.f(v), k: k})
}

func (idx *rangeIndexData[K, V, S]) remove(k K, v V) {
	idx.tree.Delete(rangeEntry[K, S]{s: idx.def.f(v), k: k})
}

// rangeKeys returns the primary keys for all entries within bound, in
// ascending order by the extracted key.
func (idx *rangeIndexData[K, V, S]) rangeKeys(b Bound[S]) []K {
	var out []K
	walk := func(e rangeEntry[K, S]) bool {
		if b.hasUpper && cmp.Compare(e.s, b.upper) > 0 {
			return false
		}
		if b.match(e.s) {
			out = append(out, e.k)
		}
		return true
	}
	if b.hasLower {
		start := rangeEntry[K, S]{s: b.lower, min: true}
		idx.tree.AscendGreaterOrEqual(start, walk)
	} else {
		idx.tree.Ascend(walk)
	}
	return out
}
