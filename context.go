package kvtx

import (
	"iter"
)

// ReadContext is handed to the callback passed to Engine.Read/ReadErr. It
// pins one immutable engineSnapshot for the lifetime of the transaction, so
// every UseTable call inside it sees a mutually consistent view across all
// tables. There is nothing to begin or roll back in memory, so ReadContext
// carries no transaction-log equivalent — it is just a pinned pointer.
type ReadContext struct {
	eng    *Engine
	snap   *engineSnapshot
	handle *txHandle
}

// WriteContext is handed to the callback passed to Engine.Write/WriteErr.
// Only one WriteContext can be open at a time per Engine; it clones each
// table's data on first touch and publishes every touched table atomically
// on commit.
type WriteContext struct {
	eng    *Engine
	base   *engineSnapshot
	clones []any // parallel to base.slots; nil until a Set/Delete through UseTableRW touches a slot
	handle *txHandle
}

func (wc *WriteContext) slotFor(pos int) any {
	if wc.clones[pos] == nil {
		panic("kvtx: internal: slot read before UseTableRW touched it")
	}
	return wc.clones[pos]
}

func (wc *WriteContext) touch(pos int, clone func(base any) any) {
	if wc.clones[pos] == nil {
		wc.clones[pos] = clone(wc.base.slots[pos])
	}
}

// ReadOnlyTable is the view UseTable exposes inside a read-only
// transaction: lookups and iteration only.
type ReadOnlyTable[K comparable, V any] interface {
	Get(k K) V
	TryGet(k K) (V, bool)
	GetIds() iter.Seq[K]
	Len() int
}

// ReadWriteTable is the view UseTableRW exposes inside a write
// transaction: everything ReadOnlyTable offers, plus mutation.
type ReadWriteTable[K comparable, V any] interface {
	ReadOnlyTable[K, V]
	Set(k K, v V)
	Delete(k K)
}

// UseTable binds tbl to ctx's pinned snapshot for the duration of a
// read-only transaction.
func UseTable[K comparable, V any](ctx *ReadContext, tbl *Table[K, V]) ReadOnlyTable[K, V] {
	data := ctx.snap.slots[tbl.pos].(*tableData[K, V])
	return &readTable[K, V]{tbl: tbl, data: data}
}

// UseTableRW binds tbl to ctx for the duration of a write transaction,
// cloning its data lazily on first Set/Delete so tables never touched by
// this transaction cost nothing to publish.
func UseTableRW[K comparable, V any](ctx *WriteContext, tbl *Table[K, V]) ReadWriteTable[K, V] {
	return &writeTable[K, V]{tbl: tbl, ctx: ctx}
}

type readTable[K comparable, V any] struct {
	tbl  *Table[K, V]
	data *tableData[K, V]
}

// Get returns the row for k, or the zero value of V if k is absent. A
// missing key is never an error; use TryGet to tell the two cases apart.
func (rt *readTable[K, V]) Get(k K) V {
	v, _ := rt.data.get(k)
	return v
}

func (rt *readTable[K, V]) TryGet(k K) (V, bool) {
	return rt.data.get(k)
}

func (rt *readTable[K, V]) GetIds() iter.Seq[K] {
	order := rt.data.order
	return func(yield func(K) bool) {
		for _, k := range order {
			if !yield(k) {
				return
			}
		}
	}
}

func (rt *readTable[K, V]) Len() int {
	return len(rt.data.rows)
}

type writeTable[K comparable, V any] struct {
	tbl *Table[K, V]
	ctx *WriteContext
}

func (wt *writeTable[K, V]) data() *tableData[K, V] {
	return wt.ctx.base.slots[wt.tbl.pos].(*tableData[K, V])
}

// cloned touches this table's slot if it hasn't been cloned yet, then
// returns the clone via slotFor — which panics if touch somehow left it
// nil, catching a broken clone func rather than silently reading stale
// base data after a caller asked to mutate.
func (wt *writeTable[K, V]) cloned() *tableData[K, V] {
	wt.ctx.touch(wt.tbl.pos, func(base any) any {
		return base.(*tableData[K, V]).clone()
	})
	return wt.ctx.slotFor(wt.tbl.pos).(*tableData[K, V])
}

func (wt *writeTable[K, V]) currentData() *tableData[K, V] {
	if wt.ctx.clones[wt.tbl.pos] != nil {
		return wt.ctx.slotFor(wt.tbl.pos).(*tableData[K, V])
	}
	return wt.data()
}

// Get returns the row for k, or the zero value of V if k is absent. A
// missing key is never an error; use TryGet to tell the two cases apart.
func (wt *writeTable[K, V]) Get(k K) V {
	v, _ := wt.currentData().get(k)
	return v
}

func (wt *writeTable[K, V]) TryGet(k K) (V, bool) {
	return wt.currentData().get(k)
}

func (wt *writeTable[K, V]) GetIds() iter.Seq[K] {
	order := wt.currentData().order
	return func(yield func(K) bool) {
		for _, k := range order {
			if !yield(k) {
				return
			}
		}
	}
}

func (wt *writeTable[K, V]) Len() int {
	return len(wt.currentData().rows)
}

func (wt *writeTable[K, V]) Set(k K, v V) {
	wt.cloned().set(k, v)
}

func (wt *writeTable[K, V]) Delete(k K) {
	wt.cloned().delete(k)
}
