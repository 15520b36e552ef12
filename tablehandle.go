package kvtx

import "reflect"

// TableHandle is the type-erased face of Table[K,V] the sql package's
// planner drives: it never sees K or V, only reflect.Values of rows, since
// a query plan is compiled once against whatever Schema it is given at
// execute time and must work across every table shape in that schema.
type TableHandle interface {
	Name() string
	RowType() reflect.Type

	// Rows returns every row in key-insertion order, as non-addressable
	// reflect.Values of the row struct, for a read-only SELECT scan.
	Rows(ctx *ReadContext) []reflect.Value

	// RowsRW is Rows for an UPDATE scan running inside a write transaction.
	RowsRW(ctx *WriteContext) []reflect.Value

	// SetRW writes row back, keyed by whatever this table's key function
	// extracts from it. The UPDATE executor always copies and replaces
	// rather than mutating a row in place.
	SetRW(ctx *WriteContext, row reflect.Value)
}

func (tbl *Table[K, V]) RowType() reflect.Type {
	return reflect.TypeOf((*V)(nil)).Elem()
}

func (tbl *Table[K, V]) Rows(ctx *ReadContext) []reflect.Value {
	data := ctx.snap.slots[tbl.pos].(*tableData[K, V])
	out := make([]reflect.Value, 0, len(data.order))
	for _, k := range data.order {
		v := data.rows[k]
		out = append(out, reflect.ValueOf(v))
	}
	return out
}

func (tbl *Table[K, V]) RowsRW(ctx *WriteContext) []reflect.Value {
	data := (&writeTable[K, V]{tbl: tbl, ctx: ctx}).currentData()
	out := make([]reflect.Value, 0, len(data.order))
	for _, k := range data.order {
		v := data.rows[k]
		out = append(out, reflect.ValueOf(v))
	}
	return out
}

func (tbl *Table[K, V]) SetRW(ctx *WriteContext, row reflect.Value) {
	v := row.Interface().(V)
	k := tbl.keyFunc(v)
	(&writeTable[K, V]{tbl: tbl, ctx: ctx}).Set(k, v)
}
