package sql

import (
	"fmt"
	"reflect"

	"github.com/kvtx/kvtx"
)

// PlanSelect and PlanUpdate below compile a statement into a closure once
// rather than re-walking the AST per row, so the reflection work needed to
// bind columns and evaluate predicates happens exactly once per query.

type schemaLookup interface {
	TableNamed(name string) (kvtx.TableHandle, bool)
}

// columnBinding says how to fill one field of the result record: either
// from a named source attribute (by alias or passthrough) or from the
// row's "*" expansion covering every field sharing a name.
type columnBinding struct {
	resultField int // index into the result struct's fields
	sourceField int // index into the row struct's fields
}

// compiledExpr evaluates a WHERE predicate or an IS NULL check against one
// row, already resolved to concrete field indices at plan time.
type compiledExpr func(row reflect.Value) (bool, error)

// PlanSelect compiles stmt against scm into a function that executes the
// query over a read-only snapshot. R is the caller's desired result record
// type; every one of its exported fields must bind to either a projected
// alias or a same-named attribute on the source table, or planning fails
// with a *ColumnBindingError.
func PlanSelect[R any](scm schemaLookup, stmt *SelectStmt) (func(ctx *kvtx.ReadContext) ([]R, error), error) {
	handle, ok := scm.TableNamed(stmt.Table)
	if !ok {
		return nil, &UnknownTable{Table: stmt.Table}
	}
	rowType := handle.RowType()

	bind, err := bindColumns[R](stmt.Table, rowType, stmt.Columns)
	if err != nil {
		return nil, err
	}

	var where compiledExpr
	if stmt.Where != nil {
		where, err = compilePredicate(stmt.Table, rowType, stmt.Where)
		if err != nil {
			return nil, err
		}
	}

	resultType := reflect.TypeOf((*R)(nil)).Elem()

	return func(ctx *kvtx.ReadContext) ([]R, error) {
		rows := handle.Rows(ctx)
		out := make([]R, 0, len(rows))
		for _, row := range rows {
			if where != nil {
				ok, err := where(row)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			result := reflect.New(resultType).Elem()
			for _, b := range bind {
				result.Field(b.resultField).Set(row.Field(b.sourceField))
			}
			out = append(out, result.Interface().(R))
		}
		return out, nil
	}, nil
}

// PlanUpdate compiles stmt against scm into a function that applies the
// assignment list to every matching row of a write transaction's working
// copy. Rows are values, so it can't mutate a field of a stored row in
// place — it builds a new row value and writes it back through SetRW.
// Returns the number of rows updated.
func PlanUpdate(scm schemaLookup, stmt *UpdateStmt) (func(ctx *kvtx.WriteContext) (int, error), error) {
	handle, ok := scm.TableNamed(stmt.Table)
	if !ok {
		return nil, &UnknownTable{Table: stmt.Table}
	}
	rowType := handle.RowType()

	type compiledAssign struct {
		fieldIndex int
		value      Expr
	}
	var assigns []compiledAssign
	for _, a := range stmt.Assigns {
		f, ok := fieldByName(rowType, a.Column)
		if !ok {
			return nil, &UnknownColumn{Table: stmt.Table, Column: a.Column}
		}
		if !isSimpleLiteral(a.Value) {
			return nil, &NotImplemented{Feature: "arithmetic expressions in SET values"}
		}
		assigns = append(assigns, compiledAssign{fieldIndex: f.Index[0], value: a.Value})
	}

	var where compiledExpr
	var err error
	if stmt.Where != nil {
		where, err = compilePredicate(stmt.Table, rowType, stmt.Where)
		if err != nil {
			return nil, err
		}
	}

	return func(ctx *kvtx.WriteContext) (int, error) {
		rows := handle.RowsRW(ctx)
		var updated int
		for _, row := range rows {
			if where != nil {
				ok, err := where(row)
				if err != nil {
					return updated, err
				}
				if !ok {
					continue
				}
			}
			next := reflect.New(rowType).Elem()
			next.Set(row)
			for _, a := range assigns {
				field := next.Field(a.fieldIndex)
				if err := assignLiteral(field, a.value); err != nil {
					return updated, err
				}
			}
			handle.SetRW(ctx, next)
			updated++
		}
		return updated, nil
	}, nil
}

func bindColumns[R any](table string, rowType reflect.Type, cols []SelectColumn) ([]columnBinding, error) {
	resultType := reflect.TypeOf((*R)(nil)).Elem()
	if resultType.Kind() != reflect.Struct {
		return nil, &ColumnBindingError{Field: resultType.String(), Msg: "result type must be a struct"}
	}

	star := len(cols) == 1 && cols[0].Star
	sourceByAlias := make(map[string]int) // lower name -> row field index

	if !star {
		for _, c := range cols {
			id, ok := c.Expr.(*Ident)
			if !ok {
				return nil, &NotImplemented{Feature: "arithmetic expression in a projected column"}
			}
			f, ok := fieldByName(rowType, id.Name)
			if !ok {
				return nil, &UnknownColumn{Table: table, Column: id.Name}
			}
			name := id.Name
			if c.Alias != "" {
				name = c.Alias
			}
			sourceByAlias[lower(name)] = f.Index[0]
		}
	}

	var bind []columnBinding
	for i := 0; i < resultType.NumField(); i++ {
		rf := resultType.Field(i)
		if !rf.IsExported() {
			continue
		}
		if star {
			f, ok := fieldByName(rowType, rf.Name)
			if !ok {
				return nil, &ColumnBindingError{Field: rf.Name, Msg: fmt.Sprintf("no attribute %q on table %q", rf.Name, table)}
			}
			bind = append(bind, columnBinding{resultField: i, sourceField: f.Index[0]})
			continue
		}
		srcIdx, ok := sourceByAlias[lower(rf.Name)]
		if !ok {
			f, found := fieldByName(rowType, rf.Name)
			if !found {
				return nil, &ColumnBindingError{Field: rf.Name, Msg: fmt.Sprintf("no matching projected alias and no attribute %q on table %q", rf.Name, table)}
			}
			srcIdx = f.Index[0]
		}
		bind = append(bind, columnBinding{resultField: i, sourceField: srcIdx})
	}
	return bind, nil
}

func compilePredicate(table string, rowType reflect.Type, expr Expr) (compiledExpr, error) {
	switch e := expr.(type) {
	case *BinaryExpr:
		switch e.Op {
		case "AND":
			left, err := compilePredicate(table, rowType, e.Left)
			if err != nil {
				return nil, err
			}
			right, err := compilePredicate(table, rowType, e.Right)
			if err != nil {
				return nil, err
			}
			return func(row reflect.Value) (bool, error) {
				lv, err := left(row)
				if err != nil || !lv {
					return false, err
				}
				return right(row)
			}, nil
		case "OR":
			left, err := compilePredicate(table, rowType, e.Left)
			if err != nil {
				return nil, err
			}
			right, err := compilePredicate(table, rowType, e.Right)
			if err != nil {
				return nil, err
			}
			return func(row reflect.Value) (bool, error) {
				lv, err := left(row)
				if err != nil {
					return false, err
				}
				if lv {
					return true, nil
				}
				return right(row)
			}, nil
		default:
			return compileComparison(table, rowType, e)
		}
	case *UnaryExpr:
		if e.Op != "NOT" {
			return nil, &NotImplemented{Feature: "unary operator " + e.Op}
		}
		inner, err := compilePredicate(table, rowType, e.Operand)
		if err != nil {
			return nil, err
		}
		return func(row reflect.Value) (bool, error) {
			v, err := inner(row)
			if err != nil {
				return false, err
			}
			return !v, nil
		}, nil
	case *IsNullExpr:
		field, err := resolveFieldExpr(table, rowType, e.Operand)
		if err != nil {
			return nil, err
		}
		return func(row reflect.Value) (bool, error) {
			fv := row.Field(field)
			isNull := isNilValue(fv)
			if e.Not {
				return !isNull, nil
			}
			return isNull, nil
		}, nil
	default:
		return nil, &NotImplemented{Feature: "expression used outside a comparison"}
	}
}

func compileComparison(table string, rowType reflect.Type, e *BinaryExpr) (compiledExpr, error) {
	if !comparisonOps[e.Op] {
		return nil, &NotImplemented{Feature: "operator " + e.Op}
	}
	if isArithmetic(e.Left) || isArithmetic(e.Right) {
		return nil, &NotImplemented{Feature: "arithmetic expression in a comparison"}
	}
	leftField, leftIsField := fieldExprIndex(e.Left)
	rightField, rightIsField := fieldExprIndex(e.Right)

	switch {
	case leftIsField && !rightIsField:
		idx, err := mustField(table, rowType, leftField)
		if err != nil {
			return nil, err
		}
		lit := e.Right
		return func(row reflect.Value) (bool, error) {
			return compareFieldToLiteral(row.Field(idx), lit, e.Op)
		}, nil
	case rightIsField && !leftIsField:
		idx, err := mustField(table, rowType, rightField)
		if err != nil {
			return nil, err
		}
		lit := e.Left
		flipped := flipOp(e.Op)
		return func(row reflect.Value) (bool, error) {
			return compareFieldToLiteral(row.Field(idx), lit, flipped)
		}, nil
	default:
		return nil, &NotImplemented{Feature: "comparisons between two literals or two columns"}
	}
}

var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true}

// isArithmetic reports whether e is (or contains, at its own node) an
// arithmetic operation the planner doesn't evaluate: a +/-/* / BinaryExpr,
// or a unary minus applied to something other than a literal (a literal's
// sign is already folded in by the parser).
func isArithmetic(e Expr) bool {
	switch v := e.(type) {
	case *BinaryExpr:
		return arithmeticOps[v.Op]
	case *UnaryExpr:
		return v.Op == "-"
	default:
		return false
	}
}

func fieldExprIndex(e Expr) (string, bool) {
	id, ok := e.(*Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

func resolveFieldExpr(table string, rowType reflect.Type, e Expr) (int, error) {
	name, ok := fieldExprIndex(e)
	if !ok {
		return 0, &NotImplemented{Feature: "IS NULL applied to a non-column expression"}
	}
	return mustField(table, rowType, name)
}

func mustField(table string, rowType reflect.Type, name string) (int, error) {
	f, ok := fieldByName(rowType, name)
	if !ok {
		return 0, &UnknownColumn{Table: table, Column: name}
	}
	return f.Index[0], nil
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	default:
		return op
	}
}

// compareFieldToLiteral evaluates field <op> literal, widening the field's
// value (int32, int, float32, etc.) to int64 or float64 and comparing it
// there, rather than requiring exact type identity between a predicate
// literal and the row's field type.
func compareFieldToLiteral(field reflect.Value, lit Expr, op string) (bool, error) {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		il, ok := lit.(*IntLit)
		if !ok {
			return false, &NotImplemented{Feature: "comparing an integer column to a non-integer literal"}
		}
		return compareInt64(field.Int(), il.Value, op), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		il, ok := lit.(*IntLit)
		if !ok {
			return false, &NotImplemented{Feature: "comparing an unsigned column to a non-integer literal"}
		}
		return compareInt64(int64(field.Uint()), il.Value, op), nil
	case reflect.Float32, reflect.Float64:
		switch v := lit.(type) {
		case *FloatLit:
			return compareFloat64(field.Float(), v.Value, op), nil
		case *IntLit:
			return compareFloat64(field.Float(), float64(v.Value), op), nil
		default:
			return false, &NotImplemented{Feature: "comparing a float column to a non-numeric literal"}
		}
	case reflect.String:
		return false, &NotImplemented{Feature: "comparing string columns (no string literal grammar)"}
	default:
		return false, &NotImplemented{Feature: "comparing a " + field.Kind().String() + " column"}
	}
}

func compareInt64(a, b int64, op string) bool {
	switch op {
	case "=":
		return a == b
	case "<>":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

func compareFloat64(a, b float64, op string) bool {
	switch op {
	case "=":
		return a == b
	case "<>":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

func isSimpleLiteral(e Expr) bool {
	switch e.(type) {
	case *IntLit, *FloatLit:
		return true
	default:
		return false
	}
}

func assignLiteral(field reflect.Value, e Expr) error {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		il, ok := e.(*IntLit)
		if !ok {
			return &NotImplemented{Feature: "non-integer literal assigned to an integer column"}
		}
		field.SetInt(il.Value)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		il, ok := e.(*IntLit)
		if !ok {
			return &NotImplemented{Feature: "non-integer literal assigned to an unsigned column"}
		}
		field.SetUint(uint64(il.Value))
		return nil
	case reflect.Float32, reflect.Float64:
		switch v := e.(type) {
		case *FloatLit:
			field.SetFloat(v.Value)
			return nil
		case *IntLit:
			field.SetFloat(float64(v.Value))
			return nil
		}
	}
	return &NotImplemented{Feature: "assigning to a " + field.Kind().String() + " column"}
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func fieldByName(t reflect.Type, name string) (reflect.StructField, bool) {
	return kvtx.AttributeNamed(t, name)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
