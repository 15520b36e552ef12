package sql

import "fmt"

// ParseError reports a lexing or syntax error, with the byte offset into
// the source query it was found at.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sql: parse error at %d: %s", e.Pos, e.Msg)
}

// UnknownTable is returned when a FROM or UPDATE clause names a table the
// schema doesn't have.
type UnknownTable struct {
	Table string
}

func (e *UnknownTable) Error() string {
	return fmt.Sprintf("sql: unknown table %q", e.Table)
}

// UnknownColumn is returned when a WHERE/SET expression or a projected
// column names an attribute the row type doesn't have.
type UnknownColumn struct {
	Table  string
	Column string
}

func (e *UnknownColumn) Error() string {
	return fmt.Sprintf("sql: unknown column %q on table %q", e.Column, e.Table)
}

// ColumnBindingError is returned when a SELECT's result record type has a
// field the query's projection can't bind: neither a matching alias, nor a
// same-named passthrough attribute on the source table.
type ColumnBindingError struct {
	Field string
	Msg   string
}

func (e *ColumnBindingError) Error() string {
	return fmt.Sprintf("sql: cannot bind result field %q: %s", e.Field, e.Msg)
}

// NotImplemented is returned for grammar the parser accepts in principle
// but the planner does not yet compile — currently, arithmetic expressions
// anywhere they appear (projections, comparisons, SET values), and
// comparisons on string columns.
type NotImplemented struct {
	Feature string
}

func (e *NotImplemented) Error() string {
	return fmt.Sprintf("sql: not implemented: %s", e.Feature)
}
