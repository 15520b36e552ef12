package sql

import (
	"github.com/kvtx/kvtx"
)

// ExecuteSql parses query, plans it, and dispatches to a ReadTransaction or
// a WriteTransaction depending on what the statement turns out to be — the
// caller doesn't need to know in advance whether query is a SELECT or an
// UPDATE. A SELECT runs read-only and returns its rows with ok true; an
// UPDATE runs as a write and reports ok false, since it has no row list to
// hand back (call ExecuteUpdate directly for the affected-row count).
func ExecuteSql[R any](eng *kvtx.Engine, query string) (rows []R, ok bool, err error) {
	stmt, err := Parse(query)
	if err != nil {
		return nil, false, err
	}
	switch s := stmt.(type) {
	case *SelectStmt:
		run, err := PlanSelect[R](eng.Schema(), s)
		if err != nil {
			return nil, false, err
		}
		rows, err = kvtx.ReadTransaction(eng, func(ctx *kvtx.ReadContext) ([]R, error) {
			return run(ctx)
		})
		if err != nil {
			return nil, false, err
		}
		return rows, true, nil
	case *UpdateStmt:
		run, err := PlanUpdate(eng.Schema(), s)
		if err != nil {
			return nil, false, err
		}
		if _, err := kvtx.WriteTransaction(eng, func(ctx *kvtx.WriteContext) (int, error) {
			return run(ctx)
		}); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	default:
		return nil, false, &NotImplemented{Feature: "statement kind"}
	}
}

// Execute parses a SELECT query, compiles it against eng's schema, and runs
// it; R is the result record type. An UPDATE is not run: Execute returns a
// *NotImplemented error for it (use ExecuteUpdate instead).
func Execute[R any](eng *kvtx.Engine, query string) ([]R, error) {
	stmt, err := Parse(query)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		return nil, &NotImplemented{Feature: "Execute only runs SELECT; use ExecuteUpdate for UPDATE"}
	}
	run, err := PlanSelect[R](eng.Schema(), sel)
	if err != nil {
		return nil, err
	}
	return kvtx.ReadTransaction(eng, func(ctx *kvtx.ReadContext) ([]R, error) {
		return run(ctx)
	})
}

// ExecuteUpdate parses and runs an UPDATE statement, returning the number
// of rows it changed.
func ExecuteUpdate(eng *kvtx.Engine, query string) (int, error) {
	stmt, err := Parse(query)
	if err != nil {
		return 0, err
	}
	upd, ok := stmt.(*UpdateStmt)
	if !ok {
		return 0, &NotImplemented{Feature: "ExecuteUpdate only runs UPDATE; use Execute for SELECT"}
	}
	run, err := PlanUpdate(eng.Schema(), upd)
	if err != nil {
		return 0, err
	}
	return kvtx.WriteTransaction(eng, func(ctx *kvtx.WriteContext) (int, error) {
		return run(ctx)
	})
}
