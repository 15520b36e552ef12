package sql

import "testing"

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM people")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		t.Fatalf("Parse() returned %T, wanted *SelectStmt", stmt)
	}
	if sel.Table != "people" || len(sel.Columns) != 1 || !sel.Columns[0].Star {
		t.Fatalf("unexpected SelectStmt: %+v", sel)
	}
	if sel.Where != nil {
		t.Fatalf("Where = %+v, wanted nil", sel.Where)
	}
}

func TestParseSelectColumnsAndAlias(t *testing.T) {
	stmt, err := Parse("SELECT name AS n, age FROM people")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	sel := stmt.(*SelectStmt)
	if len(sel.Columns) != 2 {
		t.Fatalf("got %d columns, wanted 2", len(sel.Columns))
	}
	name0, ok := sel.Columns[0].Expr.(*Ident)
	if !ok || name0.Name != "name" || sel.Columns[0].Alias != "n" {
		t.Fatalf("column 0 = %+v", sel.Columns[0])
	}
	name1, ok := sel.Columns[1].Expr.(*Ident)
	if !ok || name1.Name != "age" || sel.Columns[1].Alias != "" {
		t.Fatalf("column 1 = %+v", sel.Columns[1])
	}
}

// precedence: NOT > AND > OR, so "a OR b AND NOT c" parses as a OR (b AND (NOT c)).
func TestParsePrecedence(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = 1 OR b = 2 AND NOT c = 3")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	sel := stmt.(*SelectStmt)
	or, ok := sel.Where.(*BinaryExpr)
	if !ok || or.Op != "OR" {
		t.Fatalf("top-level expr = %+v, wanted top-level OR", sel.Where)
	}
	and, ok := or.Right.(*BinaryExpr)
	if !ok || and.Op != "AND" {
		t.Fatalf("OR's right side = %+v, wanted AND", or.Right)
	}
	not, ok := and.Right.(*UnaryExpr)
	if !ok || not.Op != "NOT" {
		t.Fatalf("AND's right side = %+v, wanted NOT", and.Right)
	}
}

func TestParseComparisonOperators(t *testing.T) {
	for _, op := range []string{"=", "<>", "<", ">", "<=", ">="} {
		q := "SELECT * FROM t WHERE a " + op + " 1"
		stmt, err := Parse(q)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", q, err)
		}
		cmp, ok := stmt.(*SelectStmt).Where.(*BinaryExpr)
		if !ok || cmp.Op != op {
			t.Fatalf("Parse(%q) Where = %+v, wanted op %q", q, stmt.(*SelectStmt).Where, op)
		}
	}
}

func TestParseIsNull(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a IS NOT NULL")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	isNull, ok := stmt.(*SelectStmt).Where.(*IsNullExpr)
	if !ok || !isNull.Not {
		t.Fatalf("Where = %+v, wanted IS NOT NULL", stmt.(*SelectStmt).Where)
	}
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse("UPDATE people SET age = 31 WHERE id = 1")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	upd, ok := stmt.(*UpdateStmt)
	if !ok {
		t.Fatalf("Parse() returned %T, wanted *UpdateStmt", stmt)
	}
	if upd.Table != "people" || len(upd.Assigns) != 1 || upd.Assigns[0].Column != "age" {
		t.Fatalf("unexpected UpdateStmt: %+v", upd)
	}
	if _, ok := upd.Where.(*BinaryExpr); !ok {
		t.Fatalf("Where = %+v, wanted a BinaryExpr", upd.Where)
	}
}

func TestParseNegativeLiteral(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE balance = -5")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	cmp := stmt.(*SelectStmt).Where.(*BinaryExpr)
	lit, ok := cmp.Right.(*IntLit)
	if !ok || lit.Value != -5 {
		t.Fatalf("Right = %+v, wanted IntLit{-5}", cmp.Right)
	}
}

func TestParseArithmeticInProjection(t *testing.T) {
	stmt, err := Parse("SELECT 1+2 FROM Books")
	if err != nil {
		t.Fatalf("Parse() error: %v, wanted arithmetic to parse into an AST", err)
	}
	sel := stmt.(*SelectStmt)
	if len(sel.Columns) != 1 {
		t.Fatalf("got %d columns, wanted 1", len(sel.Columns))
	}
	sum, ok := sel.Columns[0].Expr.(*BinaryExpr)
	if !ok || sum.Op != "+" {
		t.Fatalf("column 0 expr = %+v, wanted a + BinaryExpr", sel.Columns[0].Expr)
	}
	left, ok := sum.Left.(*IntLit)
	if !ok || left.Value != 1 {
		t.Fatalf("sum.Left = %+v, wanted IntLit{1}", sum.Left)
	}
	right, ok := sum.Right.(*IntLit)
	if !ok || right.Value != 2 {
		t.Fatalf("sum.Right = %+v, wanted IntLit{2}", sum.Right)
	}
}

// precedence: * binds tighter than +, so "a + b * c" parses as a + (b * c).
func TestParseArithmeticPrecedence(t *testing.T) {
	stmt, err := Parse("SELECT a + b * c FROM t")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	sel := stmt.(*SelectStmt)
	sum, ok := sel.Columns[0].Expr.(*BinaryExpr)
	if !ok || sum.Op != "+" {
		t.Fatalf("top-level expr = %+v, wanted top-level +", sel.Columns[0].Expr)
	}
	if _, ok := sum.Left.(*Ident); !ok {
		t.Fatalf("sum.Left = %+v, wanted Ident", sum.Left)
	}
	prod, ok := sum.Right.(*BinaryExpr)
	if !ok || prod.Op != "*" {
		t.Fatalf("sum.Right = %+v, wanted a * BinaryExpr", sum.Right)
	}
}

// subtraction and negative literals both lex from '-'; in "a - 1 = -2" the
// first '-' must parse as subtraction and the second fold into the literal.
func TestParseSubtractionVsNegativeLiteral(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a - 1 = -2")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	cmp := stmt.(*SelectStmt).Where.(*BinaryExpr)
	if cmp.Op != "=" {
		t.Fatalf("cmp.Op = %q, wanted =", cmp.Op)
	}
	diff, ok := cmp.Left.(*BinaryExpr)
	if !ok || diff.Op != "-" {
		t.Fatalf("cmp.Left = %+v, wanted a - BinaryExpr", cmp.Left)
	}
	if _, ok := diff.Left.(*Ident); !ok {
		t.Fatalf("diff.Left = %+v, wanted Ident", diff.Left)
	}
	one, ok := diff.Right.(*IntLit)
	if !ok || one.Value != 1 {
		t.Fatalf("diff.Right = %+v, wanted IntLit{1}", diff.Right)
	}
	lit, ok := cmp.Right.(*IntLit)
	if !ok || lit.Value != -2 {
		t.Fatalf("cmp.Right = %+v, wanted IntLit{-2}", cmp.Right)
	}
}

func TestParseUnaryMinusOnColumn(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE -a = 1")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	cmp := stmt.(*SelectStmt).Where.(*BinaryExpr)
	neg, ok := cmp.Left.(*UnaryExpr)
	if !ok || neg.Op != "-" {
		t.Fatalf("cmp.Left = %+v, wanted a unary -", cmp.Left)
	}
	if _, ok := neg.Operand.(*Ident); !ok {
		t.Fatalf("neg.Operand = %+v, wanted Ident", neg.Operand)
	}
}

func TestParseRejectsGarbageTrailingInput(t *testing.T) {
	_, err := Parse("SELECT * FROM t WHERE a = 1 GARBAGE")
	if err == nil {
		t.Fatalf("Parse() returned nil error, wanted a ParseError for trailing input")
	}
}
