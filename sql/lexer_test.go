package sql

import "testing"

func TestLexerBasic(t *testing.T) {
	toks, err := newLexer("SELECT * FROM people WHERE age >= 30").lex()
	if err != nil {
		t.Fatalf("lex() error: %v", err)
	}
	want := []struct {
		typ tokenType
		val string
	}{
		{tokKeyword, "SELECT"},
		{tokOperator, "*"},
		{tokKeyword, "FROM"},
		{tokIdent, "people"},
		{tokKeyword, "WHERE"},
		{tokIdent, "age"},
		{tokOperator, ">="},
		{tokInt, "30"},
		{tokEOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, wanted %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].typ != w.typ || toks[i].val != w.val {
			t.Fatalf("token %d = {%v %q}, wanted {%v %q}", i, toks[i].typ, toks[i].val, w.typ, w.val)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	toks, err := newLexer("a<>b<=c>=d<e>f=g").lex()
	if err != nil {
		t.Fatalf("lex() error: %v", err)
	}
	var ops []string
	for _, tok := range toks {
		if tok.typ == tokOperator {
			ops = append(ops, tok.val)
		}
	}
	want := []string{"<>", "<=", ">=", "<", ">", "="}
	if len(ops) != len(want) {
		t.Fatalf("operators = %v, wanted %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("operator %d = %q, wanted %q", i, ops[i], want[i])
		}
	}
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	_, err := newLexer("SELECT * FROM t WHERE a = 'x'").lex()
	if err == nil {
		t.Fatalf("lex() returned nil error for a quoted literal, wanted a ParseError")
	}
}
