// Package sql is a small SQL frontend over a kvtx.Engine: a lexer and
// recursive-descent parser compile SELECT and UPDATE statements into
// planner closures that read or write tables through kvtx's reflection
// bridge (kvtx.TableHandle).
package sql

import "fmt"

type tokenType int

const (
	tokEOF tokenType = iota
	tokKeyword
	tokIdent
	tokInt
	tokFloat
	tokSeparator // ( ) , ; .
	tokOperator  // = <> <= >= < > * + - /
)

type token struct {
	typ tokenType
	val string
	pos int
}

func (t token) String() string {
	return fmt.Sprintf("%q", t.val)
}

var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true,
	"UPDATE": true, "SET": true,
	"AND": true, "OR": true, "NOT": true,
	"IS": true, "NULL": true, "AS": true,
}

func isKeyword(upper string) bool {
	return keywords[upper]
}
