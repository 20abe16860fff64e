package filter

import (
	"strings"
)

// Format renders an expression in canonical form: single spaces between
// tokens, no parentheses. Trees produced by the parser are left-deep, so
// Parse(Format(e)) yields a tree structurally equal to e.
func Format(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Comparison:
		b.WriteString(n.Param.Name)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		b.WriteString(n.Value.Raw)
	case *GenreEquals:
		b.WriteString(genresKeyword)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		b.WriteString(n.Genre.Name)
	case *Logical:
		writeExpr(b, n.Left)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		writeExpr(b, n.Right)
	}
}

// Equal reports whether two expressions have the same structure and values,
// ignoring source offsets.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case *Comparison:
		y, ok := b.(*Comparison)
		return ok && x.Param.Name == y.Param.Name && x.Op == y.Op && x.Value.Value == y.Value.Value
	case *GenreEquals:
		y, ok := b.(*GenreEquals)
		return ok && x.Op == y.Op && x.Genre.Name == y.Genre.Name
	case *Logical:
		y, ok := b.(*Logical)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	default:
		return a == nil && b == nil
	}
}
