package filter

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeType() string
	Pos() int // byte offset in source
}

// Expr is a boolean expression: a condition or a logical combination of
// expressions. The set of implementations is closed: *Comparison,
// *GenreEquals and *Logical.
type Expr interface {
	Node
	exprNode()
}

// Statement is the root of a parsed filter.
type Statement struct {
	Source string // original text
	Expr   Expr
}

// String returns the canonical form of the statement.
func (s *Statement) String() string {
	return Format(s.Expr)
}

// ── Conditions ──────────────────────────────────────────────────────────────

// Ident is an identifier as written in the statement.
type Ident struct {
	Name string
	Pos  int
}

// Number is a non-negative integer literal.
type Number struct {
	Raw   string
	Value int64
	Pos   int
}

// Comparison represents "parameter comparator number".
type Comparison struct {
	TokenPos int
	Param    Ident
	Op       Comparator
	Value    Number
}

func (e *Comparison) nodeType() string { return "Comparison" }
func (e *Comparison) Pos() int         { return e.TokenPos }
func (e *Comparison) exprNode()        {}

// GenreEquals represents "genres = <genre>". Op is kept so the validator
// can report an illegal comparator; the parser only produces CompEQ.
type GenreEquals struct {
	TokenPos int
	Op       Comparator
	Genre    Ident
}

func (e *GenreEquals) nodeType() string { return "GenreEquals" }
func (e *GenreEquals) Pos() int         { return e.TokenPos }
func (e *GenreEquals) exprNode()        {}

// Comparator is a comparison operator.
type Comparator int

const (
	CompLTE Comparator = iota
	CompLT
	CompGTE
	CompGT
	CompEQ
	CompNEQ
)

// String returns the statement symbol.
func (op Comparator) String() string {
	switch op {
	case CompLTE:
		return "<="
	case CompLT:
		return "<"
	case CompGTE:
		return ">="
	case CompGT:
		return ">"
	case CompEQ:
		return "="
	case CompNEQ:
		return "<>"
	default:
		return "?"
	}
}

// Holds reports whether a comparison result (-1, 0, +1, as returned by
// cmp.Compare) satisfies the comparator.
func (op Comparator) Holds(c int) bool {
	switch op {
	case CompLTE:
		return c <= 0
	case CompLT:
		return c < 0
	case CompGTE:
		return c >= 0
	case CompGT:
		return c > 0
	case CompEQ:
		return c == 0
	case CompNEQ:
		return c != 0
	default:
		return false
	}
}

// ── Logical combinations ────────────────────────────────────────────────────

// Logical represents "expr and expr" or "expr or expr".
type Logical struct {
	TokenPos int
	Op       LogicOp
	Left     Expr
	Right    Expr
}

// LogicOp is And or Or.
type LogicOp int

const (
	LogicAnd LogicOp = iota
	LogicOr
)

// String returns the statement keyword.
func (op LogicOp) String() string {
	if op == LogicOr {
		return "or"
	}
	return "and"
}

func (e *Logical) nodeType() string { return "Logical" }
func (e *Logical) Pos() int         { return e.TokenPos }
func (e *Logical) exprNode()        {}
