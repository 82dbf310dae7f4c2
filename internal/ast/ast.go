package ast

// Position locates a node in its source unit. The zero value means
// "no position" (synthesized nodes).
type Position struct {
	Line   int
	Column int
}

// NoPosition is the position of synthesized nodes.
var NoPosition = Position{}

// IsNone reports whether the position carries no location information.
func (p Position) IsNone() bool { return p.Line == 0 }

// Node is the base interface for all AST nodes. The evaluator treats the
// tree as immutable and already validated by the front end.
type Node interface {
	Pos() Position
}

// Statement is a Node evaluated for effect; its value is usually discarded.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node evaluated for its value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root of one compilation unit: a statement list plus the
// script functions hoisted out of it. Functions are visible to every
// statement in the unit regardless of definition order.
type Program struct {
	Source     string // source id, e.g. a file path (may be empty)
	Statements []Statement
	Functions  []*FnDef
}

func (p *Program) Pos() Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return NoPosition
}

// FnDef is a script-defined function. Parameters are bound positionally;
// the body runs in a fresh scope.
type FnDef struct {
	Name     string
	Params   []string
	Body     *Block
	Global   bool // visible unqualified to importers of the defining module
	Position Position
}

func (f *FnDef) Pos() Position { return f.Position }

// Block is a braced statement list. Entering a block saves the scope
// length; leaving rewinds to it.
type Block struct {
	Statements []Statement
	Position   Position
}

func (b *Block) Pos() Position  { return b.Position }
func (b *Block) statementNode() {}
