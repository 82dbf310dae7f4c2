package ast

// UnitLiteral is the empty value ().
type UnitLiteral struct {
	Position Position
}

func (e *UnitLiteral) Pos() Position   { return e.Position }
func (e *UnitLiteral) expressionNode() {}

type BoolLiteral struct {
	Value    bool
	Position Position
}

func (e *BoolLiteral) Pos() Position   { return e.Position }
func (e *BoolLiteral) expressionNode() {}

type IntLiteral struct {
	Value    int64
	Position Position
}

func (e *IntLiteral) Pos() Position   { return e.Position }
func (e *IntLiteral) expressionNode() {}

type FloatLiteral struct {
	Value    float64
	Position Position
}

func (e *FloatLiteral) Pos() Position   { return e.Position }
func (e *FloatLiteral) expressionNode() {}

type CharLiteral struct {
	Value    rune
	Position Position
}

func (e *CharLiteral) Pos() Position   { return e.Position }
func (e *CharLiteral) expressionNode() {}

type StringLiteral struct {
	Value    string
	Position Position
}

func (e *StringLiteral) Pos() Position   { return e.Position }
func (e *StringLiteral) expressionNode() {}

// InterpolatedString is a template string. Literal segments are
// StringLiteral nodes; every other segment is converted via the
// to_string function lookup before concatenation.
type InterpolatedString struct {
	Segments []Expression
	Position Position
}

func (e *InterpolatedString) Pos() Position   { return e.Position }
func (e *InterpolatedString) expressionNode() {}

type ArrayLiteral struct {
	Elements []Expression
	Position Position
}

func (e *ArrayLiteral) Pos() Position   { return e.Position }
func (e *ArrayLiteral) expressionNode() {}

// MapLiteral keys are fixed by the front end; values evaluate left to right.
type MapLiteral struct {
	Keys     []string
	Values   []Expression
	Position Position
}

func (e *MapLiteral) Pos() Position   { return e.Position }
func (e *MapLiteral) expressionNode() {}

// Ident is a variable access. Namespace is non-empty for qualified
// access (module::name), which resolves through the import chain and is
// read-only. Slot caches the scope offset resolved by the front end;
// -1 means unknown (always search by name).
type Ident struct {
	Name      string
	Namespace []string
	Slot      int
	Position  Position
}

func (e *Ident) Pos() Position   { return e.Position }
func (e *Ident) expressionNode() {}

// ThisExpr is the bound receiver of a method-style call.
type ThisExpr struct {
	Position Position
}

func (e *ThisExpr) Pos() Position   { return e.Position }
func (e *ThisExpr) expressionNode() {}

// FnCall calls a function by name. Namespace is non-empty for qualified
// calls. When Method is true, Args[0] is the receiver and is passed by
// reference (the only argument a caller may observe mutated).
type FnCall struct {
	Name      string
	Namespace []string
	Args      []Expression
	Method    bool
	Position  Position
}

func (e *FnCall) Pos() Position   { return e.Position }
func (e *FnCall) expressionNode() {}

// UnaryExpr dispatches through the same machinery as a unary function call.
type UnaryExpr struct {
	Op       string
	Operand  Expression
	Position Position
}

func (e *UnaryExpr) Pos() Position   { return e.Position }
func (e *UnaryExpr) expressionNode() {}

// BinaryExpr is any binary operator other than the short-circuiting ones.
// Resolution tries the built-in operator table first, then registered
// overloads by the operator's function name.
type BinaryExpr struct {
	Op       string
	Left     Expression
	Right    Expression
	Position Position
}

func (e *BinaryExpr) Pos() Position   { return e.Position }
func (e *BinaryExpr) expressionNode() {}

// AndExpr and OrExpr short-circuit: the right operand is not evaluated
// when the left already determines the result.
type AndExpr struct {
	Left     Expression
	Right    Expression
	Position Position
}

func (e *AndExpr) Pos() Position   { return e.Position }
func (e *AndExpr) expressionNode() {}

type OrExpr struct {
	Left     Expression
	Right    Expression
	Position Position
}

func (e *OrExpr) Pos() Position   { return e.Position }
func (e *OrExpr) expressionNode() {}

// CoalesceExpr evaluates the right operand only when the left is unit.
type CoalesceExpr struct {
	Left     Expression
	Right    Expression
	Position Position
}

func (e *CoalesceExpr) Pos() Position   { return e.Position }
func (e *CoalesceExpr) expressionNode() {}

// IndexExpr is container[index]. NullSafe (?.[ ]) yields unit when the
// container is unit.
type IndexExpr struct {
	Left     Expression
	Index    Expression
	NullSafe bool
	Position Position
}

func (e *IndexExpr) Pos() Position   { return e.Position }
func (e *IndexExpr) expressionNode() {}

// DotExpr is property access on a map or a registered host type.
type DotExpr struct {
	Left     Expression
	Field    string
	NullSafe bool
	Position Position
}

func (e *DotExpr) Pos() Position   { return e.Position }
func (e *DotExpr) expressionNode() {}

// IfExpr yields the value of the taken branch; a missing else yields unit.
// Else is nil, a *Block, or another *IfExpr.
type IfExpr struct {
	Cond     Expression
	Then     *Block
	Else     Node
	Position Position
}

func (e *IfExpr) Pos() Position   { return e.Position }
func (e *IfExpr) expressionNode() {}

// FnLiteral is an anonymous function. Captures lists the free variables
// the front end determined must be captured; they are converted to shared
// cells in the defining scope and curried onto the resulting function
// pointer.
type FnLiteral struct {
	Def      *FnDef
	Captures []string
	Position Position
}

func (e *FnLiteral) Pos() Position   { return e.Position }
func (e *FnLiteral) expressionNode() {}

// RangeExpr is an integer range, iterable in for loops.
type RangeExpr struct {
	From      Expression
	To        Expression
	Inclusive bool
	Position  Position
}

func (e *RangeExpr) Pos() Position   { return e.Position }
func (e *RangeExpr) expressionNode() {}

// CustomExpr is a custom-syntax node; the engine dispatches it to the
// handler registered under Name.
type CustomExpr struct {
	Name     string
	Inputs   []Expression
	Position Position
}

func (e *CustomExpr) Pos() Position   { return e.Position }
func (e *CustomExpr) expressionNode() {}
