package ast

// ExprStatement evaluates an expression for its value; the value of the
// last statement of a block is the value of the block.
type ExprStatement struct {
	Expr     Expression
	Position Position
}

func (s *ExprStatement) Pos() Position  { return s.Position }
func (s *ExprStatement) statementNode() {}

// VarDecl introduces a binding. Constant bindings reject later assignment.
type VarDecl struct {
	Name     string
	Value    Expression
	Constant bool
	Position Position
}

func (s *VarDecl) Pos() Position  { return s.Position }
func (s *VarDecl) statementNode() {}

// Assign writes to an assignable expression (Ident, IndexExpr, DotExpr).
// Op is "=" or a compound operator such as "+=".
type Assign struct {
	Target   Expression
	Op       string
	Value    Expression
	Position Position
}

func (s *Assign) Pos() Position  { return s.Position }
func (s *Assign) statementNode() {}

type While struct {
	Cond     Expression
	Body     *Block
	Position Position
}

func (s *While) Pos() Position  { return s.Position }
func (s *While) statementNode() {}

// Loop is an unconditional loop terminated by break or a control error.
type Loop struct {
	Body     *Block
	Position Position
}

func (s *Loop) Pos() Position  { return s.Position }
func (s *Loop) statementNode() {}

// For iterates arrays, maps, ranges, and host types with a registered
// type iterator. CounterName, when non-empty, binds the iteration index.
type For struct {
	VarName     string
	CounterName string
	Iterable    Expression
	Body        *Block
	Position    Position
}

func (s *For) Pos() Position  { return s.Position }
func (s *For) statementNode() {}

type Return struct {
	Value    Expression // nil returns unit
	Position Position
}

func (s *Return) Pos() Position  { return s.Position }
func (s *Return) statementNode() {}

type Break struct {
	Position Position
}

func (s *Break) Pos() Position  { return s.Position }
func (s *Break) statementNode() {}

type Continue struct {
	Position Position
}

func (s *Continue) Pos() Position  { return s.Position }
func (s *Continue) statementNode() {}

// Import resolves Path through the engine's module resolver and registers
// the result under Alias (or the path's last segment when Alias is empty).
type Import struct {
	Path     Expression
	Alias    string
	Position Position
}

func (s *Import) Pos() Position  { return s.Position }
func (s *Import) statementNode() {}
