package ast

// Node is any syntax tree node.
type Node interface {
	Flags() Flags
	Line() int
	setLine(int)
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type base struct {
	flags Flags
	line  int
}

func (b *base) Flags() Flags     { return b.flags }
func (b *base) Line() int        { return b.line }
func (b *base) setLine(line int) { b.line = line }

// At records the source line of n and returns it.
func At[T Node](n T, line int) T {
	n.setLine(line)
	return n
}

type expr struct{ base }

func (expr) exprNode() {}

type stmt struct{ base }

func (stmt) stmtNode() {}

// Program is a parsed source file.
type Program struct {
	base
	Body []Stmt
}

func NewProgram(body []Stmt) *Program {
	p := &Program{Body: body}
	p.flags = stmtFlags(body)
	return p
}

// Function is the shared part of function declarations and expressions.
type Function struct {
	base
	Name      string
	Params    []string
	Body      []Stmt
	Generator bool
	bodyFlags Flags
}

func NewFunction(name string, params []string, body []Stmt, generator bool) *Function {
	f := &Function{Name: name, Params: params, Body: body, Generator: generator}
	f.bodyFlags = stmtFlags(body)
	f.flags = f.bodyFlags & crossesFunction
	if generator {
		f.flags |= ContainsGenerator
	}
	return f
}

// BodyFlags returns the flags of the body including ContainsYield.
func (f *Function) BodyFlags() Flags { return f.bodyFlags }

// Expressions

type Ident struct {
	expr
	Name string
	// Generated marks compiler temporaries. They are never re-cached.
	Generated bool
}

func NewIdent(name string) *Ident { return &Ident{Name: name} }

// NewTemp returns an identifier for a compiler temporary.
func NewTemp(name string) *Ident { return &Ident{Name: name, Generated: true} }

type NumberLit struct {
	expr
	Value float64
	// Raw is the source spelling, printed verbatim when set.
	Raw string
	// Comment is printed after the value as /*Comment*/.
	Comment string
}

func NewNumber(v float64) *NumberLit { return &NumberLit{Value: v} }

// NewAnnotated returns a number printed with a trailing block comment.
func NewAnnotated(v float64, comment string) *NumberLit {
	return &NumberLit{Value: v, Comment: comment}
}

type StringLit struct {
	expr
	Value string
}

func NewString(v string) *StringLit { return &StringLit{Value: v} }

type BoolLit struct {
	expr
	Value bool
}

func NewBool(v bool) *BoolLit { return &BoolLit{Value: v} }

type NullLit struct{ expr }

func NewNull() *NullLit { return &NullLit{} }

type ThisExpr struct{ expr }

func NewThis() *ThisExpr { return &ThisExpr{} }

// LabelRef is a jump target inside lowered code. It stands for a state
// machine case number that is only known once the whole body is assembled.
type LabelRef struct {
	expr
	Label int
}

func NewLabelRef(label int) *LabelRef { return &LabelRef{Label: label} }

// ArrayLit is an array literal. A nil element is a hole.
type ArrayLit struct {
	expr
	Elements []Expr
}

func NewArray(elements []Expr) *ArrayLit {
	a := &ArrayLit{Elements: elements}
	a.flags = exprFlags(elements)
	return a
}

type Property struct {
	Key   string
	Value Expr
}

type ObjectLit struct {
	expr
	Props []Property
}

func NewObject(props []Property) *ObjectLit {
	o := &ObjectLit{Props: props}
	for _, p := range props {
		o.flags |= FlagsOf(p.Value)
	}
	return o
}

type FuncLit struct {
	expr
	Fn *Function
}

func NewFuncLit(fn *Function) *FuncLit {
	f := &FuncLit{Fn: fn}
	f.flags = FlagsOf(fn)
	return f
}

// UnaryExpr is a prefix operator: ! - + ~ typeof void delete.
type UnaryExpr struct {
	expr
	Op string
	X  Expr
}

func NewUnary(op string, x Expr) *UnaryExpr {
	u := &UnaryExpr{Op: op, X: x}
	u.flags = FlagsOf(x)
	return u
}

type UpdateExpr struct {
	expr
	Op     string
	Prefix bool
	X      Expr
}

func NewUpdate(op string, prefix bool, x Expr) *UpdateExpr {
	u := &UpdateExpr{Op: op, Prefix: prefix, X: x}
	u.flags = FlagsOf(x)
	return u
}

// BinaryExpr covers arithmetic, relational, equality, bitwise and logical
// operators.
type BinaryExpr struct {
	expr
	Op string
	X  Expr
	Y  Expr
}

func NewBinary(op string, x, y Expr) *BinaryExpr {
	b := &BinaryExpr{Op: op, X: x, Y: y}
	b.flags = flagsOf(x, y)
	if op == "**" {
		b.flags |= ContainsExponent
	}
	return b
}

// IsLogical reports whether the operator short-circuits.
func (b *BinaryExpr) IsLogical() bool {
	return b.Op == "&&" || b.Op == "||"
}

type AssignExpr struct {
	expr
	Op     string
	Target Expr
	Value  Expr
}

func NewAssign(op string, target, value Expr) *AssignExpr {
	a := &AssignExpr{Op: op, Target: target, Value: value}
	a.flags = flagsOf(target, value)
	if op == "**=" {
		a.flags |= ContainsExponent
	}
	return a
}

// BinaryOp returns the operator of a compound assignment, or "" for "=".
func (a *AssignExpr) BinaryOp() string {
	if a.Op == "=" {
		return ""
	}
	return a.Op[:len(a.Op)-1]
}

type CondExpr struct {
	expr
	Test Expr
	Then Expr
	Else Expr
}

func NewCond(test, then, els Expr) *CondExpr {
	c := &CondExpr{Test: test, Then: then, Else: els}
	c.flags = flagsOf(test, then, els)
	return c
}

type SeqExpr struct {
	expr
	List []Expr
}

func NewSeq(list []Expr) *SeqExpr {
	s := &SeqExpr{List: list}
	s.flags = exprFlags(list)
	return s
}

type CallExpr struct {
	expr
	Callee Expr
	Args   []Expr
}

func NewCall(callee Expr, args []Expr) *CallExpr {
	c := &CallExpr{Callee: callee, Args: args}
	c.flags = FlagsOf(callee) | exprFlags(args)
	return c
}

type NewExpr struct {
	expr
	Callee Expr
	Args   []Expr
}

func NewNew(callee Expr, args []Expr) *NewExpr {
	n := &NewExpr{Callee: callee, Args: args}
	n.flags = FlagsOf(callee) | exprFlags(args)
	return n
}

type MemberExpr struct {
	expr
	X    Expr
	Name string
}

func NewMember(x Expr, name string) *MemberExpr {
	m := &MemberExpr{X: x, Name: name}
	m.flags = FlagsOf(x)
	return m
}

type IndexExpr struct {
	expr
	X     Expr
	Index Expr
}

func NewIndex(x, index Expr) *IndexExpr {
	i := &IndexExpr{X: x, Index: index}
	i.flags = flagsOf(x, index)
	return i
}

type YieldExpr struct {
	expr
	Arg      Expr
	Delegate bool
}

func NewYield(arg Expr, delegate bool) *YieldExpr {
	y := &YieldExpr{Arg: arg, Delegate: delegate}
	y.flags = FlagsOf(arg) | ContainsYield
	return y
}

// Statements

type Declarator struct {
	Name string
	Init Expr
}

// VarDecl is a var, let or const declaration.
type VarDecl struct {
	stmt
	Kind  string
	Decls []Declarator
}

func NewVarDecl(kind string, decls []Declarator) *VarDecl {
	v := &VarDecl{Kind: kind, Decls: decls}
	for _, d := range decls {
		v.flags |= FlagsOf(d.Init)
	}
	return v
}

type FuncDecl struct {
	stmt
	Fn *Function
}

func NewFuncDecl(fn *Function) *FuncDecl {
	d := &FuncDecl{Fn: fn}
	d.flags = FlagsOf(fn)
	return d
}

type ExprStmt struct {
	stmt
	X Expr
}

func NewExprStmt(x Expr) *ExprStmt {
	s := &ExprStmt{X: x}
	s.flags = FlagsOf(x)
	return s
}

type BlockStmt struct {
	stmt
	List []Stmt
}

func NewBlock(list []Stmt) *BlockStmt {
	b := &BlockStmt{List: list}
	b.flags = stmtFlags(list)
	return b
}

type EmptyStmt struct{ stmt }

func NewEmpty() *EmptyStmt { return &EmptyStmt{} }

type IfStmt struct {
	stmt
	Test Expr
	Then Stmt
	Else Stmt
}

func NewIf(test Expr, then, els Stmt) *IfStmt {
	s := &IfStmt{Test: test, Then: then, Else: els}
	s.flags = flagsOf(test, then, els)
	return s
}

type WhileStmt struct {
	stmt
	Test Expr
	Body Stmt
}

func NewWhile(test Expr, body Stmt) *WhileStmt {
	s := &WhileStmt{Test: test, Body: body}
	s.flags = flagsOf(test, body)
	return s
}

type DoWhileStmt struct {
	stmt
	Body Stmt
	Test Expr
}

func NewDoWhile(body Stmt, test Expr) *DoWhileStmt {
	s := &DoWhileStmt{Body: body, Test: test}
	s.flags = flagsOf(body, test)
	return s
}

// ForStmt is a C-style for loop. Init is nil, a *VarDecl or an Expr.
type ForStmt struct {
	stmt
	Init   Node
	Test   Expr
	Update Expr
	Body   Stmt
}

func NewFor(init Node, test, update Expr, body Stmt) *ForStmt {
	s := &ForStmt{Init: init, Test: test, Update: update, Body: body}
	s.flags = flagsOf(init, test, update, body)
	return s
}

// ForInStmt iterates the keys of Right. Left is a single-binding *VarDecl
// or an assignable Expr.
type ForInStmt struct {
	stmt
	Left  Node
	Right Expr
	Body  Stmt
}

func NewForIn(left Node, right Expr, body Stmt) *ForInStmt {
	s := &ForInStmt{Left: left, Right: right, Body: body}
	s.flags = flagsOf(left, right, body)
	return s
}

// CaseClause is one case of a switch. Test is nil for default.
type CaseClause struct {
	base
	Test Expr
	Body []Stmt
}

func NewCase(test Expr, body []Stmt) *CaseClause {
	c := &CaseClause{Test: test, Body: body}
	c.flags = FlagsOf(test) | stmtFlags(body)
	return c
}

type SwitchStmt struct {
	stmt
	Disc  Expr
	Cases []*CaseClause
}

func NewSwitch(disc Expr, cases []*CaseClause) *SwitchStmt {
	s := &SwitchStmt{Disc: disc, Cases: cases}
	s.flags = FlagsOf(disc)
	for _, c := range cases {
		s.flags |= FlagsOf(c)
	}
	return s
}

type LabeledStmt struct {
	stmt
	Label string
	Body  Stmt
}

func NewLabeled(label string, body Stmt) *LabeledStmt {
	s := &LabeledStmt{Label: label, Body: body}
	s.flags = FlagsOf(body)
	return s
}

type BreakStmt struct {
	stmt
	Label string
}

func NewBreak(label string) *BreakStmt { return &BreakStmt{Label: label} }

type ContinueStmt struct {
	stmt
	Label string
}

func NewContinue(label string) *ContinueStmt { return &ContinueStmt{Label: label} }

type ReturnStmt struct {
	stmt
	X Expr
}

func NewReturn(x Expr) *ReturnStmt {
	s := &ReturnStmt{X: x}
	s.flags = FlagsOf(x)
	return s
}

type ThrowStmt struct {
	stmt
	X Expr
}

func NewThrow(x Expr) *ThrowStmt {
	s := &ThrowStmt{X: x}
	s.flags = FlagsOf(x)
	return s
}

// TryStmt has at least one of Handler and Finalizer. Param names the
// caught value when Handler is set.
type TryStmt struct {
	stmt
	Block     *BlockStmt
	Param     string
	Handler   *BlockStmt
	Finalizer *BlockStmt
}

func NewTry(block *BlockStmt, param string, handler, finalizer *BlockStmt) *TryStmt {
	s := &TryStmt{Block: block, Param: param, Handler: handler, Finalizer: finalizer}
	s.flags = flagsOf(block, handler, finalizer)
	return s
}

type WithStmt struct {
	stmt
	Object Expr
	Body   Stmt
}

func NewWith(object Expr, body Stmt) *WithStmt {
	s := &WithStmt{Object: object, Body: body}
	s.flags = flagsOf(object, body)
	return s
}
