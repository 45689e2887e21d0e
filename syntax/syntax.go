// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package syntax provides the Dynamo abstract syntax tree.
//
// The tree is produced by the front end (parser plus scope resolver),
// which runs out of process; see package astjson for the interchange
// form. A tree handed to the lowering pass is read-only and fully
// resolved: every Ident carries a Variable, and every BreakStmt and
// ContinueStmt carries the identity of the statement it targets.
package syntax

// A Node is a node in a Dynamo syntax tree.
type Node interface {
	// Span returns the start and end position of the node.
	Span() (start, end Position)
}

// Start returns the start position of the node.
func Start(n Node) Position {
	start, _ := n.Span()
	return start
}

// End returns the end position of the node.
func End(n Node) Position {
	_, end := n.Span()
	return end
}

// A Function represents one function body plus the results of scope
// resolution for it: the unit consumed by the lowering pass.
type Function struct {
	Name       string
	Mode       LanguageMode
	Params     []*Variable // declared parameters, excluding the receiver
	StackSlots int         // number of register slots for local variables
	Scope      *Scope      // function scope; never nil
	Body       []Stmt
}

// NumParameters returns the parameter count including the implicit
// receiver, which occupies parameter slot zero.
func (f *Function) NumParameters() int { return len(f.Params) + 1 }

// A Scope holds the declarations of a function or block scope.
type Scope struct {
	// Function is the implicit declaration of the function's own
	// name, or nil if the function is anonymous or the name is
	// never referenced.
	Function *VarDecl

	Decls []Decl

	// ContextLocals counts variables forced into a heap-allocated
	// context by closure capture. Nonzero counts are beyond this
	// lowering core.
	ContextLocals int
}

// A Stmt is a Dynamo statement.
type Stmt interface {
	Node
	stmt()
}

func (*BlockStmt) stmt()    {}
func (*IfStmt) stmt()       {}
func (*WhileStmt) stmt()    {}
func (*DoWhileStmt) stmt()  {}
func (*ForStmt) stmt()      {}
func (*ReturnStmt) stmt()   {}
func (*BreakStmt) stmt()    {}
func (*ContinueStmt) stmt() {}
func (*ExprStmt) stmt()     {}
func (*EmptyStmt) stmt()    {}
func (*DeclStmt) stmt()     {}
func (*WithStmt) stmt()     {}
func (*SwitchStmt) stmt()   {}
func (*TryStmt) stmt()      {}
func (*ForInStmt) stmt()    {}
func (*ForOfStmt) stmt()    {}
func (*ThrowStmt) stmt()    {}
func (*DebuggerStmt) stmt() {}

// A Decl is a scope-level declaration.
type Decl interface {
	Node
	decl()
}

func (*VarDecl) decl()    {}
func (*FuncDecl) decl()   {}
func (*ImportDecl) decl() {}
func (*ExportDecl) decl() {}

// A VarDecl declares a simple variable: var x; let y.
type VarDecl struct {
	TokenPos Position
	Name     *Ident
}

func (d *VarDecl) Span() (start, end Position) {
	start = d.TokenPos
	if !start.IsValid() {
		start, _ = d.Name.Span()
	}
	_, end = d.Name.Span()
	return start, end
}

// A FuncDecl declares a nested function: function f() {...}.
// Nested functions are beyond this lowering core.
type FuncDecl struct {
	TokenPos Position
	Name     *Ident
}

func (d *FuncDecl) Span() (start, end Position) {
	_, end = d.Name.Span()
	return d.TokenPos, end
}

// An ImportDecl declares an imported module binding.
// Beyond this lowering core.
type ImportDecl struct {
	TokenPos Position
	Name     *Ident
}

func (d *ImportDecl) Span() (start, end Position) {
	_, end = d.Name.Span()
	return d.TokenPos, end
}

// An ExportDecl declares an exported binding.
// Beyond this lowering core.
type ExportDecl struct {
	TokenPos Position
	Name     *Ident
}

func (d *ExportDecl) Span() (start, end Position) {
	_, end = d.Name.Span()
	return d.TokenPos, end
}

// A DeclStmt is a declaration in statement position, e.g. a var
// statement inside a function body. The declaration is also listed in
// the enclosing Scope; the statement form exists so that statement
// order is preserved.
type DeclStmt struct {
	Decl Decl
}

func (s *DeclStmt) Span() (start, end Position) { return s.Decl.Span() }

// A BlockStmt is a braced sequence of statements: { Stmts }.
// Scope is nil for blocks that declare nothing.
type BlockStmt struct {
	Lbrace Position
	Scope  *Scope
	Stmts  []Stmt
	Rbrace Position
}

func (s *BlockStmt) Span() (start, end Position) {
	return s.Lbrace, s.Rbrace.add("}")
}

// An IfStmt is a conditional: if (Cond) Then else Else.
type IfStmt struct {
	If   Position
	Cond Expr
	Then Stmt
	Else Stmt // optional
}

func (s *IfStmt) Span() (start, end Position) {
	body := s.Else
	if body == nil {
		body = s.Then
	}
	_, end = body.Span()
	return s.If, end
}

// A WhileStmt is a pre-tested loop: while (Cond) Body.
type WhileStmt struct {
	While Position
	Cond  Expr
	Body  Stmt
}

func (s *WhileStmt) Span() (start, end Position) {
	_, end = s.Body.Span()
	return s.While, end
}

// A DoWhileStmt is a post-tested loop: do Body while (Cond).
type DoWhileStmt struct {
	Do     Position
	Body   Stmt
	Cond   Expr
	Rparen Position
}

func (s *DoWhileStmt) Span() (start, end Position) {
	return s.Do, s.Rparen.add(")")
}

// A ForStmt is a three-clause loop: for (Init; Cond; Next) Body.
// Init, Cond, and Next are each optional.
type ForStmt struct {
	For  Position
	Init Stmt
	Cond Expr
	Next Stmt
	Body Stmt
}

func (s *ForStmt) Span() (start, end Position) {
	_, end = s.Body.Span()
	return s.For, end
}

// A ReturnStmt returns from the function. A nil Result returns the
// undefined value.
type ReturnStmt struct {
	Return Position
	Result Expr // optional
}

func (s *ReturnStmt) Span() (start, end Position) {
	if s.Result == nil {
		return s.Return, s.Return.add("return")
	}
	_, end = s.Result.Span()
	return s.Return, end
}

// A BreakStmt exits the enclosing statement identified by Target,
// which the resolver points at a loop (or, in dialects beyond this
// core, a labeled statement or switch) lexically enclosing the break.
type BreakStmt struct {
	TokenPos Position
	Target   Stmt
}

func (s *BreakStmt) Span() (start, end Position) {
	return s.TokenPos, s.TokenPos.add("break")
}

// A ContinueStmt restarts the enclosing loop identified by Target.
type ContinueStmt struct {
	TokenPos Position
	Target   Stmt
}

func (s *ContinueStmt) Span() (start, end Position) {
	return s.TokenPos, s.TokenPos.add("continue")
}

// An ExprStmt is an expression evaluated for side effects.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) Span() (start, end Position) { return s.X.Span() }

// An EmptyStmt is a lone semicolon.
type EmptyStmt struct {
	Semicolon Position
}

func (s *EmptyStmt) Span() (start, end Position) {
	return s.Semicolon, s.Semicolon.add(";")
}

// A WithStmt is a with statement. Beyond this lowering core.
type WithStmt struct {
	With Position
	Obj  Expr
	Body Stmt
}

func (s *WithStmt) Span() (start, end Position) {
	_, end = s.Body.Span()
	return s.With, end
}

// A SwitchStmt is a switch statement. Beyond this lowering core.
type SwitchStmt struct {
	Switch Position
	Tag    Expr
	Cases  []*CaseClause
	Rbrace Position
}

func (s *SwitchStmt) Span() (start, end Position) {
	return s.Switch, s.Rbrace.add("}")
}

// A CaseClause is one arm of a SwitchStmt.
type CaseClause struct {
	Case Position
	Cond Expr // nil means default
	Body []Stmt
}

func (s *CaseClause) Span() (start, end Position) {
	end = s.Case.add("case")
	if n := len(s.Body); n > 0 {
		_, end = s.Body[n-1].Span()
	}
	return s.Case, end
}

// A TryStmt is a try statement with optional catch and finally
// clauses. Beyond this lowering core.
type TryStmt struct {
	Try      Position
	Body     Stmt
	CatchVar *Ident // optional
	Catch    Stmt   // optional
	Finally  Stmt   // optional
}

func (s *TryStmt) Span() (start, end Position) {
	body := s.Finally
	if body == nil {
		body = s.Catch
	}
	if body == nil {
		body = s.Body
	}
	_, end = body.Span()
	return s.Try, end
}

// A ForInStmt is a for-in enumeration loop. Beyond this lowering core.
type ForInStmt struct {
	For  Position
	Each Expr
	Obj  Expr
	Body Stmt
}

func (s *ForInStmt) Span() (start, end Position) {
	_, end = s.Body.Span()
	return s.For, end
}

// A ForOfStmt is a for-of iteration loop. Beyond this lowering core.
type ForOfStmt struct {
	For  Position
	Each Expr
	Iter Expr
	Body Stmt
}

func (s *ForOfStmt) Span() (start, end Position) {
	_, end = s.Body.Span()
	return s.For, end
}

// A ThrowStmt raises an exception. Beyond this lowering core.
type ThrowStmt struct {
	Throw Position
	X     Expr
}

func (s *ThrowStmt) Span() (start, end Position) {
	_, end = s.X.Span()
	return s.Throw, end
}

// A DebuggerStmt is a debugger statement. Beyond this lowering core.
type DebuggerStmt struct {
	TokenPos Position
}

func (s *DebuggerStmt) Span() (start, end Position) {
	return s.TokenPos, s.TokenPos.add("debugger")
}

// An Expr is a Dynamo expression.
type Expr interface {
	Node
	expr()
}

func (*Literal) expr()         {}
func (*Ident) expr()           {}
func (*AssignExpr) expr()      {}
func (*PropertyExpr) expr()    {}
func (*CallExpr) expr()        {}
func (*RuntimeCallExpr) expr() {}
func (*BinaryExpr) expr()      {}
func (*CompareExpr) expr()     {}
func (*UnaryExpr) expr()       {}
func (*CountExpr) expr()       {}
func (*CondExpr) expr()        {}
func (*FuncLit) expr()         {}
func (*ObjectLit) expr()       {}
func (*ArrayLit) expr()        {}
func (*RegExpLit) expr()       {}
func (*YieldExpr) expr()       {}
func (*SpreadExpr) expr()      {}
func (*SuperRef) expr()        {}

// Sentinel literal values with no Go counterpart.
type (
	// UndefinedValue is the undefined value.
	UndefinedValue struct{}
	// NullValue is the null value.
	NullValue struct{}
	// HoleValue marks an uninitialized binding.
	HoleValue struct{}
)

// A Literal is a literal value.
//
// Value holds one of: int64, float64, string, bool, UndefinedValue,
// NullValue, or HoleValue.
type Literal struct {
	TokenPos Position
	Raw      string // uninterpreted text; may be empty for synthetic literals
	Value    interface{}
}

func (x *Literal) Span() (start, end Position) {
	return x.TokenPos, x.TokenPos.add(x.Raw)
}

// IsPropertyName reports whether the literal can name a property in a
// named (dotted) access, i.e. it is a string.
func (x *Literal) IsPropertyName() bool {
	_, ok := x.Value.(string)
	return ok
}

// An Ident is a use of a variable.
type Ident struct {
	NamePos Position
	Name    string

	// set by resolver:
	Var *Variable
}

func (x *Ident) Span() (start, end Position) {
	return x.NamePos, x.NamePos.add(x.Name)
}

// An AssignExpr assigns Value to Target: Target Op Value.
// Only simple assignment (Op==EQ) is within this lowering core;
// compound forms are recognized so they can be rejected by name.
type AssignExpr struct {
	OpPos  Position
	Op     Token // EQ or a compound-assignment token
	Target Expr
	Value  Expr
	Slot   FeedbackSlot // store-site feedback, for property targets
}

func (x *AssignExpr) Span() (start, end Position) {
	start, _ = x.Target.Span()
	_, end = x.Value.Span()
	return start, end
}

// A PropertyExpr is a property access: Obj.name or Obj[Key].
// The access is "named" when Key is a string Literal (the parser
// encodes Obj.name that way) and "keyed" otherwise.
type PropertyExpr struct {
	Obj    Expr
	Lbrack Position // position of '[' or '.'
	Key    Expr
	Super  bool // access through super; beyond this lowering core
	Slot   FeedbackSlot
}

func (x *PropertyExpr) Span() (start, end Position) {
	start, _ = x.Obj.Span()
	_, end = x.Key.Span()
	return start, end
}

// A CallExpr is a function call: Fn(Args).
type CallExpr struct {
	Fn     Expr
	Lparen Position
	Args   []Expr
	Rparen Position
}

func (x *CallExpr) Span() (start, end Position) {
	start, _ = x.Fn.Span()
	return start, x.Rparen.add(")")
}

// Kind classifies the call by the shape of its callee, which decides
// how the callee and receiver are prepared.
func (x *CallExpr) Kind() CallKind {
	switch fn := x.Fn.(type) {
	case *PropertyExpr:
		return PropertyCall
	case *Ident:
		if fn.Var != nil {
			switch fn.Var.Loc {
			case Global, Unallocated:
				return GlobalCall
			case Lookup:
				return LookupSlotCall
			}
		}
		return OtherCall
	case *SuperRef:
		return SuperCall
	}
	return OtherCall
}

// A CallKind enumerates the callee shapes of a CallExpr.
type CallKind uint8

const (
	PropertyCall   CallKind = iota // o.f(...) or o[k](...)
	GlobalCall                     // f(...) where f is a global
	LookupSlotCall                 // f(...) where f needs dynamic lookup
	SuperCall                      // super(...)
	OtherCall                      // any other callee expression
)

var callKindNames = [...]string{
	PropertyCall:   "property call",
	GlobalCall:     "global call",
	LookupSlotCall: "lookup slot call",
	SuperCall:      "super call",
	OtherCall:      "call",
}

func (k CallKind) String() string { return callKindNames[k] }

// A RuntimeCallExpr invokes an interpreter intrinsic: %Name(Args).
// FuncID is the interpreter's token for the intrinsic; lowering
// passes it through without interpretation.
type RuntimeCallExpr struct {
	PercentPos Position
	Name       string
	FuncID     int
	Args       []Expr
	Rparen     Position
}

func (x *RuntimeCallExpr) Span() (start, end Position) {
	return x.PercentPos, x.Rparen.add(")")
}

// A BinaryExpr is a binary operation without comparison semantics:
// X Op Y where Op is arithmetic, bitwise, short-circuit, or comma.
type BinaryExpr struct {
	X     Expr
	OpPos Position
	Op    Token
	Y     Expr
}

func (x *BinaryExpr) Span() (start, end Position) {
	start, _ = x.X.Span()
	_, end = x.Y.Span()
	return start, end
}

// A CompareExpr is a comparison: X Op Y.
type CompareExpr struct {
	X     Expr
	OpPos Position
	Op    Token
	Y     Expr
}

func (x *CompareExpr) Span() (start, end Position) {
	start, _ = x.X.Span()
	_, end = x.Y.Span()
	return start, end
}

// A UnaryExpr is a unary operation: Op X. Beyond this lowering core.
type UnaryExpr struct {
	OpPos Position
	Op    Token
	X     Expr
}

func (x *UnaryExpr) Span() (start, end Position) {
	_, end = x.X.Span()
	return x.OpPos, end
}

// A CountExpr is an increment or decrement: ++X, X--, etc.
// Beyond this lowering core.
type CountExpr struct {
	OpPos  Position
	Op     Token // PLUSPLUS or MINUSMINUS
	Prefix bool
	X      Expr
}

func (x *CountExpr) Span() (start, end Position) {
	if x.Prefix {
		_, end = x.X.Span()
		return x.OpPos, end
	}
	start, _ = x.X.Span()
	return start, x.OpPos.add(x.Op.String())
}

// A CondExpr is the ternary conditional: Cond ? Then : Else.
// Beyond this lowering core.
type CondExpr struct {
	Cond     Expr
	Question Position
	Then     Expr
	Colon    Position
	Else     Expr
}

func (x *CondExpr) Span() (start, end Position) {
	start, _ = x.Cond.Span()
	_, end = x.Else.Span()
	return start, end
}

// A FuncLit is a function or class literal. The body is opaque here:
// nested functions are lowered as separate units, and in any case are
// beyond this lowering core.
type FuncLit struct {
	TokenPos Position
	Name     string
	Class    bool
	Rbrace   Position
}

func (x *FuncLit) Span() (start, end Position) {
	return x.TokenPos, x.Rbrace.add("}")
}

// An ObjectLit is an object literal: { ... }. Beyond this lowering core.
type ObjectLit struct {
	Lbrace  Position
	Entries []*ObjectEntry
	Rbrace  Position
}

func (x *ObjectLit) Span() (start, end Position) {
	return x.Lbrace, x.Rbrace.add("}")
}

// An ObjectEntry is one Key: Value pair of an ObjectLit.
type ObjectEntry struct {
	Key   Expr
	Colon Position
	Value Expr
}

func (x *ObjectEntry) Span() (start, end Position) {
	start, _ = x.Key.Span()
	_, end = x.Value.Span()
	return start, end
}

// An ArrayLit is an array literal: [ ... ]. Beyond this lowering core.
type ArrayLit struct {
	Lbrack Position
	Elems  []Expr
	Rbrack Position
}

func (x *ArrayLit) Span() (start, end Position) {
	return x.Lbrack, x.Rbrack.add("]")
}

// A RegExpLit is a regular expression literal. Beyond this lowering core.
type RegExpLit struct {
	TokenPos Position
	Pattern  string
	Flags    string
}

func (x *RegExpLit) Span() (start, end Position) {
	return x.TokenPos, x.TokenPos.add("/" + x.Pattern + "/" + x.Flags)
}

// A YieldExpr suspends a generator. Beyond this lowering core.
type YieldExpr struct {
	Yield Position
	X     Expr // optional
}

func (x *YieldExpr) Span() (start, end Position) {
	if x.X == nil {
		return x.Yield, x.Yield.add("yield")
	}
	_, end = x.X.Span()
	return x.Yield, end
}

// A SpreadExpr spreads an iterable into a call or literal.
// Beyond this lowering core.
type SpreadExpr struct {
	Ellipsis Position
	X        Expr
}

func (x *SpreadExpr) Span() (start, end Position) {
	_, end = x.X.Span()
	return x.Ellipsis, end
}

// A SuperRef is a reference to super. Beyond this lowering core.
type SuperRef struct {
	TokenPos Position
}

func (x *SuperRef) Span() (start, end Position) {
	return x.TokenPos, x.TokenPos.add("super")
}
