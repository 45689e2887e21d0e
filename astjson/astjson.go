// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package astjson decodes the JSON interchange form of a resolved
// Dynamo function into a syntax tree.
//
// The front end (parser and scope resolver) runs out of process and
// emits one JSON document per function:
//
//	{
//	  "name": "add",
//	  "mode": "sloppy",
//	  "params": ["a", "b"],
//	  "stackSlots": 1,
//	  "vars": {
//	    "a": {"loc": "parameter", "index": 0},
//	    "b": {"loc": "parameter", "index": 1},
//	    "t": {"loc": "local", "index": 0}
//	  },
//	  "decls": ["t"],
//	  "body": [
//	    {"kind": "return", "result": {"kind": "binary", "op": "+",
//	      "x": {"kind": "ident", "name": "a"},
//	      "y": {"kind": "ident", "name": "b"}}}
//	  ]
//	}
//
// Statements that can be targeted by break or continue carry an "id";
// the jump statements name their target through "label". An id is
// visible only inside its statement's subtree: a jump must be nested
// within the statement it targets, as the resolver guarantees, and a
// jump following its target is a decode error. Identity of variables
// is by name: every "ident" node with the same name denotes the same
// resolved variable from the "vars" table.
package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/dynamo-lang/dynamo/syntax"
)

// Decode decodes one function document.
func Decode(data []byte) (*syntax.Function, error) {
	var doc jsonFunction
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding function: %v", err)
	}
	d := &decoder{
		vars:   make(map[string]*syntax.Variable),
		labels: make(map[string]syntax.Stmt),
	}

	fn := &syntax.Function{
		Name:       doc.Name,
		StackSlots: doc.StackSlots,
		Scope:      &syntax.Scope{},
	}
	switch doc.Mode {
	case "", "sloppy":
		fn.Mode = syntax.Sloppy
	case "strict":
		fn.Mode = syntax.Strict
	default:
		return nil, fmt.Errorf("unknown language mode %q", doc.Mode)
	}

	for name, jv := range doc.Vars {
		loc, ok := locations[jv.Loc]
		if !ok {
			return nil, fmt.Errorf("variable %s: unknown location %q", name, jv.Loc)
		}
		d.vars[name] = &syntax.Variable{Name: name, Loc: loc, Index: jv.Index}
	}
	for i, name := range doc.Params {
		v, err := d.variable(name)
		if err != nil {
			return nil, err
		}
		if v.Loc != syntax.Parameter || v.Index != i {
			return nil, fmt.Errorf("parameter %s resolved to %s slot %d", name, v.Loc, v.Index)
		}
		fn.Params = append(fn.Params, v)
	}
	if doc.Self != "" {
		decl, err := d.varDecl(doc.Self)
		if err != nil {
			return nil, err
		}
		fn.Scope.Function = decl
	}
	for _, name := range doc.Decls {
		decl, err := d.varDecl(name)
		if err != nil {
			return nil, err
		}
		fn.Scope.Decls = append(fn.Scope.Decls, decl)
	}
	for i, n := range doc.Body {
		stmt, err := d.stmt(n)
		if err != nil {
			return nil, fmt.Errorf("body[%d]: %v", i, err)
		}
		fn.Body = append(fn.Body, stmt)
	}
	return fn, nil
}

type jsonFunction struct {
	Name       string             `json:"name"`
	Mode       string             `json:"mode"`
	Params     []string           `json:"params"`
	StackSlots int                `json:"stackSlots"`
	Vars       map[string]jsonVar `json:"vars"`
	Self       string             `json:"self"`
	Decls      []string           `json:"decls"`
	Body       []*jsonNode        `json:"body"`
}

type jsonVar struct {
	Loc   string `json:"loc"`
	Index int    `json:"index"`
}

// A jsonNode is the union of all node encodings; Kind selects which
// fields are meaningful.
type jsonNode struct {
	Kind string `json:"kind"`
	Line int32  `json:"line"`
	Col  int32  `json:"col"`

	// literal
	Int      *int64   `json:"int"`
	Float    *float64 `json:"float"`
	Str      *string  `json:"string"`
	Bool     *bool    `json:"bool"`
	Sentinel string   `json:"sentinel"` // "undefined", "null", "hole"

	// ident, runtime call, function literal
	Name string `json:"name"`

	// operators
	Op     string `json:"op"`
	Prefix bool   `json:"prefix"`

	// children
	X      *jsonNode   `json:"x"`
	Y      *jsonNode   `json:"y"`
	Obj    *jsonNode   `json:"obj"`
	Key    *jsonNode   `json:"key"`
	Target *jsonNode   `json:"target"`
	Value  *jsonNode   `json:"value"`
	Cond   *jsonNode   `json:"cond"`
	Then   *jsonNode   `json:"then"`
	Else   *jsonNode   `json:"else"`
	Fn     *jsonNode   `json:"fn"`
	Init   *jsonNode   `json:"init"`
	Next   *jsonNode   `json:"next"`
	Body   *jsonNode   `json:"body"`
	Result *jsonNode   `json:"result"`
	Args   []*jsonNode `json:"args"`
	Stmts  []*jsonNode `json:"stmts"`

	// block scope
	Decls         []string `json:"decls"`
	ContextLocals int      `json:"contextLocals"`

	// jump plumbing
	ID    string `json:"id"`    // on jump-targetable statements
	Label string `json:"label"` // on break/continue

	// property access
	Super bool `json:"super"`
	Slot  *int `json:"slot"`

	// runtime call
	FuncID int `json:"funcId"`
}

var locations = map[string]syntax.Location{
	"unallocated": syntax.Unallocated,
	"parameter":   syntax.Parameter,
	"local":       syntax.Local,
	"context":     syntax.Context,
	"lookup":      syntax.Lookup,
	"global":      syntax.Global,
}

var tokens = map[string]syntax.Token{
	"=":          syntax.EQ,
	"+=":         syntax.PLUS_EQ,
	"-=":         syntax.MINUS_EQ,
	"*=":         syntax.STAR_EQ,
	"/=":         syntax.SLASH_EQ,
	"%=":         syntax.PERCENT_EQ,
	"+":          syntax.PLUS,
	"-":          syntax.MINUS,
	"*":          syntax.STAR,
	"/":          syntax.SLASH,
	"%":          syntax.PERCENT,
	"&":          syntax.AMP,
	"|":          syntax.PIPE,
	"^":          syntax.CARET,
	"<<":         syntax.LTLT,
	">>":         syntax.GTGT,
	">>>":        syntax.GTGTGT,
	",":          syntax.COMMA,
	"||":         syntax.OR,
	"&&":         syntax.AND,
	"==":         syntax.EQEQ,
	"!=":         syntax.NEQ,
	"===":        syntax.EQEQEQ,
	"!==":        syntax.NEQEQ,
	"<":          syntax.LT,
	">":          syntax.GT,
	"<=":         syntax.LE,
	">=":         syntax.GE,
	"in":         syntax.IN,
	"instanceof": syntax.INSTANCEOF,
	"!":          syntax.NOT,
	"~":          syntax.TILDE,
	"typeof":     syntax.TYPEOF,
	"void":       syntax.VOID,
	"delete":     syntax.DELETE,
	"++":         syntax.PLUSPLUS,
	"--":         syntax.MINUSMINUS,
}

// A decoder resolves variable and label references while decoding.
type decoder struct {
	vars   map[string]*syntax.Variable
	labels map[string]syntax.Stmt
}

func (d *decoder) variable(name string) (*syntax.Variable, error) {
	v, ok := d.vars[name]
	if !ok {
		return nil, fmt.Errorf("unresolved variable %q", name)
	}
	return v, nil
}

func (d *decoder) ident(name string, pos syntax.Position) (*syntax.Ident, error) {
	v, err := d.variable(name)
	if err != nil {
		return nil, err
	}
	return &syntax.Ident{NamePos: pos, Name: name, Var: v}, nil
}

func (d *decoder) varDecl(name string) (*syntax.VarDecl, error) {
	id, err := d.ident(name, syntax.Position{})
	if err != nil {
		return nil, err
	}
	return &syntax.VarDecl{Name: id}, nil
}

func (d *decoder) token(n *jsonNode) (syntax.Token, error) {
	tok, ok := tokens[n.Op]
	if !ok {
		return 0, fmt.Errorf("unknown operator %q", n.Op)
	}
	return tok, nil
}

func (d *decoder) pos(n *jsonNode) syntax.Position {
	return syntax.MakePosition(n.Line, n.Col)
}

// slot reads the feedback slot the front end assigned to an access
// site. The lowering pass has no fallback for a missing slot, so a
// document that omits one is rejected here rather than encoded with
// the invalid sentinel.
func (d *decoder) slot(n *jsonNode, site string) (syntax.FeedbackSlot, error) {
	if n.Slot == nil || *n.Slot < 0 {
		return syntax.InvalidFeedbackSlot, fmt.Errorf("%s without a feedback slot", site)
	}
	return syntax.FeedbackSlot(*n.Slot), nil
}

// property decodes a property access. A load site carries its own
// feedback slot; a store target takes the slot from the enclosing
// assignment instead.
func (d *decoder) property(n *jsonNode, load bool) (*syntax.PropertyExpr, error) {
	obj, err := d.expr(n.Obj)
	if err != nil {
		return nil, err
	}
	key, err := d.expr(n.Key)
	if err != nil {
		return nil, err
	}
	p := &syntax.PropertyExpr{
		Obj:    obj,
		Lbrack: d.pos(n),
		Key:    key,
		Super:  n.Super,
		Slot:   syntax.InvalidFeedbackSlot,
	}
	if load {
		if p.Slot, err = d.slot(n, "property access"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// register records a jump-targetable statement under its id, before
// its body is decoded so inner jumps can reference it. The caller
// must unregister the id once the subtree is decoded: a jump outside
// the subtree has no target on the lowering pass's control-scope
// stack, so letting it decode would turn bad input into a panic
// there.
func (d *decoder) register(n *jsonNode, s syntax.Stmt) error {
	if n.ID == "" {
		return nil
	}
	if _, dup := d.labels[n.ID]; dup {
		return fmt.Errorf("duplicate statement id %q", n.ID)
	}
	d.labels[n.ID] = s
	return nil
}

// unregister removes the statement's id from scope.
func (d *decoder) unregister(n *jsonNode) {
	if n.ID != "" {
		delete(d.labels, n.ID)
	}
}

func (d *decoder) stmts(nodes []*jsonNode) ([]syntax.Stmt, error) {
	var out []syntax.Stmt
	for i, n := range nodes {
		s, err := d.stmt(n)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %v", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// optStmt decodes a possibly-absent statement.
func (d *decoder) optStmt(n *jsonNode) (syntax.Stmt, error) {
	if n == nil {
		return nil, nil
	}
	return d.stmt(n)
}

func (d *decoder) stmt(n *jsonNode) (syntax.Stmt, error) {
	if n == nil {
		return nil, fmt.Errorf("missing statement")
	}
	pos := d.pos(n)
	switch n.Kind {
	case "block":
		blk := &syntax.BlockStmt{Lbrace: pos}
		if len(n.Decls) > 0 || n.ContextLocals > 0 {
			scope := &syntax.Scope{ContextLocals: n.ContextLocals}
			for _, name := range n.Decls {
				decl, err := d.varDecl(name)
				if err != nil {
					return nil, err
				}
				scope.Decls = append(scope.Decls, decl)
			}
			blk.Scope = scope
		}
		stmts, err := d.stmts(n.Stmts)
		if err != nil {
			return nil, err
		}
		blk.Stmts = stmts
		return blk, nil

	case "if":
		cond, err := d.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.stmt(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.optStmt(n.Else)
		if err != nil {
			return nil, err
		}
		return &syntax.IfStmt{If: pos, Cond: cond, Then: then, Else: els}, nil

	case "while":
		s := &syntax.WhileStmt{While: pos}
		if err := d.register(n, s); err != nil {
			return nil, err
		}
		defer d.unregister(n)
		var err error
		if s.Cond, err = d.expr(n.Cond); err != nil {
			return nil, err
		}
		if s.Body, err = d.stmt(n.Body); err != nil {
			return nil, err
		}
		return s, nil

	case "dowhile":
		s := &syntax.DoWhileStmt{Do: pos}
		if err := d.register(n, s); err != nil {
			return nil, err
		}
		defer d.unregister(n)
		var err error
		if s.Body, err = d.stmt(n.Body); err != nil {
			return nil, err
		}
		if s.Cond, err = d.expr(n.Cond); err != nil {
			return nil, err
		}
		return s, nil

	case "for":
		s := &syntax.ForStmt{For: pos}
		if err := d.register(n, s); err != nil {
			return nil, err
		}
		defer d.unregister(n)
		var err error
		if s.Init, err = d.optStmt(n.Init); err != nil {
			return nil, err
		}
		if n.Cond != nil {
			if s.Cond, err = d.expr(n.Cond); err != nil {
				return nil, err
			}
		}
		if s.Next, err = d.optStmt(n.Next); err != nil {
			return nil, err
		}
		if s.Body, err = d.stmt(n.Body); err != nil {
			return nil, err
		}
		return s, nil

	case "return":
		s := &syntax.ReturnStmt{Return: pos}
		if n.Result != nil {
			var err error
			if s.Result, err = d.expr(n.Result); err != nil {
				return nil, err
			}
		}
		return s, nil

	case "break", "continue":
		target, ok := d.labels[n.Label]
		if !ok {
			return nil, fmt.Errorf("%s targets unknown statement id %q", n.Kind, n.Label)
		}
		if n.Kind == "break" {
			return &syntax.BreakStmt{TokenPos: pos, Target: target}, nil
		}
		return &syntax.ContinueStmt{TokenPos: pos, Target: target}, nil

	case "expr":
		x, err := d.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &syntax.ExprStmt{X: x}, nil

	case "empty":
		return &syntax.EmptyStmt{Semicolon: pos}, nil

	case "var":
		decl, err := d.varDecl(n.Name)
		if err != nil {
			return nil, err
		}
		decl.TokenPos = pos
		return &syntax.DeclStmt{Decl: decl}, nil

	// Recognized so lowering can reject them by name.
	case "with":
		obj, err := d.expr(n.Obj)
		if err != nil {
			return nil, err
		}
		body, err := d.stmt(n.Body)
		if err != nil {
			return nil, err
		}
		return &syntax.WithStmt{With: pos, Obj: obj, Body: body}, nil
	case "switch":
		tag, err := d.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		return &syntax.SwitchStmt{Switch: pos, Tag: tag}, nil
	case "try":
		body, err := d.stmt(n.Body)
		if err != nil {
			return nil, err
		}
		return &syntax.TryStmt{Try: pos, Body: body}, nil
	case "forin":
		return d.forEach(n, pos, true)
	case "forof":
		return d.forEach(n, pos, false)
	case "throw":
		x, err := d.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &syntax.ThrowStmt{Throw: pos, X: x}, nil
	case "debugger":
		return &syntax.DebuggerStmt{TokenPos: pos}, nil
	}
	return nil, fmt.Errorf("unknown statement kind %q", n.Kind)
}

func (d *decoder) forEach(n *jsonNode, pos syntax.Position, in bool) (syntax.Stmt, error) {
	each, err := d.expr(n.Target)
	if err != nil {
		return nil, err
	}
	obj, err := d.expr(n.Obj)
	if err != nil {
		return nil, err
	}
	body, err := d.stmt(n.Body)
	if err != nil {
		return nil, err
	}
	if in {
		return &syntax.ForInStmt{For: pos, Each: each, Obj: obj, Body: body}, nil
	}
	return &syntax.ForOfStmt{For: pos, Each: each, Iter: obj, Body: body}, nil
}

func (d *decoder) exprs(nodes []*jsonNode) ([]syntax.Expr, error) {
	var out []syntax.Expr
	for i, n := range nodes {
		x, err := d.expr(n)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %v", i, err)
		}
		out = append(out, x)
	}
	return out, nil
}

func (d *decoder) expr(n *jsonNode) (syntax.Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("missing expression")
	}
	pos := d.pos(n)
	switch n.Kind {
	case "literal":
		lit := &syntax.Literal{TokenPos: pos}
		switch {
		case n.Int != nil:
			lit.Value = *n.Int
		case n.Float != nil:
			lit.Value = *n.Float
		case n.Str != nil:
			lit.Value = *n.Str
		case n.Bool != nil:
			lit.Value = *n.Bool
		case n.Sentinel == "undefined":
			lit.Value = syntax.UndefinedValue{}
		case n.Sentinel == "null":
			lit.Value = syntax.NullValue{}
		case n.Sentinel == "hole":
			lit.Value = syntax.HoleValue{}
		default:
			return nil, fmt.Errorf("literal without a value")
		}
		return lit, nil

	case "ident":
		return d.ident(n.Name, pos)

	case "assign":
		op := syntax.EQ
		if n.Op != "" {
			var err error
			if op, err = d.token(n); err != nil {
				return nil, err
			}
		}
		// A property target is a store site: the feedback slot
		// lives on the assignment, not on the target node.
		var target syntax.Expr
		slot := syntax.InvalidFeedbackSlot
		if n.Target != nil && n.Target.Kind == "property" {
			var err error
			if target, err = d.property(n.Target, false); err != nil {
				return nil, err
			}
			if slot, err = d.slot(n, "property store"); err != nil {
				return nil, err
			}
		} else {
			var err error
			if target, err = d.expr(n.Target); err != nil {
				return nil, err
			}
		}
		value, err := d.expr(n.Value)
		if err != nil {
			return nil, err
		}
		return &syntax.AssignExpr{OpPos: pos, Op: op, Target: target, Value: value, Slot: slot}, nil

	case "property":
		return d.property(n, true)

	case "call":
		fn, err := d.expr(n.Fn)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &syntax.CallExpr{Fn: fn, Lparen: pos, Args: args}, nil

	case "runtime":
		args, err := d.exprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &syntax.RuntimeCallExpr{PercentPos: pos, Name: n.Name, FuncID: n.FuncID, Args: args}, nil

	case "binary", "compare":
		op, err := d.token(n)
		if err != nil {
			return nil, err
		}
		x, err := d.expr(n.X)
		if err != nil {
			return nil, err
		}
		y, err := d.expr(n.Y)
		if err != nil {
			return nil, err
		}
		if n.Kind == "compare" {
			return &syntax.CompareExpr{X: x, OpPos: pos, Op: op, Y: y}, nil
		}
		return &syntax.BinaryExpr{X: x, OpPos: pos, Op: op, Y: y}, nil

	// Recognized so lowering can reject them by name.
	case "unary":
		op, err := d.token(n)
		if err != nil {
			return nil, err
		}
		x, err := d.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &syntax.UnaryExpr{OpPos: pos, Op: op, X: x}, nil
	case "count":
		op, err := d.token(n)
		if err != nil {
			return nil, err
		}
		x, err := d.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &syntax.CountExpr{OpPos: pos, Op: op, Prefix: n.Prefix, X: x}, nil
	case "cond":
		cond, err := d.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.expr(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.expr(n.Else)
		if err != nil {
			return nil, err
		}
		return &syntax.CondExpr{Cond: cond, Question: pos, Then: then, Else: els}, nil
	case "function":
		return &syntax.FuncLit{TokenPos: pos, Name: n.Name}, nil
	case "class":
		return &syntax.FuncLit{TokenPos: pos, Name: n.Name, Class: true}, nil
	case "object":
		return &syntax.ObjectLit{Lbrace: pos}, nil
	case "array":
		elems, err := d.exprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &syntax.ArrayLit{Lbrack: pos, Elems: elems}, nil
	case "regexp":
		return &syntax.RegExpLit{TokenPos: pos, Pattern: n.Name}, nil
	case "yield":
		y := &syntax.YieldExpr{Yield: pos}
		if n.X != nil {
			var err error
			if y.X, err = d.expr(n.X); err != nil {
				return nil, err
			}
		}
		return y, nil
	case "spread":
		x, err := d.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &syntax.SpreadExpr{Ellipsis: pos, X: x}, nil
	case "super":
		return &syntax.SuperRef{TokenPos: pos}, nil
	}
	return nil, fmt.Errorf("unknown expression kind %q", n.Kind)
}
