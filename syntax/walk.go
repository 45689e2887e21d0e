// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import "fmt"

// Walk traverses a syntax tree in depth-first order.
// It starts by calling f(n); n must not be nil.
// If f returns true, Walk calls itself
// recursively for each non-nil child of n,
// after which it calls f(nil).
func Walk(n Node, f func(Node) bool) {
	if n == nil {
		panic("nil")
	}
	if !f(n) {
		return
	}

	switch n := n.(type) {
	case *BlockStmt:
		if n.Scope != nil {
			walkScope(n.Scope, f)
		}
		walkStmts(n.Stmts, f)
	case *IfStmt:
		Walk(n.Cond, f)
		Walk(n.Then, f)
		if n.Else != nil {
			Walk(n.Else, f)
		}
	case *WhileStmt:
		Walk(n.Cond, f)
		Walk(n.Body, f)
	case *DoWhileStmt:
		Walk(n.Body, f)
		Walk(n.Cond, f)
	case *ForStmt:
		if n.Init != nil {
			Walk(n.Init, f)
		}
		if n.Cond != nil {
			Walk(n.Cond, f)
		}
		if n.Next != nil {
			Walk(n.Next, f)
		}
		Walk(n.Body, f)
	case *ReturnStmt:
		if n.Result != nil {
			Walk(n.Result, f)
		}
	case *BreakStmt, *ContinueStmt, *EmptyStmt, *DebuggerStmt:
		// no children; Target is a back-reference, not a child
	case *ExprStmt:
		Walk(n.X, f)
	case *DeclStmt:
		Walk(n.Decl, f)
	case *WithStmt:
		Walk(n.Obj, f)
		Walk(n.Body, f)
	case *SwitchStmt:
		Walk(n.Tag, f)
		for _, clause := range n.Cases {
			if clause.Cond != nil {
				Walk(clause.Cond, f)
			}
			walkStmts(clause.Body, f)
		}
	case *TryStmt:
		Walk(n.Body, f)
		if n.Catch != nil {
			Walk(n.Catch, f)
		}
		if n.Finally != nil {
			Walk(n.Finally, f)
		}
	case *ForInStmt:
		Walk(n.Each, f)
		Walk(n.Obj, f)
		Walk(n.Body, f)
	case *ForOfStmt:
		Walk(n.Each, f)
		Walk(n.Iter, f)
		Walk(n.Body, f)
	case *ThrowStmt:
		Walk(n.X, f)

	case *VarDecl:
		Walk(n.Name, f)
	case *FuncDecl:
		Walk(n.Name, f)
	case *ImportDecl:
		Walk(n.Name, f)
	case *ExportDecl:
		Walk(n.Name, f)

	case *Literal, *Ident, *RegExpLit, *SuperRef, *FuncLit:
		// no children
	case *AssignExpr:
		Walk(n.Target, f)
		Walk(n.Value, f)
	case *PropertyExpr:
		Walk(n.Obj, f)
		Walk(n.Key, f)
	case *CallExpr:
		Walk(n.Fn, f)
		walkExprs(n.Args, f)
	case *RuntimeCallExpr:
		walkExprs(n.Args, f)
	case *BinaryExpr:
		Walk(n.X, f)
		Walk(n.Y, f)
	case *CompareExpr:
		Walk(n.X, f)
		Walk(n.Y, f)
	case *UnaryExpr:
		Walk(n.X, f)
	case *CountExpr:
		Walk(n.X, f)
	case *CondExpr:
		Walk(n.Cond, f)
		Walk(n.Then, f)
		Walk(n.Else, f)
	case *ObjectLit:
		for _, e := range n.Entries {
			Walk(e.Key, f)
			Walk(e.Value, f)
		}
	case *ArrayLit:
		walkExprs(n.Elems, f)
	case *YieldExpr:
		if n.X != nil {
			Walk(n.X, f)
		}
	case *SpreadExpr:
		Walk(n.X, f)

	default:
		panic(fmt.Sprintf("syntax.Walk: unexpected node type %T", n))
	}

	f(nil)
}

func walkScope(scope *Scope, f func(Node) bool) {
	if scope.Function != nil {
		Walk(scope.Function, f)
	}
	for _, d := range scope.Decls {
		Walk(d, f)
	}
}

func walkStmts(stmts []Stmt, f func(Node) bool) {
	for _, stmt := range stmts {
		Walk(stmt, f)
	}
}

func walkExprs(exprs []Expr, f func(Node) bool) {
	for _, x := range exprs {
		Walk(x, f)
	}
}
