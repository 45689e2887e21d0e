// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lower translates one resolved Dynamo function body into
// register bytecode.
//
// The translation is a single recursive-descent pass with no
// optimization: control flow, variable access, property access, calls,
// and operators are lowered structurally, in source order. Every
// expression leaves its value in the interpreter's accumulator; a
// lowering that must keep an earlier value live while computing
// another copies it into a temporary register first. Temporary
// registers are stack-allocated per lowering routine and released on
// every exit path.
//
// The accepted grammar is an intentional subset. Lowering a construct
// outside it fails with UnsupportedConstructError and produces no
// program; it never silently approximates.
package lower

import (
	"fmt"
	"os"

	"github.com/dynamo-lang/dynamo/bytecode"
	"github.com/dynamo-lang/dynamo/syntax"
)

// Disassemble causes the disassembly of each compiled function to be
// printed to stderr. Enabled by the -dis flag of cmd/dynlower.
var Disassemble = false

// Options configures a lowering pass.
type Options struct {
	// FeedbackIndex translates a property access site's feedback
	// slot to its index in the function's feedback vector. If nil,
	// the slot value is used directly.
	FeedbackIndex func(syntax.FeedbackSlot) int
}

// A generator holds the state of one function's lowering: the
// instruction builder it emits through and the stack of enclosing
// control constructs. One generator lowers one function, on one
// goroutine, and is discarded afterwards.
type generator struct {
	fn      *syntax.Function
	builder *bytecode.Builder
	control *controlScope // innermost frame, or nil
	opts    Options
}

// Function lowers fn to bytecode.
//
// The body need not end with a return statement: a function that runs
// off the end returns undefined, and lowering emits that epilogue
// itself.
//
// If fn uses a construct outside the supported subset, Function
// returns an UnsupportedConstructError and no program. Violations of
// lowering invariants (an unresolvable break target, a mismatched
// register-scope release) panic instead: they indicate a bug in the
// front end or in this package and are never converted to errors.
func Function(fn *syntax.Function, opts *Options) (prog *bytecode.Program, err error) {
	g := &generator{fn: fn, builder: bytecode.NewBuilder()}
	if opts != nil {
		g.opts = *opts
	}

	defer func() {
		if x := recover(); x != nil {
			uerr, ok := x.(*UnsupportedConstructError)
			if !ok {
				panic(x) // internal inconsistency; do not mask
			}
			prog, err = nil, uerr
		}
	}()

	g.builder.SetParameterCount(fn.NumParameters())
	g.builder.SetLocalsCount(fn.StackSlots)

	// Implicit declaration of the function's own name, then scope
	// declarations, then the body.
	if fn.Scope.Function != nil {
		g.decl(fn.Scope.Function)
	}
	g.decls(fn.Scope.Decls)
	g.stmts(fn.Body)

	// Running off the end returns undefined.
	g.builder.LoadUndefined()
	g.builder.Return()

	prog = g.builder.Finish(fn.Name)
	if Disassemble {
		fmt.Fprint(os.Stderr, prog.Disassemble())
	}
	return prog, nil
}

func (g *generator) stmts(stmts []syntax.Stmt) {
	for _, s := range stmts {
		g.stmt(s)
	}
}

func (g *generator) decls(decls []syntax.Decl) {
	for _, d := range decls {
		g.decl(d)
	}
}

// decl lowers a declaration. Local and parameter variables need no
// instructions: their storage exists by construction of the frame.
func (g *generator) decl(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.VarDecl:
		switch loc := d.Name.Var.Loc; loc {
		case syntax.Local, syntax.Parameter:
			// Storage is the variable's register; nothing to emit.
		default:
			unsupported(d, "declaration of %s variable %s", loc, d.Name.Name)
		}
	case *syntax.FuncDecl:
		unsupported(d, "function declaration")
	case *syntax.ImportDecl:
		unsupported(d, "import declaration")
	case *syntax.ExportDecl:
		unsupported(d, "export declaration")
	default:
		panic(fmt.Sprintf("lower: unexpected declaration type %T", d))
	}
}

func (g *generator) stmt(s syntax.Stmt) {
	b := g.builder
	switch s := s.(type) {
	case *syntax.BlockStmt:
		b.EnterBlock()
		if s.Scope == nil {
			// Same scope as the parent, no declarations.
			g.stmts(s.Stmts)
		} else if s.Scope.ContextLocals > 0 {
			unsupported(s, "block with context-allocated locals")
		} else {
			g.decls(s.Scope.Decls)
			g.stmts(s.Stmts)
		}
		b.LeaveBlock()

	case *syntax.DeclStmt:
		g.decl(s.Decl)

	case *syntax.IfStmt:
		var elseLabel, endLabel bytecode.Label
		g.expr(s.Cond)
		b.CastAccumulatorToBoolean()
		b.JumpIfFalse(&elseLabel)
		g.stmt(s.Then)
		if s.Else != nil {
			b.Jump(&endLabel)
			b.Bind(&elseLabel)
			g.stmt(s.Else)
		} else {
			b.Bind(&elseLabel)
		}
		b.Bind(&endLabel)

	case *syntax.WhileStmt:
		g.whileStmt(s)

	case *syntax.DoWhileStmt:
		g.doWhileStmt(s)

	case *syntax.ForStmt:
		g.forStmt(s)

	case *syntax.ReturnStmt:
		if s.Result == nil {
			b.LoadUndefined()
		} else {
			g.expr(s.Result)
		}
		b.Return()

	case *syntax.BreakStmt:
		g.performCommand(cmdBreak, s.Target)

	case *syntax.ContinueStmt:
		g.performCommand(cmdContinue, s.Target)

	case *syntax.ExprStmt:
		// Lowered for side effects; the accumulator value is dead.
		g.expr(s.X)

	case *syntax.EmptyStmt:
		// no-op

	case *syntax.WithStmt:
		unsupported(s, "with statement")
	case *syntax.SwitchStmt:
		unsupported(s, "switch statement")
	case *syntax.TryStmt:
		unsupported(s, "try statement")
	case *syntax.ForInStmt:
		unsupported(s, "for-in statement")
	case *syntax.ForOfStmt:
		unsupported(s, "for-of statement")
	case *syntax.ThrowStmt:
		unsupported(s, "throw statement")
	case *syntax.DebuggerStmt:
		unsupported(s, "debugger statement")

	default:
		panic(fmt.Sprintf("lower: unexpected statement type %T", s))
	}
}

// whileStmt lowers a pre-tested loop: the condition is hoisted after
// the body so each iteration falls through the test with a single
// backward jump, and entry jumps forward to the test.
func (g *generator) whileStmt(s *syntax.WhileStmt) {
	b := g.builder
	var bodyLabel, conditionLabel, doneLabel bytecode.Label

	loop := &loopBuilder{b: b, breakLabel: &doneLabel, continueLabel: &conditionLabel}
	cs := g.enterControlScope(s, loop)
	defer cs.leave()

	b.Jump(&conditionLabel)
	b.Bind(&bodyLabel)
	g.stmt(s.Body)
	b.Bind(&conditionLabel)
	g.expr(s.Cond)
	b.JumpIfTrue(&bodyLabel)
	b.Bind(&doneLabel)
}

// doWhileStmt lowers a post-tested loop: as whileStmt but without the
// entry jump, so the body runs before the first test.
func (g *generator) doWhileStmt(s *syntax.DoWhileStmt) {
	b := g.builder
	var bodyLabel, conditionLabel, doneLabel bytecode.Label

	loop := &loopBuilder{b: b, breakLabel: &doneLabel, continueLabel: &conditionLabel}
	cs := g.enterControlScope(s, loop)
	defer cs.leave()

	b.Bind(&bodyLabel)
	g.stmt(s.Body)
	b.Bind(&conditionLabel)
	g.expr(s.Cond)
	b.JumpIfTrue(&bodyLabel)
	b.Bind(&doneLabel)
}

// forStmt lowers a three-clause loop. Continue targets the next
// clause, not the condition, so the increment always runs before the
// next test.
func (g *generator) forStmt(s *syntax.ForStmt) {
	b := g.builder
	var bodyLabel, conditionLabel, nextLabel, doneLabel bytecode.Label

	loop := &loopBuilder{b: b, breakLabel: &doneLabel, continueLabel: &nextLabel}
	cs := g.enterControlScope(s, loop)
	defer cs.leave()

	if s.Init != nil {
		g.stmt(s.Init)
	}
	if s.Cond != nil {
		b.Jump(&conditionLabel)
	}
	b.Bind(&bodyLabel)
	g.stmt(s.Body)
	b.Bind(&nextLabel)
	if s.Next != nil {
		g.stmt(s.Next)
	}
	if s.Cond != nil {
		b.Bind(&conditionLabel)
		g.expr(s.Cond)
		b.JumpIfTrue(&bodyLabel)
	} else {
		b.Jump(&bodyLabel)
	}
	b.Bind(&doneLabel)
}

// feedbackIndex translates slot through the configured lookup. The
// front end assigns a slot to every property access site; reaching
// one without a slot means that contract was broken, so this never
// encodes the invalid sentinel into an instruction.
func (g *generator) feedbackIndex(slot syntax.FeedbackSlot) int {
	if slot == syntax.InvalidFeedbackSlot {
		panic("lower: property access site without a feedback slot")
	}
	if g.opts.FeedbackIndex != nil {
		return g.opts.FeedbackIndex(slot)
	}
	return int(slot)
}
