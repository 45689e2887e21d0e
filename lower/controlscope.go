// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"fmt"

	"github.com/dynamo-lang/dynamo/bytecode"
	"github.com/dynamo-lang/dynamo/syntax"
)

// A command is a control transfer a scope may be asked to realize.
type command uint8

const (
	cmdBreak command = iota
	cmdContinue
)

var commandNames = [...]string{
	cmdBreak:    "break",
	cmdContinue: "continue",
}

func (cmd command) String() string { return commandNames[cmd] }

// A controlScope is one frame of the stack of constructs able to be
// the target of a break or continue. Frames are pushed while the
// construct's body is lowered and link outward to the frame of the
// enclosing construct.
//
// Break and continue statements name their target by AST identity, so
// resolution walks the stack outward until a frame claims the target;
// intervening frames for other constructs simply decline. Today only
// loops push frames; labeled statements and switches would push their
// own frame kinds here.
type controlScope struct {
	generator *generator
	outer     *controlScope
	statement syntax.Stmt // the construct this frame belongs to
	loop      *loopBuilder
}

// enterControlScope pushes a frame for stmt. The caller must pop it
// with leave on every exit path, normal or not.
func (g *generator) enterControlScope(stmt syntax.Stmt, loop *loopBuilder) *controlScope {
	cs := &controlScope{generator: g, outer: g.control, statement: stmt, loop: loop}
	g.control = cs
	return cs
}

// leave pops the frame. A pop out of LIFO order is a lowering bug.
func (cs *controlScope) leave() {
	if cs.generator.control != cs {
		panic("lower: control scope popped out of order")
	}
	cs.generator.control = cs.outer
}

// execute realizes cmd if target is this frame's construct,
// reporting whether it did.
func (cs *controlScope) execute(cmd command, target syntax.Stmt) bool {
	if target != cs.statement {
		return false
	}
	switch cmd {
	case cmdBreak:
		cs.loop.jumpToBreak()
	case cmdContinue:
		cs.loop.jumpToContinue()
	}
	return true
}

// performCommand resolves cmd against the innermost enclosing frame
// that claims target. The resolver guarantees every break and
// continue has a reachable target, so exhausting the stack means an
// earlier pass, or this one, broke that invariant: not recoverable.
func (g *generator) performCommand(cmd command, target syntax.Stmt) {
	for cs := g.control; cs != nil; cs = cs.outer {
		if cs.execute(cmd, target) {
			return
		}
	}
	panic(fmt.Sprintf("lower: no enclosing construct accepts %s", cmd))
}

// A loopBuilder knows the jump targets that realize break and
// continue for one loop: break goes to the loop's done label,
// continue to its condition or increment label.
type loopBuilder struct {
	b             *bytecode.Builder
	breakLabel    *bytecode.Label
	continueLabel *bytecode.Label
}

func (lb *loopBuilder) jumpToBreak()    { lb.b.Jump(lb.breakLabel) }
func (lb *loopBuilder) jumpToContinue() { lb.b.Jump(lb.continueLabel) }
