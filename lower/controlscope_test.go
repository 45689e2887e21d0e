// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"testing"

	"github.com/dynamo-lang/dynamo/bytecode"
	"github.com/dynamo-lang/dynamo/syntax"
)

func mustPanic(t *testing.T, f func()) (msg interface{}) {
	t.Helper()
	defer func() {
		msg = recover()
		if msg == nil {
			t.Error("call did not panic")
		}
	}()
	f()
	return nil
}

// TestControlScopeSearch checks that a command walks outward past
// frames whose construct is not the target.
func TestControlScopeSearch(t *testing.T) {
	b := bytecode.NewBuilder()
	g := &generator{builder: b}

	outerStmt := &syntax.WhileStmt{}
	innerStmt := &syntax.WhileStmt{}
	var outerDone, outerCond, innerDone, innerCond bytecode.Label
	b.Bind(&outerDone)

	outer := g.enterControlScope(outerStmt, &loopBuilder{b: b, breakLabel: &outerDone, continueLabel: &outerCond})
	inner := g.enterControlScope(innerStmt, &loopBuilder{b: b, breakLabel: &innerDone, continueLabel: &innerCond})

	// The inner frame declines; the outer frame realizes the break.
	g.performCommand(cmdBreak, outerStmt)

	inner.leave()
	outer.leave()

	prog := b.Finish("f")
	if got, want := prog.DisassembleCompact(), "jmp @0"; got != want {
		t.Errorf("generated <<%s>>, want <<%s>>", got, want)
	}
}

// TestControlScopeExhaustion checks that a command with no claiming
// frame is treated as an internal inconsistency, not an error.
func TestControlScopeExhaustion(t *testing.T) {
	g := &generator{builder: bytecode.NewBuilder()}

	stray := &syntax.WhileStmt{}
	other := &syntax.WhileStmt{}
	var done, cond bytecode.Label
	cs := g.enterControlScope(other, &loopBuilder{b: g.builder, breakLabel: &done, continueLabel: &cond})
	defer cs.leave()

	mustPanic(t, func() { g.performCommand(cmdContinue, stray) })
}

// TestControlScopeOrder checks that frames must be popped in LIFO
// order.
func TestControlScopeOrder(t *testing.T) {
	g := &generator{builder: bytecode.NewBuilder()}

	outer := g.enterControlScope(&syntax.WhileStmt{}, nil)
	inner := g.enterControlScope(&syntax.WhileStmt{}, nil)

	mustPanic(t, func() { outer.leave() })

	inner.leave()
	outer.leave()
}
