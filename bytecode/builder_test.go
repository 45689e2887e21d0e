// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"strings"
	"testing"
)

func mustPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("call did not panic")
		}
	}()
	f()
}

// TestLabels checks forward and backward jump resolution.
func TestLabels(t *testing.T) {
	b := NewBuilder()
	var top, out Label

	b.Bind(&top)
	b.LoadTrue()
	b.JumpIfFalse(&out) // forward
	b.Jump(&top)        // backward
	b.Bind(&out)
	b.Return()

	p := b.Finish("f")
	const want = "ldatrue; jmpiffalse @5; jmp @0; return"
	if got := p.DisassembleCompact(); got != want {
		t.Errorf("generated <<%s>>, want <<%s>>", got, want)
	}
}

// TestLabelConvergence checks address assignment when a jump operand
// needs a second varint byte: widening the operand moves the target,
// and the assignment must settle on the widened layout.
func TestLabelConvergence(t *testing.T) {
	b := NewBuilder()
	var out Label
	b.Jump(&out)
	for i := 0; i < 130; i++ {
		b.LoadUndefined()
	}
	b.Bind(&out)
	b.Return()

	p := b.Finish("f")
	// The jump occupies 3 bytes (opcode plus 2-byte varint), so the
	// target lands at 3+130.
	got := p.DisassembleCompact()
	if !strings.HasPrefix(got, "jmp @133; ") {
		t.Errorf("generated <<%.30s...>>, want prefix <<jmp @133; >>", got)
	}
	if p.Code[len(p.Code)-1] != byte(RETURN) {
		t.Errorf("last opcode %d, want return", p.Code[len(p.Code)-1])
	}
	if len(p.Code) != 134 {
		t.Errorf("code length %d, want 134", len(p.Code))
	}
}

// TestConstantInterning checks that equal constants share a pool slot.
func TestConstantInterning(t *testing.T) {
	b := NewBuilder()
	b.LoadConstant("x")
	b.LoadConstant("y")
	b.LoadConstant("x")
	b.LoadConstant(int64(1))
	b.Return()

	p := b.Finish("f")
	if len(p.Constants) != 3 {
		t.Errorf("%d pool entries, want 3", len(p.Constants))
	}
	const want = `ldaconst "x"; ldaconst "y"; ldaconst "x"; ldaconst 1; return`
	if got := p.DisassembleCompact(); got != want {
		t.Errorf("generated <<%s>>, want <<%s>>", got, want)
	}
}

// TestRegisterNames checks the parameter and frame-slot register
// encodings.
func TestRegisterNames(t *testing.T) {
	for _, test := range []struct {
		reg  Register
		want string
	}{
		{ParameterRegister(0), "a0"}, // the receiver
		{ParameterRegister(2), "a2"},
		{Register(0), "r0"},
		{Register(7), "r7"},
	} {
		if got := test.reg.String(); got != test.want {
			t.Errorf("register %d prints %q, want %q", int32(test.reg), got, test.want)
		}
	}

	// The wire form must round-trip parameters and frame slots alike.
	for _, r := range []Register{ParameterRegister(0), ParameterRegister(5), 0, 3, 1000} {
		if got := unzigzag(r.zigzag()); got != r {
			t.Errorf("register %s round-trips to %s", r, got)
		}
	}
}

// TestBuilderMisuse checks that API misuse panics rather than emitting
// bad code.
func TestBuilderMisuse(t *testing.T) {
	t.Run("locals after temporaries", func(t *testing.T) {
		b := NewBuilder()
		b.AllocateTemporary()
		mustPanic(t, func() { b.SetLocalsCount(3) })
	})
	t.Run("parameter out of range", func(t *testing.T) {
		b := NewBuilder()
		b.SetParameterCount(2)
		mustPanic(t, func() { b.Parameter(2) })
	})
	t.Run("local out of range", func(t *testing.T) {
		b := NewBuilder()
		b.SetLocalsCount(1)
		mustPanic(t, func() { b.Local(1) })
	})
	t.Run("release above watermark", func(t *testing.T) {
		b := NewBuilder()
		b.AllocateTemporary()
		mark := b.TemporaryMark()
		b.ReleaseTemporariesTo(0)
		mustPanic(t, func() { b.ReleaseTemporariesTo(mark) })
	})
	t.Run("label bound twice", func(t *testing.T) {
		b := NewBuilder()
		var l Label
		b.Bind(&l)
		mustPanic(t, func() { b.Bind(&l) })
	})
	t.Run("jump to unbound label", func(t *testing.T) {
		b := NewBuilder()
		var l Label
		b.Jump(&l)
		mustPanic(t, func() { b.Finish("f") })
	})
}
