// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"testing"

	"github.com/dynamo-lang/dynamo/syntax"
)

// TestDisassemble checks the long listing: header, one instruction per
// line, addresses in the left column.
func TestDisassemble(t *testing.T) {
	b := NewBuilder()
	b.SetParameterCount(2)
	b.SetLocalsCount(1)
	b.LoadAccumulatorWithRegister(b.Parameter(1))
	b.StoreAccumulatorInRegister(b.Local(0))
	b.LoadConstant("x")
	b.LoadNamedProperty(b.Local(0), 4, syntax.Strict)
	b.Return()
	p := b.Finish("get")

	const want = `get: 2 parameters, frame size 1
     0  ldar a1
     2  star r0
     4  ldaconst "x"
     6  ldanamed r0 4 strict
    10  return
`
	if got := p.Disassemble(); got != want {
		t.Errorf("disassembly:\n%s\nwant:\n%s", got, want)
	}
}
