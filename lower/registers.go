// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import "github.com/dynamo-lang/dynamo/bytecode"

// A temporaryRegisterScope hands out temporary registers and, on
// release, frees every register it handed out by restoring the
// builder's watermark. One scope covers one lowering routine:
//
//	temps := g.temporaries()
//	defer temps.release()
//
// The defer makes release unconditional, so temporaries never leak
// across statement boundaries, including on the abort path of an
// unsupported construct. Because allocation is a pure bump and scopes
// nest with the call stack, the live temporaries are always a
// contiguous run: the property call lowering relies on when it
// requires adjacent argument registers.
type temporaryRegisterScope struct {
	b    *bytecode.Builder
	mark int
}

func (g *generator) temporaries() *temporaryRegisterScope {
	return &temporaryRegisterScope{b: g.builder, mark: g.builder.TemporaryMark()}
}

// newRegister allocates the next temporary register.
func (s *temporaryRegisterScope) newRegister() bytecode.Register {
	return s.b.AllocateTemporary()
}

// release frees all temporaries allocated since the scope was opened.
func (s *temporaryRegisterScope) release() {
	s.b.ReleaseTemporariesTo(s.mark)
}
