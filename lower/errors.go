// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"fmt"

	"github.com/dynamo-lang/dynamo/syntax"
)

// An UnsupportedConstructError reports a statement or expression
// variant that this lowering core deliberately does not handle.
// The grammar accepted here is an intentional subset; hitting one of
// these is an expected outcome, not a bug, and the whole function's
// lowering is abandoned.
type UnsupportedConstructError struct {
	Kind string // the construct, e.g. "logical && operator"
	Pos  syntax.Position
}

func (e *UnsupportedConstructError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: unsupported construct: %s", e.Pos, e.Kind)
	}
	return fmt.Sprintf("unsupported construct: %s", e.Kind)
}

// unsupported aborts the current lowering. The panic is converted to
// an UnsupportedConstructError by Function; internal-inconsistency
// panics, by contrast, are never caught.
func unsupported(n syntax.Node, format string, args ...interface{}) {
	err := &UnsupportedConstructError{Kind: fmt.Sprintf(format, args...)}
	if n != nil {
		err.Pos = syntax.Start(n)
	}
	panic(err)
}
