// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import "fmt"

// A Position describes the location of a token in a source file.
// Trees decoded from interchange form may carry zero positions,
// in which case IsValid reports false.
type Position struct {
	Line int32 // 1-based line number; 0 if unknown
	Col  int32 // 1-based column (rune) number; 0 if unknown
}

// MakePosition returns the position at the given line and column.
func MakePosition(line, col int32) Position { return Position{Line: line, Col: col} }

// IsValid reports whether the position is valid.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// add returns the position at the end of s, assuming it starts at p
// and contains no newlines.
func (p Position) add(s string) Position {
	if p.IsValid() {
		p.Col += int32(len(s))
	}
	return p
}
