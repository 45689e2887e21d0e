// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

// A Program is the finalized bytecode of one function: the artifact
// produced by lowering and consumed by the interpreter.
//
// Constants holds one of int64, float64, string, bool, or the syntax
// package's UndefinedValue, NullValue, or HoleValue sentinels.
type Program struct {
	Name           string
	ParameterCount int // including the implicit receiver
	FrameSize      int // register slots: locals plus temporaries
	Constants      []interface{}
	Code           []byte
}
