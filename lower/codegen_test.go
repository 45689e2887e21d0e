// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dynamo-lang/dynamo/astjson"
	"github.com/dynamo-lang/dynamo/bytecode"
	"github.com/dynamo-lang/dynamo/lower"
	"github.com/dynamo-lang/dynamo/syntax"
)

// compile decodes a function document and lowers it.
func compile(t *testing.T, src string) (*bytecode.Program, error) {
	t.Helper()
	fn, err := astjson.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return lower.Function(fn, nil)
}

func mustCompile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	prog, err := lower.Function(mustDecode(t, src), nil)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return prog
}

func mustDecode(t *testing.T, src string) *syntax.Function {
	t.Helper()
	fn, err := astjson.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return fn
}

// TestCodegen checks the exact instruction sequences produced for each
// supported construct.
func TestCodegen(t *testing.T) {
	for _, test := range []struct {
		name string
		src  string // function document
		want string // compact disassembly
	}{
		{
			"return small int",
			`{"name": "f", "body": [
				{"kind": "return", "result": {"kind": "literal", "int": 1}}
			]}`,
			`ldasmi 1; return; ldaundefined; return`,
		},
		{
			// A body that runs off the end returns undefined.
			"implicit return",
			`{"name": "f", "body": []}`,
			`ldaundefined; return`,
		},
		{
			"return without value",
			`{"name": "f", "body": [{"kind": "return"}]}`,
			`ldaundefined; return; ldaundefined; return`,
		},
		{
			// Each literal kind is a single load; only strings,
			// floats, and wide ints touch the constant pool.
			"literal kinds",
			`{"name": "f", "body": [
				{"kind": "expr", "x": {"kind": "literal", "string": "hi"}},
				{"kind": "expr", "x": {"kind": "literal", "bool": true}},
				{"kind": "expr", "x": {"kind": "literal", "bool": false}},
				{"kind": "expr", "x": {"kind": "literal", "sentinel": "null"}},
				{"kind": "expr", "x": {"kind": "literal", "sentinel": "undefined"}},
				{"kind": "expr", "x": {"kind": "literal", "sentinel": "hole"}},
				{"kind": "expr", "x": {"kind": "literal", "float": 2.5}},
				{"kind": "expr", "x": {"kind": "literal", "int": 5000000000}}
			]}`,
			`ldaconst "hi"; ldatrue; ldafalse; ldanull; ldaundefined; ldathehole; ` +
				`ldaconst 2.5; ldaconst 5000000000; ldaundefined; return`,
		},
		{
			"negative small int",
			`{"name": "f", "body": [
				{"kind": "return", "result": {"kind": "literal", "int": -3}}
			]}`,
			`ldasmi -3; return; ldaundefined; return`,
		},
		{
			"local variables",
			`{"name": "f", "stackSlots": 2,
			 "vars": {"x": {"loc": "local", "index": 0}, "y": {"loc": "local", "index": 1}},
			 "decls": ["x", "y"],
			 "body": [
				{"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "x"},
					"value": {"kind": "literal", "int": 1}}},
				{"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "y"},
					"value": {"kind": "ident", "name": "x"}}},
				{"kind": "return", "result": {"kind": "ident", "name": "y"}}
			]}`,
			`ldasmi 1; star r0; ldar r0; star r1; ldar r1; return; ldaundefined; return`,
		},
		{
			// The receiver is a0, so declared parameters start at a1.
			"parameters",
			`{"name": "f", "params": ["a", "b"],
			 "vars": {"a": {"loc": "parameter", "index": 0}, "b": {"loc": "parameter", "index": 1}},
			 "body": [
				{"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "a"},
					"value": {"kind": "ident", "name": "b"}}},
				{"kind": "return", "result": {"kind": "ident", "name": "a"}}
			]}`,
			`ldar a2; star a1; ldar a1; return; ldaundefined; return`,
		},
		{
			"global load",
			`{"name": "f",
			 "vars": {"g": {"loc": "global", "index": 3}},
			 "body": [{"kind": "return", "result": {"kind": "ident", "name": "g"}}]}`,
			`ldaglobal 3; return; ldaundefined; return`,
		},
		{
			"if else",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "if", "cond": {"kind": "ident", "name": "a"},
				 "then": {"kind": "block", "stmts": [
					{"kind": "return", "result": {"kind": "literal", "int": 1}}]},
				 "else": {"kind": "block", "stmts": [
					{"kind": "return", "result": {"kind": "literal", "int": 2}}]}}
			]}`,
			`ldar a1; tobool; jmpiffalse @12; ` +
				`blockenter; ldasmi 1; return; blockleave; jmp @17; ` +
				`blockenter; ldasmi 2; return; blockleave; ` +
				`ldaundefined; return`,
		},
		{
			"if without else",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "if", "cond": {"kind": "ident", "name": "a"},
				 "then": {"kind": "return", "result": {"kind": "literal", "int": 1}}}
			]}`,
			`ldar a1; tobool; jmpiffalse @8; ldasmi 1; return; ldaundefined; return`,
		},
		{
			// The condition is emitted after the body: entry jumps
			// forward to it and each iteration takes one backward
			// branch.
			"while",
			`{"name": "f", "params": ["a", "b"],
			 "vars": {"a": {"loc": "parameter", "index": 0}, "b": {"loc": "parameter", "index": 1}},
			 "body": [
				{"kind": "while", "cond": {"kind": "ident", "name": "a"},
				 "body": {"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "b"},
					"value": {"kind": "ident", "name": "a"}}}}
			]}`,
			`jmp @6; ldar a1; star a2; ldar a1; jmpiftrue @2; ldaundefined; return`,
		},
		{
			"while with break",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "while", "id": "L", "cond": {"kind": "ident", "name": "a"},
				 "body": {"kind": "block", "stmts": [{"kind": "break", "label": "L"}]}}
			]}`,
			`jmp @6; blockenter; jmp @10; blockleave; ldar a1; jmpiftrue @2; ldaundefined; return`,
		},
		{
			// No entry jump: the body runs before the first test.
			"do while",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "dowhile", "cond": {"kind": "ident", "name": "a"},
				 "body": {"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "a"},
					"value": {"kind": "literal", "int": 1}}}}
			]}`,
			`ldasmi 1; star a1; ldar a1; jmpiftrue @0; ldaundefined; return`,
		},
		{
			"for",
			`{"name": "f", "stackSlots": 1,
			 "vars": {"x": {"loc": "local", "index": 0}},
			 "decls": ["x"],
			 "body": [
				{"kind": "for",
				 "init": {"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "x"},
					"value": {"kind": "literal", "int": 0}}},
				 "cond": {"kind": "compare", "op": "<",
					"x": {"kind": "ident", "name": "x"},
					"y": {"kind": "literal", "int": 10}},
				 "next": {"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "x"},
					"value": {"kind": "binary", "op": "+",
						"x": {"kind": "ident", "name": "x"},
						"y": {"kind": "literal", "int": 1}}}},
				 "body": {"kind": "block", "stmts": []}}
			]}`,
			`ldasmi 0; star r0; jmp @18; blockenter; blockleave; ` +
				`ldar r0; star r1; ldasmi 1; add r1; star r0; ` +
				`ldar r0; star r1; ldasmi 10; testlt r1 sloppy; jmpiftrue @6; ` +
				`ldaundefined; return`,
		},
		{
			// With no condition the loop closes with an
			// unconditional backward jump; continue still targets
			// the next-clause position.
			"infinite for with continue",
			`{"name": "f", "body": [
				{"kind": "for", "id": "L",
				 "body": {"kind": "block", "stmts": [{"kind": "continue", "label": "L"}]}}
			]}`,
			`blockenter; jmp @4; blockleave; jmp @0; ldaundefined; return`,
		},
		{
			// The break escapes both loops: its target is the outer
			// while, found by walking past the inner loop's frame.
			"break targets outer loop",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "while", "id": "outer", "cond": {"kind": "ident", "name": "a"},
				 "body": {"kind": "block", "stmts": [
					{"kind": "while", "cond": {"kind": "ident", "name": "a"},
					 "body": {"kind": "block", "stmts": [
						{"kind": "break", "label": "outer"}]}}]}}
			]}`,
			`jmp @14; blockenter; jmp @9; blockenter; jmp @18; blockleave; ` +
				`ldar a1; jmpiftrue @5; blockleave; ldar a1; jmpiftrue @2; ` +
				`ldaundefined; return`,
		},
		{
			"continue targets outer loop",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "while", "id": "outer", "cond": {"kind": "ident", "name": "a"},
				 "body": {"kind": "block", "stmts": [
					{"kind": "while", "cond": {"kind": "ident", "name": "a"},
					 "body": {"kind": "block", "stmts": [
						{"kind": "continue", "label": "outer"}]}}]}}
			]}`,
			`jmp @14; blockenter; jmp @9; blockenter; jmp @14; blockleave; ` +
				`ldar a1; jmpiftrue @5; blockleave; ldar a1; jmpiftrue @2; ` +
				`ldaundefined; return`,
		},
		{
			"named property load",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "return", "result": {"kind": "property", "slot": 0,
					"obj": {"kind": "ident", "name": "a"},
					"key": {"kind": "literal", "string": "x"}}}
			]}`,
			`ldar a1; star r0; ldaconst "x"; ldanamed r0 0 sloppy; return; ldaundefined; return`,
		},
		{
			"keyed property load",
			`{"name": "f", "params": ["a", "b"],
			 "vars": {"a": {"loc": "parameter", "index": 0}, "b": {"loc": "parameter", "index": 1}},
			 "body": [
				{"kind": "return", "result": {"kind": "property", "slot": 1,
					"obj": {"kind": "ident", "name": "a"},
					"key": {"kind": "ident", "name": "b"}}}
			]}`,
			`ldar a1; star r0; ldar a2; ldakeyed r0 1 sloppy; return; ldaundefined; return`,
		},
		{
			// Object and name are evaluated and parked before the
			// right-hand side runs.
			"named property store",
			`{"name": "f", "params": ["a", "b"],
			 "vars": {"a": {"loc": "parameter", "index": 0}, "b": {"loc": "parameter", "index": 1}},
			 "body": [
				{"kind": "expr", "x": {"kind": "assign", "slot": 2,
					"target": {"kind": "property",
						"obj": {"kind": "ident", "name": "a"},
						"key": {"kind": "literal", "string": "x"}},
					"value": {"kind": "ident", "name": "b"}}}
			]}`,
			`ldar a1; star r0; ldaconst "x"; star r1; ldar a2; stanamed r0 r1 2 sloppy; ` +
				`ldaundefined; return`,
		},
		{
			// Left-to-right: object, then key, then value.
			"keyed property store",
			`{"name": "f", "params": ["a", "b", "c"],
			 "vars": {"a": {"loc": "parameter", "index": 0},
			          "b": {"loc": "parameter", "index": 1},
			          "c": {"loc": "parameter", "index": 2}},
			 "body": [
				{"kind": "expr", "x": {"kind": "assign", "slot": 4,
					"target": {"kind": "property",
						"obj": {"kind": "ident", "name": "a"},
						"key": {"kind": "ident", "name": "b"}},
					"value": {"kind": "ident", "name": "c"}}}
			]}`,
			`ldar a1; star r0; ldar a2; star r1; ldar a3; stakeyed r0 r1 4 sloppy; ` +
				`ldaundefined; return`,
		},
		{
			// The receiver doubles as the object of the callee's
			// property load; arguments follow it contiguously.
			"method call",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "return", "result": {"kind": "call",
					"fn": {"kind": "property", "slot": 3,
						"obj": {"kind": "ident", "name": "a"},
						"key": {"kind": "literal", "string": "m"}},
					"args": [
						{"kind": "ident", "name": "a"},
						{"kind": "literal", "int": 1}]}}
			]}`,
			`ldar a1; star r1; ldaconst "m"; ldanamed r1 3 sloppy; star r0; ` +
				`ldar a1; star r2; ldasmi 1; star r3; call r0 r1 2; return; ` +
				`ldaundefined; return`,
		},
		{
			// A global call passes undefined as the receiver.
			"global call",
			`{"name": "f",
			 "vars": {"g": {"loc": "global", "index": 5}},
			 "body": [
				{"kind": "expr", "x": {"kind": "call",
					"fn": {"kind": "ident", "name": "g"}, "args": []}}
			]}`,
			`ldaundefined; star r1; ldaglobal 5; star r0; call r0 r1 0; ldaundefined; return`,
		},
		{
			// An argument that is itself a call releases its
			// temporaries before taking its own argument register,
			// so the outer run stays contiguous.
			"nested call argument",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0},
			          "g": {"loc": "global", "index": 0},
			          "h": {"loc": "global", "index": 1}},
			 "body": [
				{"kind": "return", "result": {"kind": "call",
					"fn": {"kind": "ident", "name": "g"},
					"args": [{"kind": "call",
						"fn": {"kind": "ident", "name": "h"},
						"args": [{"kind": "ident", "name": "a"}]}]}}
			]}`,
			`ldaundefined; star r1; ldaglobal 0; star r0; ` +
				`ldaundefined; star r3; ldaglobal 1; star r2; ldar a1; star r4; ` +
				`call r2 r3 1; star r2; call r0 r1 1; return; ldaundefined; return`,
		},
		{
			"runtime call",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0}},
			 "body": [
				{"kind": "return", "result": {"kind": "runtime",
					"name": "Add", "funcId": 7,
					"args": [
						{"kind": "ident", "name": "a"},
						{"kind": "literal", "int": 1}]}}
			]}`,
			`ldar a1; star r0; ldasmi 1; star r1; callrt 7 r0 2; return; ldaundefined; return`,
		},
		{
			// The base register exists even with no arguments.
			"runtime call without arguments",
			`{"name": "f", "body": [
				{"kind": "expr", "x": {"kind": "runtime",
					"name": "Gc", "funcId": 9, "args": []}}
			]}`,
			`callrt 9 r0 0; ldaundefined; return`,
		},
		{
			// Left operand parked in a temporary, right in the
			// accumulator.
			"arithmetic",
			`{"name": "f", "params": ["a", "b"],
			 "vars": {"a": {"loc": "parameter", "index": 0}, "b": {"loc": "parameter", "index": 1}},
			 "body": [
				{"kind": "return", "result": {"kind": "binary", "op": "+",
					"x": {"kind": "ident", "name": "a"},
					"y": {"kind": "binary", "op": "*",
						"x": {"kind": "ident", "name": "b"},
						"y": {"kind": "literal", "int": 2}}}}
			]}`,
			`ldar a1; star r0; ldar a2; star r1; ldasmi 2; mul r1; add r0; return; ` +
				`ldaundefined; return`,
		},
		{
			"strict equality in strict mode",
			`{"name": "f", "mode": "strict", "params": ["a", "b"],
			 "vars": {"a": {"loc": "parameter", "index": 0}, "b": {"loc": "parameter", "index": 1}},
			 "body": [
				{"kind": "return", "result": {"kind": "compare", "op": "===",
					"x": {"kind": "ident", "name": "a"},
					"y": {"kind": "ident", "name": "b"}}}
			]}`,
			`ldar a1; star r0; ldar a2; testeqstrict r0 strict; return; ldaundefined; return`,
		},
		{
			"in operator",
			`{"name": "f", "params": ["a", "b"],
			 "vars": {"a": {"loc": "parameter", "index": 0}, "b": {"loc": "parameter", "index": 1}},
			 "body": [
				{"kind": "return", "result": {"kind": "compare", "op": "in",
					"x": {"kind": "ident", "name": "a"},
					"y": {"kind": "ident", "name": "b"}}}
			]}`,
			`ldar a1; star r0; ldar a2; testin r0 sloppy; return; ldaundefined; return`,
		},
		{
			"empty statement",
			`{"name": "f", "body": [{"kind": "empty"}]}`,
			`ldaundefined; return`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			prog := mustCompile(t, test.src)
			if got := prog.DisassembleCompact(); got != test.want {
				t.Errorf("generated <<%s>>, want <<%s>>", got, test.want)
			}
		})
	}
}

// TestFrameSize checks that the frame covers locals plus the deepest
// run of temporaries ever live at once.
func TestFrameSize(t *testing.T) {
	for _, test := range []struct {
		name       string
		src        string
		frameSize  int
		paramCount int
	}{
		{
			"no registers",
			`{"name": "f", "body": [
				{"kind": "return", "result": {"kind": "literal", "int": 1}}]}`,
			0, 1,
		},
		{
			"locals only",
			`{"name": "f", "stackSlots": 2,
			 "vars": {"x": {"loc": "local", "index": 0}, "y": {"loc": "local", "index": 1}},
			 "decls": ["x", "y"], "body": []}`,
			2, 1,
		},
		{
			// callee + receiver + inner callee + inner receiver +
			// inner argument.
			"nested call temporaries",
			`{"name": "f", "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0},
			          "g": {"loc": "global", "index": 0},
			          "h": {"loc": "global", "index": 1}},
			 "body": [
				{"kind": "return", "result": {"kind": "call",
					"fn": {"kind": "ident", "name": "g"},
					"args": [{"kind": "call",
						"fn": {"kind": "ident", "name": "h"},
						"args": [{"kind": "ident", "name": "a"}]}]}}
			]}`,
			5, 2,
		},
		{
			// Binary temporaries are released between statements,
			// so two sequential operations share one slot above
			// the local.
			"temporaries reused across statements",
			`{"name": "f", "stackSlots": 1, "params": ["a"],
			 "vars": {"a": {"loc": "parameter", "index": 0},
			          "x": {"loc": "local", "index": 0}},
			 "decls": ["x"],
			 "body": [
				{"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "x"},
					"value": {"kind": "binary", "op": "+",
						"x": {"kind": "ident", "name": "a"},
						"y": {"kind": "literal", "int": 1}}}},
				{"kind": "expr", "x": {"kind": "assign",
					"target": {"kind": "ident", "name": "x"},
					"value": {"kind": "binary", "op": "-",
						"x": {"kind": "ident", "name": "x"},
						"y": {"kind": "literal", "int": 2}}}}
			]}`,
			2, 2,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			prog := mustCompile(t, test.src)
			if prog.FrameSize != test.frameSize {
				t.Errorf("frame size %d, want %d", prog.FrameSize, test.frameSize)
			}
			if prog.ParameterCount != test.paramCount {
				t.Errorf("parameter count %d, want %d", prog.ParameterCount, test.paramCount)
			}
		})
	}
}

// TestFeedbackIndex checks that property access sites translate their
// feedback slots through the configured lookup.
func TestFeedbackIndex(t *testing.T) {
	fn := mustDecode(t, `{"name": "f", "params": ["a"],
	 "vars": {"a": {"loc": "parameter", "index": 0}},
	 "body": [
		{"kind": "return", "result": {"kind": "property", "slot": 2,
			"obj": {"kind": "ident", "name": "a"},
			"key": {"kind": "literal", "string": "x"}}}
	]}`)
	opts := &lower.Options{
		FeedbackIndex: func(slot syntax.FeedbackSlot) int { return int(slot) + 10 },
	}
	prog, err := lower.Function(fn, opts)
	if err != nil {
		t.Fatal(err)
	}
	const want = `ldar a1; star r0; ldaconst "x"; ldanamed r0 12 sloppy; return; ldaundefined; return`
	if got := prog.DisassembleCompact(); got != want {
		t.Errorf("generated <<%s>>, want <<%s>>", got, want)
	}
}

// TestUnsupported checks that each construct outside the accepted
// subset fails with an UnsupportedConstructError naming it, and that
// no program is produced.
func TestUnsupported(t *testing.T) {
	const params = `"params": ["a"], "vars": {"a": {"loc": "parameter", "index": 0}}`
	expr := func(x string) string {
		return `{"name": "f", ` + params + `, "body": [{"kind": "expr", "x": ` + x + `}]}`
	}
	a := `{"kind": "ident", "name": "a"}`
	for _, test := range []struct {
		name string
		src  string
		want string // error Kind
	}{
		{"logical and", expr(`{"kind": "binary", "op": "&&", "x": ` + a + `, "y": ` + a + `}`),
			"logical && operator"},
		{"logical or", expr(`{"kind": "binary", "op": "||", "x": ` + a + `, "y": ` + a + `}`),
			"logical || operator"},
		{"comma", expr(`{"kind": "binary", "op": ",", "x": ` + a + `, "y": ` + a + `}`),
			"comma operator"},
		{"unary not", expr(`{"kind": "unary", "op": "!", "x": ` + a + `}`),
			"unary ! operator"},
		{"increment", expr(`{"kind": "count", "op": "++", "prefix": true, "x": ` + a + `}`),
			"++ operator"},
		{"conditional", expr(`{"kind": "cond", "cond": ` + a + `, "then": ` + a + `, "else": ` + a + `}`),
			"conditional expression"},
		{"function literal", expr(`{"kind": "function", "name": "g"}`),
			"function literal"},
		{"object literal", expr(`{"kind": "object"}`),
			"object literal"},
		{"array literal", expr(`{"kind": "array", "args": []}`),
			"array literal"},
		{"compound assignment", expr(`{"kind": "assign", "op": "+=", "target": ` + a + `, "value": ` + a + `}`),
			"compound assignment +="},
		{"super property store",
			expr(`{"kind": "assign", "slot": 0, "target": {"kind": "property", "super": true,
				"obj": ` + a + `, "key": {"kind": "literal", "string": "x"}}, "value": ` + a + `}`),
			"assignment to super property"},
		{"with",
			`{"name": "f", ` + params + `, "body": [
				{"kind": "with", "obj": ` + a + `, "body": {"kind": "empty"}}]}`,
			"with statement"},
		{"switch",
			`{"name": "f", ` + params + `, "body": [
				{"kind": "switch", "cond": ` + a + `}]}`,
			"switch statement"},
		{"try",
			`{"name": "f", "body": [{"kind": "try", "body": {"kind": "empty"}}]}`,
			"try statement"},
		{"for in",
			`{"name": "f", ` + params + `, "body": [
				{"kind": "forin", "target": ` + a + `, "obj": ` + a + `, "body": {"kind": "empty"}}]}`,
			"for-in statement"},
		{"for of",
			`{"name": "f", ` + params + `, "body": [
				{"kind": "forof", "target": ` + a + `, "obj": ` + a + `, "body": {"kind": "empty"}}]}`,
			"for-of statement"},
		{"throw",
			`{"name": "f", ` + params + `, "body": [{"kind": "throw", "x": ` + a + `}]}`,
			"throw statement"},
		{"debugger",
			`{"name": "f", "body": [{"kind": "debugger"}]}`,
			"debugger statement"},
		{"context block",
			`{"name": "f", "body": [{"kind": "block", "contextLocals": 1, "stmts": []}]}`,
			"block with context-allocated locals"},
		{"context variable load",
			`{"name": "f", "vars": {"c": {"loc": "context", "index": 0}},
			 "body": [{"kind": "return", "result": {"kind": "ident", "name": "c"}}]}`,
			"load of context variable c"},
		{"lookup variable load",
			`{"name": "f", "vars": {"d": {"loc": "lookup"}},
			 "body": [{"kind": "return", "result": {"kind": "ident", "name": "d"}}]}`,
			"load of lookup variable d"},
		{"global store",
			`{"name": "f", "vars": {"g": {"loc": "global", "index": 0}},
			 "body": [{"kind": "expr", "x": {"kind": "assign",
				"target": {"kind": "ident", "name": "g"},
				"value": {"kind": "literal", "int": 1}}}]}`,
			"store to global variable g"},
		{"context variable declaration",
			`{"name": "f", "vars": {"c": {"loc": "context", "index": 0}},
			 "decls": ["c"], "body": []}`,
			"declaration of context variable c"},
	} {
		t.Run(test.name, func(t *testing.T) {
			prog, err := compile(t, test.src)
			if prog != nil {
				t.Errorf("got a program despite error %v", err)
			}
			var uerr *lower.UnsupportedConstructError
			if !errors.As(err, &uerr) {
				t.Fatalf("error %v (%T), want UnsupportedConstructError", err, err)
			}
			if uerr.Kind != test.want {
				t.Errorf("construct %q, want %q", uerr.Kind, test.want)
			}
			if !strings.Contains(uerr.Error(), "unsupported construct") {
				t.Errorf("message %q lacks 'unsupported construct'", uerr.Error())
			}
		})
	}
}

// TestUnsupportedDecls covers declaration kinds that have no JSON
// encoding and are built directly.
func TestUnsupportedDecls(t *testing.T) {
	for _, test := range []struct {
		name string
		decl syntax.Decl
		want string
	}{
		{"function declaration",
			&syntax.FuncDecl{Name: &syntax.Ident{Name: "g"}},
			"function declaration"},
		{"import declaration",
			&syntax.ImportDecl{Name: &syntax.Ident{Name: "m"}},
			"import declaration"},
		{"export declaration",
			&syntax.ExportDecl{Name: &syntax.Ident{Name: "x"}},
			"export declaration"},
	} {
		t.Run(test.name, func(t *testing.T) {
			fn := &syntax.Function{
				Name:  "f",
				Scope: &syntax.Scope{Decls: []syntax.Decl{test.decl}},
			}
			prog, err := lower.Function(fn, nil)
			if prog != nil {
				t.Errorf("got a program despite error %v", err)
			}
			var uerr *lower.UnsupportedConstructError
			if !errors.As(err, &uerr) {
				t.Fatalf("error %v (%T), want UnsupportedConstructError", err, err)
			}
			if uerr.Kind != test.want {
				t.Errorf("construct %q, want %q", uerr.Kind, test.want)
			}
		})
	}
}

// TestSelfDeclaration checks that the implicit declaration of the
// function's own name is processed like any other declaration.
func TestSelfDeclaration(t *testing.T) {
	prog := mustCompile(t, `{"name": "f", "stackSlots": 1, "self": "f",
	 "vars": {"f": {"loc": "local", "index": 0}},
	 "body": [{"kind": "return", "result": {"kind": "ident", "name": "f"}}]}`)
	const want = `ldar r0; return; ldaundefined; return`
	if got := prog.DisassembleCompact(); got != want {
		t.Errorf("generated <<%s>>, want <<%s>>", got, want)
	}
}
