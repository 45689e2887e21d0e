// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// A Token denotes a Dynamo operator.
//
// The lowering pass consumes only the operator tokens; the full scanner
// token set lives in the front end, which runs out of process.
type Token uint8

const (
	ILLEGAL Token = iota

	// assignment
	EQ // =

	// compound assignment (recognized, not lowered)
	PLUS_EQ    // +=
	MINUS_EQ   // -=
	STAR_EQ    // *=
	SLASH_EQ   // /=
	PERCENT_EQ // %=

	// arithmetic and bitwise
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	AMP     // &
	PIPE    // |
	CARET   // ^
	LTLT    // <<
	GTGT    // >>
	GTGTGT  // >>>

	// sequencing and short-circuit (recognized, not lowered)
	COMMA // ,
	OR    // ||
	AND   // &&

	// comparison
	EQEQ       // ==
	NEQ        // !=
	EQEQEQ     // ===
	NEQEQ      // !==
	LT         // <
	GT         // >
	LE         // <=
	GE         // >=
	IN         // in
	INSTANCEOF // instanceof

	// unary (recognized, not lowered)
	NOT        // !
	TILDE      // ~
	TYPEOF     // typeof
	VOID       // void
	DELETE     // delete
	PLUSPLUS   // ++
	MINUSMINUS // --

	maxToken
)

var tokenNames = [...]string{
	ILLEGAL:    "illegal token",
	EQ:         "=",
	PLUS_EQ:    "+=",
	MINUS_EQ:   "-=",
	STAR_EQ:    "*=",
	SLASH_EQ:   "/=",
	PERCENT_EQ: "%=",
	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
	PERCENT:    "%",
	AMP:        "&",
	PIPE:       "|",
	CARET:      "^",
	LTLT:       "<<",
	GTGT:       ">>",
	GTGTGT:     ">>>",
	COMMA:      ",",
	OR:         "||",
	AND:        "&&",
	EQEQ:       "==",
	NEQ:        "!=",
	EQEQEQ:     "===",
	NEQEQ:      "!==",
	LT:         "<",
	GT:         ">",
	LE:         "<=",
	GE:         ">=",
	IN:         "in",
	INSTANCEOF: "instanceof",
	NOT:        "!",
	TILDE:      "~",
	TYPEOF:     "typeof",
	VOID:       "void",
	DELETE:     "delete",
	PLUSPLUS:   "++",
	MINUSMINUS: "--",
}

func (tok Token) String() string { return tokenNames[tok] }

// IsCompare reports whether tok is a comparison operator.
func (tok Token) IsCompare() bool { return EQEQ <= tok && tok <= INSTANCEOF }

// IsArithmetic reports whether tok is an arithmetic or bitwise binary
// operator, i.e. a binary operator without sequencing or short-circuit
// semantics.
func (tok Token) IsArithmetic() bool { return PLUS <= tok && tok <= GTGTGT }
