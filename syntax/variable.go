// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// This file defines resolver data types referenced by the syntax tree.
// The scope-resolution pass runs in the front end; by the time a tree
// reaches the lowering pass every Ident carries a non-nil *Variable.

// A Variable ties together all identifiers that denote the same
// storage slot. The resolver computes one for every Ident and never
// changes it afterwards; the lowering pass treats it as read-only.
type Variable struct {
	Name string
	Loc  Location

	// Index records the slot within the variable's storage class:
	// the parameter position if Loc==Parameter (0 is the first
	// declared parameter, not the receiver), the local register if
	// Loc==Local, or the global-table index if Loc==Global.
	// It is zero if Loc is Unallocated, Context, or Lookup.
	Index int
}

// The Location of a Variable indicates which storage class holds it.
type Location uint8

const (
	Unallocated Location = iota // not yet allocated; forces full lookup
	Parameter                   // parameter slot of the enclosing function
	Local                       // register slot of the enclosing function
	Context                     // slot in a heap-allocated context chain
	Lookup                      // dynamic lookup through the scope chain
	Global                      // slot in the global object's table
)

var locationNames = [...]string{
	Unallocated: "unallocated",
	Parameter:   "parameter",
	Local:       "local",
	Context:     "context",
	Lookup:      "lookup",
	Global:      "global",
}

func (loc Location) String() string { return locationNames[loc] }

// A FeedbackSlot identifies the inline-cache feedback slot assigned to
// a property access site by the front end. It is opaque to lowering,
// which translates it to a storage index through a caller-supplied
// lookup (see lower.Options.FeedbackIndex).
type FeedbackSlot int

// InvalidFeedbackSlot marks an access site with no assigned slot.
const InvalidFeedbackSlot FeedbackSlot = -1

// A LanguageMode selects the strictness of the enclosing function.
// It parameterizes property stores and equality comparison.
type LanguageMode uint8

const (
	Sloppy LanguageMode = iota
	Strict
)

var languageModeNames = [...]string{
	Sloppy: "sloppy",
	Strict: "strict",
}

func (mode LanguageMode) String() string { return languageModeNames[mode] }
