// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repl provides a read/lower/print loop for Dynamo.
//
// It supports readline-style command editing and interrupts through
// Control-C. Each item of input is one function document in the JSON
// interchange form of package astjson; the REPL reads lines until the
// accumulated text is valid JSON (or until a blank line, to surface a
// syntax error), lowers the function, and prints its disassembly.
package repl

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chzyer/readline"

	"github.com/dynamo-lang/dynamo/astjson"
	"github.com/dynamo-lang/dynamo/lower"
)

// REPL executes a read, lower, print loop.
func REPL(opts *lower.Options) {
	rl, err := readline.New(">>> ")
	if err != nil {
		PrintError(err)
		return
	}
	defer rl.Close()
	for {
		if err := rep(rl, opts); err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
	fmt.Println()
}

// rep reads, lowers, and prints one function document.
//
// It returns an error (possibly readline.ErrInterrupt) only if
// readline failed. Decoding and lowering errors are printed.
func rep(rl *readline.Instance, opts *lower.Options) error {
	rl.SetPrompt(">>> ")
	var doc []byte
	for {
		line, err := rl.Readline()
		if err != nil {
			return err
		}
		rl.SetPrompt("... ")
		if len(doc) == 0 && line == "" {
			return nil
		}
		doc = append(doc, line...)
		doc = append(doc, '\n')
		if json.Valid(doc) {
			break
		}
		if line == "" {
			// Let Decode report what is wrong with the input.
			break
		}
	}

	fn, err := astjson.Decode(doc)
	if err != nil {
		PrintError(err)
		return nil
	}
	prog, err := lower.Function(fn, opts)
	if err != nil {
		PrintError(err)
		return nil
	}
	fmt.Print(prog.Disassemble())
	return nil
}

// PrintError prints the error to stderr.
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, err)
}
