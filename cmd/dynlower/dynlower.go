// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The dynlower command lowers a Dynamo function document to bytecode.
//
// The input is one function in the JSON interchange form of package
// astjson, named on the command line, supplied with -c, or read from
// standard input. The output is a disassembly listing, or with -o the
// serialized program. With no input and a terminal on standard input,
// dynlower starts a read-lower-print loop (REPL).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"golang.org/x/term"

	"github.com/dynamo-lang/dynamo/astjson"
	"github.com/dynamo-lang/dynamo/lower"
	"github.com/dynamo-lang/dynamo/repl"
)

// flags
var (
	cpuprofile = flag.String("cpuprofile", "", "gather Go CPU profile in this file")
	memprofile = flag.String("memprofile", "", "gather Go memory profile in this file")
	execprog   = flag.String("c", "", "lower function document `doc`")
	output     = flag.String("o", "", "write the serialized program to this file")
)

func init() {
	flag.BoolVar(&lower.Disassemble, "dis", lower.Disassemble, "show disassembly on stderr while lowering each function")
}

func main() {
	os.Exit(doMain())
}

func doMain() int {
	log.SetPrefix("dynlower: ")
	log.SetFlags(0)
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		check(err)
		err = pprof.StartCPUProfile(f)
		check(err)
		defer func() {
			pprof.StopCPUProfile()
			err := f.Close()
			check(err)
		}()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		check(err)
		defer func() {
			runtime.GC()
			err := pprof.Lookup("heap").WriteTo(f, 0)
			check(err)
			err = f.Close()
			check(err)
		}()
	}

	var (
		filename string
		doc      []byte
		err      error
	)
	switch {
	case *execprog != "":
		if flag.NArg() > 0 {
			log.Print("-c and a file name are mutually exclusive")
			return 1
		}
		filename = "cmdline"
		doc = []byte(*execprog)
	case flag.NArg() == 1:
		filename = flag.Arg(0)
		doc, err = os.ReadFile(filename)
		check(err)
	case flag.NArg() == 0:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Println("Welcome to Dynamo (github.com/dynamo-lang/dynamo)")
			repl.REPL(nil)
			return 0
		}
		filename = "stdin"
		doc, err = io.ReadAll(os.Stdin)
		check(err)
	default:
		log.Print("want at most one function document")
		return 1
	}

	fn, err := astjson.Decode(doc)
	if err != nil {
		log.Printf("%s: %v", filename, err)
		return 1
	}
	prog, err := lower.Function(fn, nil)
	if err != nil {
		repl.PrintError(err)
		return 1
	}

	if *output != "" {
		f, err := os.Create(*output)
		check(err)
		err = prog.Write(f)
		check(err)
		err = f.Close()
		check(err)
	} else {
		fmt.Print(prog.Disassemble())
	}
	return 0
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
