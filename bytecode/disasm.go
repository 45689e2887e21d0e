// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"bytes"
	"fmt"

	"github.com/dynamo-lang/dynamo/syntax"
)

// Disassemble returns a multi-line listing of the program, one
// instruction per line with its code address.
func (p *Program) Disassemble() string {
	out := new(bytes.Buffer)
	fmt.Fprintf(out, "%s: %d parameters, frame size %d\n",
		p.Name, p.ParameterCount, p.FrameSize)
	for pc := 0; pc < len(p.Code); {
		fmt.Fprintf(out, "%6d  ", pc)
		pc = p.disasmInsn(out, pc)
		out.WriteByte('\n')
	}
	return out.String()
}

// DisassembleCompact returns the program's instructions on a single
// line, separated by "; ". Codegen tests compare against this form.
func (p *Program) DisassembleCompact() string {
	out := new(bytes.Buffer)
	for pc := 0; pc < len(p.Code); {
		if out.Len() > 0 {
			out.WriteString("; ")
		}
		pc = p.disasmInsn(out, pc)
	}
	return out.String()
}

// disasmInsn writes the instruction at pc and returns the address of
// the next one.
func (p *Program) disasmInsn(out *bytes.Buffer, pc int) int {
	op := Opcode(p.Code[pc])
	pc++
	fmt.Fprintf(out, "%s", op)
	for _, kind := range opcodeOperands[op] {
		var arg uint32
		arg, pc = decodeVarint(p.Code, pc)
		out.WriteByte(' ')
		switch kind {
		case operandReg:
			fmt.Fprintf(out, "%s", unzigzag(arg))
		case operandConst:
			if int(arg) < len(p.Constants) {
				switch c := p.Constants[arg].(type) {
				case string:
					fmt.Fprintf(out, "%q", c)
				default:
					fmt.Fprintf(out, "%v", c)
				}
			} else {
				fmt.Fprintf(out, "const#%d!", arg)
			}
		case operandIdx, operandImm:
			fmt.Fprintf(out, "%d", arg)
		case operandSmi:
			fmt.Fprintf(out, "%d", int32(arg>>1)^-int32(arg&1))
		case operandMode:
			fmt.Fprintf(out, "%s", syntax.LanguageMode(arg))
		case operandAddr:
			fmt.Fprintf(out, "@%d", arg)
		}
	}
	return pc
}

// decodeVarint decodes the 7-bit varint at pc.
func decodeVarint(code []byte, pc int) (uint32, int) {
	var arg uint32
	for s := uint(0); ; s += 7 {
		b := code[pc]
		pc++
		arg |= uint32(b&0x7f) << s
		if b < 0x80 {
			break
		}
	}
	return arg, pc
}
