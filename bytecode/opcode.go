// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import "fmt"

// An Opcode identifies one interpreter instruction.
//
// The machine is a register machine with a distinguished accumulator:
// every value-producing instruction leaves its result in the
// accumulator, and instructions that need a second operand read it
// from an explicitly named register.
type Opcode uint8

const (
	ILLEGAL Opcode = iota

	// accumulator loads
	LDASMI       // ldasmi <imm>      accumulator = small integer imm
	LDACONST     // ldaconst <idx>    accumulator = constant pool [idx]
	LDAUNDEFINED // ldaundefined      accumulator = undefined
	LDANULL      // ldanull           accumulator = null
	LDATHEHOLE   // ldathehole        accumulator = the hole sentinel
	LDATRUE      // ldatrue           accumulator = true
	LDAFALSE     // ldafalse          accumulator = false

	// register transfers
	LDAR // ldar <reg>        accumulator = reg
	STAR // star <reg>        reg = accumulator

	// globals and properties
	LDAGLOBAL // ldaglobal <idx>                      accumulator = global [idx]
	LDANAMED  // ldanamed <obj> <feedback> <mode>     accumulator = obj[name in accumulator]
	LDAKEYED  // ldakeyed <obj> <feedback> <mode>     accumulator = obj[key in accumulator]
	STANAMED  // stanamed <obj> <name> <feedback> <mode>  obj[name reg] = accumulator
	STAKEYED  // stakeyed <obj> <key> <feedback> <mode>   obj[key reg] = accumulator

	// control flow
	TOBOOL     // tobool            accumulator = ToBoolean(accumulator)
	JMP        // jmp <addr>
	JMPIFTRUE  // jmpiftrue <addr>  jump if accumulator is true
	JMPIFFALSE // jmpiffalse <addr> jump if accumulator is false
	RETURN     // return            return accumulator to the caller

	// block bookkeeping
	BLOCKENTER // blockenter
	BLOCKLEAVE // blockleave

	// calls
	CALL   // call <callee> <receiver> <argc>   args in receiver+1 .. receiver+argc
	CALLRT // callrt <funcid> <firstarg> <argc> intrinsic call

	// binary operations: left operand in <reg>, right in accumulator
	ADD    // add <reg>
	SUB    // sub <reg>
	MUL    // mul <reg>
	DIV    // div <reg>
	MOD    // mod <reg>
	BITOR  // bitor <reg>
	BITXOR // bitxor <reg>
	BITAND // bitand <reg>
	SHL    // shl <reg>
	SAR    // sar <reg>
	SHR    // shr <reg>

	// comparisons: left operand in <reg>, right in accumulator
	TESTEQ         // testeq <reg> <mode>
	TESTNE         // testne <reg> <mode>
	TESTEQSTRICT   // testeqstrict <reg> <mode>
	TESTNESTRICT   // testnestrict <reg> <mode>
	TESTLT         // testlt <reg> <mode>
	TESTGT         // testgt <reg> <mode>
	TESTLE         // testle <reg> <mode>
	TESTGE         // testge <reg> <mode>
	TESTIN         // testin <reg> <mode>
	TESTINSTANCEOF // testinstanceof <reg> <mode>

	numOpcodes
)

// An operandKind describes how one instruction operand is to be
// interpreted, chiefly by the disassembler.
type operandKind uint8

const (
	operandReg   operandKind = iota // register, zigzag-encoded
	operandConst                    // constant pool index
	operandIdx                      // global or feedback index
	operandImm                      // immediate count or id
	operandSmi                      // small integer, zigzag-encoded
	operandMode                     // language mode
	operandAddr                     // absolute code address
)

var opcodeNames = [numOpcodes]string{
	ILLEGAL:        "illegal",
	LDASMI:         "ldasmi",
	LDACONST:       "ldaconst",
	LDAUNDEFINED:   "ldaundefined",
	LDANULL:        "ldanull",
	LDATHEHOLE:     "ldathehole",
	LDATRUE:        "ldatrue",
	LDAFALSE:       "ldafalse",
	LDAR:           "ldar",
	STAR:           "star",
	LDAGLOBAL:      "ldaglobal",
	LDANAMED:       "ldanamed",
	LDAKEYED:       "ldakeyed",
	STANAMED:       "stanamed",
	STAKEYED:       "stakeyed",
	TOBOOL:         "tobool",
	JMP:            "jmp",
	JMPIFTRUE:      "jmpiftrue",
	JMPIFFALSE:     "jmpiffalse",
	RETURN:         "return",
	BLOCKENTER:     "blockenter",
	BLOCKLEAVE:     "blockleave",
	CALL:           "call",
	CALLRT:         "callrt",
	ADD:            "add",
	SUB:            "sub",
	MUL:            "mul",
	DIV:            "div",
	MOD:            "mod",
	BITOR:          "bitor",
	BITXOR:         "bitxor",
	BITAND:         "bitand",
	SHL:            "shl",
	SAR:            "sar",
	SHR:            "shr",
	TESTEQ:         "testeq",
	TESTNE:         "testne",
	TESTEQSTRICT:   "testeqstrict",
	TESTNESTRICT:   "testnestrict",
	TESTLT:         "testlt",
	TESTGT:         "testgt",
	TESTLE:         "testle",
	TESTGE:         "testge",
	TESTIN:         "testin",
	TESTINSTANCEOF: "testinstanceof",
}

// opcodeOperands maps each opcode to the kinds of its operands.
// The operand count of an opcode is the length of its entry.
var opcodeOperands = [numOpcodes][]operandKind{
	LDASMI:         {operandSmi},
	LDACONST:       {operandConst},
	LDAR:           {operandReg},
	STAR:           {operandReg},
	LDAGLOBAL:      {operandIdx},
	LDANAMED:       {operandReg, operandIdx, operandMode},
	LDAKEYED:       {operandReg, operandIdx, operandMode},
	STANAMED:       {operandReg, operandReg, operandIdx, operandMode},
	STAKEYED:       {operandReg, operandReg, operandIdx, operandMode},
	JMP:            {operandAddr},
	JMPIFTRUE:      {operandAddr},
	JMPIFFALSE:     {operandAddr},
	CALL:           {operandReg, operandReg, operandImm},
	CALLRT:         {operandImm, operandReg, operandImm},
	ADD:            {operandReg},
	SUB:            {operandReg},
	MUL:            {operandReg},
	DIV:            {operandReg},
	MOD:            {operandReg},
	BITOR:          {operandReg},
	BITXOR:         {operandReg},
	BITAND:         {operandReg},
	SHL:            {operandReg},
	SAR:            {operandReg},
	SHR:            {operandReg},
	TESTEQ:         {operandReg, operandMode},
	TESTNE:         {operandReg, operandMode},
	TESTEQSTRICT:   {operandReg, operandMode},
	TESTNESTRICT:   {operandReg, operandMode},
	TESTLT:         {operandReg, operandMode},
	TESTGT:         {operandReg, operandMode},
	TESTLE:         {operandReg, operandMode},
	TESTGE:         {operandReg, operandMode},
	TESTIN:         {operandReg, operandMode},
	TESTINSTANCEOF: {operandReg, operandMode},
}

func (op Opcode) String() string {
	if op < numOpcodes && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// A Register names one slot of a function's register file.
// Non-negative registers are frame slots: locals first, temporaries
// above them. Negative registers name parameters; the receiver is
// parameter 0.
type Register int32

// ParameterRegister returns the register naming parameter i,
// where parameter 0 is the implicit receiver.
func ParameterRegister(i int) Register { return Register(-int32(i) - 1) }

// IsParameter reports whether r names a parameter slot.
func (r Register) IsParameter() bool { return r < 0 }

// ParameterIndex returns the parameter number of a parameter register.
func (r Register) ParameterIndex() int { return int(-r - 1) }

func (r Register) String() string {
	if r.IsParameter() {
		return fmt.Sprintf("a%d", r.ParameterIndex())
	}
	return fmt.Sprintf("r%d", int32(r))
}

// zigzag converts a register to its wire operand form.
func (r Register) zigzag() uint32 {
	return uint32((int32(r) << 1) ^ (int32(r) >> 31))
}

// unzigzag recovers a register from its wire operand form.
func unzigzag(u uint32) Register {
	return Register(int32(u>>1) ^ -int32(u&1))
}
