// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytecode defines the Dynamo instruction set, the Builder
// used by the lowering pass to assemble instructions, and the
// serialized Program form consumed by the interpreter.
package bytecode

import (
	"fmt"

	"github.com/dynamo-lang/dynamo/syntax"
)

// A Label is an as-yet-unresolved address in the instruction stream.
// Jumps may reference a label before or after it is bound; a label is
// bound exactly once. The zero value is an unbound label.
type Label struct {
	bound bool
	insn  int    // index of target instruction
	addr  uint32 // resolved code address, set by Finish
}

// An insn is one unencoded instruction. Operands referencing a label
// are resolved to addresses during Finish.
type insn struct {
	op     Opcode
	arg    [4]uint32
	target *Label // non-nil iff op is a jump
}

// A Builder assembles the bytecode of one function.
//
// The builder is the emission backend of the lowering pass: the pass
// calls one method per lowering-level operation and the builder owns
// encoding, label resolution, and frame-size accounting. Methods
// panic on misuse (unbound or rebound labels, out-of-range parameter
// or temporary indices); such a panic always indicates a bug in the
// caller, not bad user input.
//
// The builder also owns the temporary-register file. Temporaries are
// allocated above the local slots in stack order: Mark and
// ReleaseTemporariesTo give the lowering pass a watermark discipline,
// so the live temporaries are always a contiguous run ending at the
// high-water mark.
type Builder struct {
	insns         []insn
	constants     []interface{}
	constantIndex map[interface{}]uint32

	parameterCount int // including the receiver
	localCount     int

	tempNext int // temporaries in use, relative to localCount
	tempMax  int // high-water mark of tempNext
}

// NewBuilder returns a builder with no parameters and no locals.
func NewBuilder() *Builder {
	return &Builder{constantIndex: make(map[interface{}]uint32)}
}

// SetParameterCount sets the function's parameter count, including
// the implicit receiver.
func (b *Builder) SetParameterCount(n int) { b.parameterCount = n }

// SetLocalsCount sets the number of register slots reserved for local
// variables. It must be called before any temporary is allocated.
func (b *Builder) SetLocalsCount(n int) {
	if b.tempNext != 0 || b.tempMax != 0 {
		panic("bytecode: SetLocalsCount after temporary allocation")
	}
	b.localCount = n
}

// Parameter returns the register naming parameter i; parameter 0 is
// the implicit receiver.
func (b *Builder) Parameter(i int) Register {
	if i < 0 || i >= b.parameterCount {
		panic(fmt.Sprintf("bytecode: parameter %d out of range [0,%d)", i, b.parameterCount))
	}
	return ParameterRegister(i)
}

// Local returns the register holding local variable slot i.
func (b *Builder) Local(i int) Register {
	if i < 0 || i >= b.localCount {
		panic(fmt.Sprintf("bytecode: local %d out of range [0,%d)", i, b.localCount))
	}
	return Register(i)
}

// TemporaryMark returns the current temporary watermark, to be passed
// to ReleaseTemporariesTo when the scope that took the mark ends.
func (b *Builder) TemporaryMark() int { return b.tempNext }

// AllocateTemporary returns the next free temporary register. The
// register remains live until a mark at or below it is released.
func (b *Builder) AllocateTemporary() Register {
	r := Register(b.localCount + b.tempNext)
	b.tempNext++
	if b.tempNext > b.tempMax {
		b.tempMax = b.tempNext
	}
	return r
}

// ReleaseTemporariesTo frees every temporary allocated since mark.
// Releasing to a watermark above the current allocation point is a
// mismatched scope exit and panics.
func (b *Builder) ReleaseTemporariesTo(mark int) {
	if mark < 0 || mark > b.tempNext {
		panic(fmt.Sprintf("bytecode: temporary release to %d outside [0,%d]", mark, b.tempNext))
	}
	b.tempNext = mark
}

// LiveTemporaries returns the number of temporaries currently live.
func (b *Builder) LiveTemporaries() int { return b.tempNext }

func (b *Builder) emit(op Opcode) {
	b.insns = append(b.insns, insn{op: op})
}

func (b *Builder) emitN(op Opcode, args ...uint32) {
	if len(args) != len(opcodeOperands[op]) {
		panic(fmt.Sprintf("bytecode: %s takes %d operands, got %d",
			op, len(opcodeOperands[op]), len(args)))
	}
	in := insn{op: op}
	copy(in.arg[:], args)
	b.insns = append(b.insns, in)
}

func (b *Builder) emitJump(op Opcode, l *Label) {
	b.insns = append(b.insns, insn{op: op, target: l})
}

// constant interns v in the constant pool and returns its index.
func (b *Builder) constant(v interface{}) uint32 {
	if idx, ok := b.constantIndex[v]; ok {
		return idx
	}
	idx := uint32(len(b.constants))
	b.constants = append(b.constants, v)
	b.constantIndex[v] = idx
	return idx
}

// LoadSmallInt loads a small integer into the accumulator.
func (b *Builder) LoadSmallInt(v int32) {
	b.emitN(LDASMI, uint32((v<<1)^(v>>31)))
}

// LoadConstant loads a pooled constant into the accumulator.
func (b *Builder) LoadConstant(v interface{}) {
	b.emitN(LDACONST, b.constant(v))
}

// LoadUndefined loads the undefined value into the accumulator.
func (b *Builder) LoadUndefined() { b.emit(LDAUNDEFINED) }

// LoadNull loads the null value into the accumulator.
func (b *Builder) LoadNull() { b.emit(LDANULL) }

// LoadTheHole loads the uninitialized-binding sentinel into the
// accumulator.
func (b *Builder) LoadTheHole() { b.emit(LDATHEHOLE) }

// LoadTrue loads true into the accumulator.
func (b *Builder) LoadTrue() { b.emit(LDATRUE) }

// LoadFalse loads false into the accumulator.
func (b *Builder) LoadFalse() { b.emit(LDAFALSE) }

// LoadAccumulatorWithRegister copies reg into the accumulator.
func (b *Builder) LoadAccumulatorWithRegister(reg Register) {
	b.emitN(LDAR, reg.zigzag())
}

// StoreAccumulatorInRegister copies the accumulator into reg.
func (b *Builder) StoreAccumulatorInRegister(reg Register) {
	b.emitN(STAR, reg.zigzag())
}

// LoadGlobal loads the global with the given table index into the
// accumulator.
func (b *Builder) LoadGlobal(index int) {
	b.emitN(LDAGLOBAL, uint32(index))
}

// LoadNamedProperty loads obj's property named by the accumulator.
func (b *Builder) LoadNamedProperty(obj Register, feedbackIndex int, mode syntax.LanguageMode) {
	b.emitN(LDANAMED, obj.zigzag(), uint32(feedbackIndex), uint32(mode))
}

// LoadKeyedProperty loads obj's property keyed by the accumulator.
func (b *Builder) LoadKeyedProperty(obj Register, feedbackIndex int, mode syntax.LanguageMode) {
	b.emitN(LDAKEYED, obj.zigzag(), uint32(feedbackIndex), uint32(mode))
}

// StoreNamedProperty stores the accumulator into obj's property named
// by the name register.
func (b *Builder) StoreNamedProperty(obj, name Register, feedbackIndex int, mode syntax.LanguageMode) {
	b.emitN(STANAMED, obj.zigzag(), name.zigzag(), uint32(feedbackIndex), uint32(mode))
}

// StoreKeyedProperty stores the accumulator into obj's property keyed
// by the key register.
func (b *Builder) StoreKeyedProperty(obj, key Register, feedbackIndex int, mode syntax.LanguageMode) {
	b.emitN(STAKEYED, obj.zigzag(), key.zigzag(), uint32(feedbackIndex), uint32(mode))
}

// CastAccumulatorToBoolean coerces the accumulator to a boolean truth
// value.
func (b *Builder) CastAccumulatorToBoolean() { b.emit(TOBOOL) }

// Bind fixes l to the next emitted instruction. A label is bound at
// most once.
func (b *Builder) Bind(l *Label) {
	if l.bound {
		panic("bytecode: label bound twice")
	}
	l.bound = true
	l.insn = len(b.insns)
}

// Jump jumps unconditionally to l.
func (b *Builder) Jump(l *Label) { b.emitJump(JMP, l) }

// JumpIfTrue jumps to l if the accumulator is true.
func (b *Builder) JumpIfTrue(l *Label) { b.emitJump(JMPIFTRUE, l) }

// JumpIfFalse jumps to l if the accumulator is false.
func (b *Builder) JumpIfFalse(l *Label) { b.emitJump(JMPIFFALSE, l) }

// Return returns the accumulator to the caller.
func (b *Builder) Return() { b.emit(RETURN) }

// EnterBlock marks the start of a lexical block.
func (b *Builder) EnterBlock() { b.emit(BLOCKENTER) }

// LeaveBlock marks the end of a lexical block.
func (b *Builder) LeaveBlock() { b.emit(BLOCKLEAVE) }

// Call invokes the function in the callee register. The receiver
// register must be followed by argc contiguous argument registers.
func (b *Builder) Call(callee, receiver Register, argc int) {
	b.emitN(CALL, callee.zigzag(), receiver.zigzag(), uint32(argc))
}

// CallRuntime invokes interpreter intrinsic funcID with argc
// arguments starting at the firstArg register. firstArg must be valid
// even when argc is zero.
func (b *Builder) CallRuntime(funcID int, firstArg Register, argc int) {
	b.emitN(CALLRT, uint32(funcID), firstArg.zigzag(), uint32(argc))
}

var binaryOpcodes = map[syntax.Token]Opcode{
	syntax.PLUS:    ADD,
	syntax.MINUS:   SUB,
	syntax.STAR:    MUL,
	syntax.SLASH:   DIV,
	syntax.PERCENT: MOD,
	syntax.PIPE:    BITOR,
	syntax.CARET:   BITXOR,
	syntax.AMP:     BITAND,
	syntax.LTLT:    SHL,
	syntax.GTGT:    SAR,
	syntax.GTGTGT:  SHR,
}

// BinaryOperation combines the lhs register (left operand) with the
// accumulator (right operand) under op, leaving the result in the
// accumulator.
func (b *Builder) BinaryOperation(op syntax.Token, lhs Register) {
	opcode, ok := binaryOpcodes[op]
	if !ok {
		panic(fmt.Sprintf("bytecode: no binary opcode for %q", op))
	}
	b.emitN(opcode, lhs.zigzag())
}

var compareOpcodes = map[syntax.Token]Opcode{
	syntax.EQEQ:       TESTEQ,
	syntax.NEQ:        TESTNE,
	syntax.EQEQEQ:     TESTEQSTRICT,
	syntax.NEQEQ:      TESTNESTRICT,
	syntax.LT:         TESTLT,
	syntax.GT:         TESTGT,
	syntax.LE:         TESTLE,
	syntax.GE:         TESTGE,
	syntax.IN:         TESTIN,
	syntax.INSTANCEOF: TESTINSTANCEOF,
}

// CompareOperation compares the lhs register (left operand) with the
// accumulator (right operand) under op, leaving a boolean in the
// accumulator.
func (b *Builder) CompareOperation(op syntax.Token, lhs Register, mode syntax.LanguageMode) {
	opcode, ok := compareOpcodes[op]
	if !ok {
		panic(fmt.Sprintf("bytecode: no compare opcode for %q", op))
	}
	b.emitN(opcode, lhs.zigzag(), uint32(mode))
}

// Finish resolves labels, encodes the instruction stream, and returns
// the finalized program. The builder must not be reused afterwards.
func (b *Builder) Finish(name string) *Program {
	// Jump operands are variable-width, so instruction addresses
	// and the label addresses encoded in them are interdependent.
	// Iterate address assignment until it converges; widths only
	// grow, so this terminates.
	addrs := make([]uint32, len(b.insns)+1)
	for {
		changed := false
		var pc uint32
		for i := range b.insns {
			if addrs[i] != pc {
				addrs[i] = pc
				changed = true
			}
			pc += b.insns[i].size(addrs)
		}
		if addrs[len(b.insns)] != pc {
			addrs[len(b.insns)] = pc
			changed = true
		}
		if !changed {
			break
		}
	}

	code := make([]byte, 0, addrs[len(b.insns)])
	for i := range b.insns {
		code = b.insns[i].encode(code, addrs)
	}

	return &Program{
		Name:           name,
		ParameterCount: b.parameterCount,
		FrameSize:      b.localCount + b.tempMax,
		Constants:      b.constants,
		Code:           code,
	}
}

// operands returns the instruction's operand values with any label
// reference resolved against addrs.
func (in *insn) operands(addrs []uint32) []uint32 {
	kinds := opcodeOperands[in.op]
	if in.target == nil {
		return in.arg[:len(kinds)]
	}
	if !in.target.bound {
		panic(fmt.Sprintf("bytecode: %s to unbound label", in.op))
	}
	in.target.addr = addrs[in.target.insn]
	return []uint32{in.target.addr}
}

// size returns the encoded size of the instruction in bytes.
func (in *insn) size(addrs []uint32) uint32 {
	size := uint32(1)
	for _, arg := range in.operands(addrs) {
		size += varintSize(arg)
	}
	return size
}

// encode appends the encoded instruction to code.
func (in *insn) encode(code []byte, addrs []uint32) []byte {
	code = append(code, byte(in.op))
	for _, arg := range in.operands(addrs) {
		code = appendVarint(code, arg)
	}
	return code
}

// Instruction operands are encoded little-endian, 7 bits per byte,
// the top bit signalling a continuation.

func varintSize(x uint32) uint32 {
	size := uint32(1)
	for x >= 0x80 {
		size++
		x >>= 7
	}
	return size
}

func appendVarint(code []byte, x uint32) []byte {
	for x >= 0x80 {
		code = append(code, byte(x)|0x80)
		x >>= 7
	}
	return append(code, byte(x))
}
