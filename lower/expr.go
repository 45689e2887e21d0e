// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"fmt"
	"math"

	"github.com/dynamo-lang/dynamo/bytecode"
	"github.com/dynamo-lang/dynamo/syntax"
)

// expr lowers one expression, leaving its value in the accumulator.
// The accumulator is freely clobbered: a caller that needs the prior
// value afterwards must have copied it to a register first.
func (g *generator) expr(e syntax.Expr) {
	switch e := e.(type) {
	case *syntax.Literal:
		g.literal(e)
	case *syntax.Ident:
		g.variableLoad(e.Var, e)
	case *syntax.AssignExpr:
		g.assign(e)
	case *syntax.PropertyExpr:
		g.property(e)
	case *syntax.CallExpr:
		g.call(e)
	case *syntax.RuntimeCallExpr:
		g.runtimeCall(e)
	case *syntax.BinaryExpr:
		g.binary(e)
	case *syntax.CompareExpr:
		g.compare(e)

	case *syntax.UnaryExpr:
		unsupported(e, "unary %s operator", e.Op)
	case *syntax.CountExpr:
		unsupported(e, "%s operator", e.Op)
	case *syntax.CondExpr:
		unsupported(e, "conditional expression")
	case *syntax.FuncLit:
		if e.Class {
			unsupported(e, "class literal")
		}
		unsupported(e, "function literal")
	case *syntax.ObjectLit:
		unsupported(e, "object literal")
	case *syntax.ArrayLit:
		unsupported(e, "array literal")
	case *syntax.RegExpLit:
		unsupported(e, "regexp literal")
	case *syntax.YieldExpr:
		unsupported(e, "yield expression")
	case *syntax.SpreadExpr:
		unsupported(e, "spread expression")
	case *syntax.SuperRef:
		unsupported(e, "super reference")

	default:
		panic(fmt.Sprintf("lower: unexpected expression type %T", e))
	}
}

// literal classifies the literal's runtime kind and emits the single
// matching load. No literal lowering touches a register.
func (g *generator) literal(e *syntax.Literal) {
	b := g.builder
	switch v := e.Value.(type) {
	case int64:
		if math.MinInt32 <= v && v <= math.MaxInt32 {
			b.LoadSmallInt(int32(v))
		} else {
			b.LoadConstant(v)
		}
	case bool:
		if v {
			b.LoadTrue()
		} else {
			b.LoadFalse()
		}
	case syntax.UndefinedValue:
		b.LoadUndefined()
	case syntax.NullValue:
		b.LoadNull()
	case syntax.HoleValue:
		b.LoadTheHole()
	default:
		// strings, floats, anything boxed
		b.LoadConstant(v)
	}
}

// variableLoad loads the variable into the accumulator according to
// its resolved storage location.
func (g *generator) variableLoad(v *syntax.Variable, at syntax.Node) {
	b := g.builder
	switch v.Loc {
	case syntax.Local:
		b.LoadAccumulatorWithRegister(b.Local(v.Index))
	case syntax.Parameter:
		// Parameter indices are shifted by one: the receiver is
		// variable index -1 but parameter register 0.
		b.LoadAccumulatorWithRegister(b.Parameter(v.Index + 1))
	case syntax.Global:
		b.LoadGlobal(v.Index)
	default:
		unsupported(at, "load of %s variable %s", v.Loc, v.Name)
	}
}

// variableStore stores the accumulator into the variable's register.
func (g *generator) variableStore(v *syntax.Variable, at syntax.Node) {
	b := g.builder
	switch v.Loc {
	case syntax.Local:
		b.StoreAccumulatorInRegister(b.Local(v.Index))
	case syntax.Parameter:
		b.StoreAccumulatorInRegister(b.Parameter(v.Index + 1))
	default:
		unsupported(at, "store to %s variable %s", v.Loc, v.Name)
	}
}

// An assignTarget classifies the left-hand side of an assignment.
type assignTarget uint8

const (
	targetVariable assignTarget = iota
	targetNamedProperty
	targetKeyedProperty
	targetSuperProperty
	targetInvalid
)

func classifyAssignTarget(e syntax.Expr) assignTarget {
	switch e := e.(type) {
	case *syntax.Ident:
		return targetVariable
	case *syntax.PropertyExpr:
		if e.Super {
			return targetSuperProperty
		}
		if _, ok := propertyName(e); ok {
			return targetNamedProperty
		}
		return targetKeyedProperty
	}
	return targetInvalid
}

// propertyName returns the property's name if the access is named
// (dotted), i.e. its key is a string literal.
func propertyName(e *syntax.PropertyExpr) (string, bool) {
	if lit, ok := e.Key.(*syntax.Literal); ok && lit.IsPropertyName() {
		return lit.Value.(string), true
	}
	return "", false
}

// assign lowers Target = Value.
//
// For property targets the object (and, for keyed targets, the key)
// is evaluated and parked in temporary registers before the
// right-hand side runs, preserving left-to-right evaluation order.
func (g *generator) assign(e *syntax.AssignExpr) {
	if e.Op != syntax.EQ {
		unsupported(e, "compound assignment %s", e.Op)
	}

	b := g.builder
	temps := g.temporaries()
	defer temps.release()
	var object, key bytecode.Register

	property, _ := e.Target.(*syntax.PropertyExpr)
	target := classifyAssignTarget(e.Target)

	// Evaluate the left-hand side.
	switch target {
	case targetVariable:
		// Nothing to evaluate for a variable target.
	case targetNamedProperty:
		object = temps.newRegister()
		key = temps.newRegister()
		g.expr(property.Obj)
		b.StoreAccumulatorInRegister(object)
		name, _ := propertyName(property)
		b.LoadConstant(name)
		b.StoreAccumulatorInRegister(key)
	case targetKeyedProperty:
		object = temps.newRegister()
		key = temps.newRegister()
		g.expr(property.Obj)
		b.StoreAccumulatorInRegister(object)
		g.expr(property.Key)
		b.StoreAccumulatorInRegister(key)
	case targetSuperProperty:
		unsupported(e.Target, "assignment to super property")
	default:
		unsupported(e.Target, "assignment target")
	}

	// Evaluate the right-hand side.
	g.expr(e.Value)

	// Store the value.
	switch target {
	case targetVariable:
		g.variableStore(e.Target.(*syntax.Ident).Var, e.Target)
	case targetNamedProperty:
		b.StoreNamedProperty(object, key, g.feedbackIndex(e.Slot), g.fn.Mode)
	case targetKeyedProperty:
		b.StoreKeyedProperty(object, key, g.feedbackIndex(e.Slot), g.fn.Mode)
	}
}

// propertyLoad lowers a property read whose object value is already
// in the obj register. Call lowering shares this routine so the
// object expression of a method call is evaluated exactly once.
func (g *generator) propertyLoad(obj bytecode.Register, e *syntax.PropertyExpr) {
	b := g.builder
	if e.Super {
		unsupported(e, "super property load")
	}
	idx := g.feedbackIndex(e.Slot)
	if name, ok := propertyName(e); ok {
		b.LoadConstant(name)
		b.LoadNamedProperty(obj, idx, g.fn.Mode)
	} else {
		g.expr(e.Key)
		b.LoadKeyedProperty(obj, idx, g.fn.Mode)
	}
}

func (g *generator) property(e *syntax.PropertyExpr) {
	temps := g.temporaries()
	defer temps.release()
	obj := temps.newRegister()
	g.expr(e.Obj)
	g.builder.StoreAccumulatorInRegister(obj)
	g.propertyLoad(obj, e)
}

// call lowers a function call. The callee and receiver are prepared
// according to the callee's shape; arguments are then evaluated left
// to right into the registers immediately following the receiver.
// That contiguity is a precondition of the call instruction, enforced
// here rather than assumed.
func (g *generator) call(e *syntax.CallExpr) {
	b := g.builder
	temps := g.temporaries()
	defer temps.release()
	callee := temps.newRegister()
	receiver := temps.newRegister()

	switch kind := e.Kind(); kind {
	case syntax.PropertyCall:
		property := e.Fn.(*syntax.PropertyExpr)
		if property.Super {
			unsupported(property, "super method call")
		}
		g.expr(property.Obj)
		b.StoreAccumulatorInRegister(receiver)
		// Property load of the callee from the receiver.
		g.propertyLoad(receiver, property)
		b.StoreAccumulatorInRegister(callee)
	case syntax.GlobalCall:
		// The receiver of a global call is undefined.
		b.LoadUndefined()
		b.StoreAccumulatorInRegister(receiver)
		ident := e.Fn.(*syntax.Ident)
		g.variableLoad(ident.Var, ident)
		b.StoreAccumulatorInRegister(callee)
	default:
		unsupported(e, "%s", kind)
	}

	// Evaluate arguments into sequential registers. Each argument's
	// own temporaries are released before its register is taken, so
	// the run stays contiguous above the receiver.
	for i, arg := range e.Args {
		g.expr(arg)
		r := temps.newRegister()
		if r != receiver+1+bytecode.Register(i) {
			panic(fmt.Sprintf("lower: argument register %s not contiguous with receiver %s", r, receiver))
		}
		b.StoreAccumulatorInRegister(r)
	}

	b.Call(callee, receiver, len(e.Args))
}

// runtimeCall lowers an intrinsic call. The first-argument register
// is allocated even for zero arguments so the call instruction always
// has a well-defined base register.
func (g *generator) runtimeCall(e *syntax.RuntimeCallExpr) {
	b := g.builder
	temps := g.temporaries()
	defer temps.release()
	firstArg := temps.newRegister()

	for i, arg := range e.Args {
		r := firstArg
		if i > 0 {
			r = temps.newRegister()
		}
		g.expr(arg)
		if r != firstArg+bytecode.Register(i) {
			panic(fmt.Sprintf("lower: argument register %s not contiguous with first %s", r, firstArg))
		}
		b.StoreAccumulatorInRegister(r)
	}

	b.CallRuntime(e.FuncID, firstArg, len(e.Args))
}

// binary lowers an arithmetic or bitwise operation: left operand into
// a temporary, right operand into the accumulator, then the combining
// instruction. Comma and the short-circuit operators have sequencing
// semantics this core does not implement.
func (g *generator) binary(e *syntax.BinaryExpr) {
	switch e.Op {
	case syntax.COMMA:
		unsupported(e, "comma operator")
	case syntax.OR:
		unsupported(e, "logical || operator")
	case syntax.AND:
		unsupported(e, "logical && operator")
	}
	if !e.Op.IsArithmetic() {
		unsupported(e, "binary %s operator", e.Op)
	}

	b := g.builder
	temps := g.temporaries()
	defer temps.release()
	left := temps.newRegister()

	g.expr(e.X)
	b.StoreAccumulatorInRegister(left)
	g.expr(e.Y)
	b.BinaryOperation(e.Op, left)
}

// compare lowers a comparison with the same left-then-right
// sequencing as binary.
func (g *generator) compare(e *syntax.CompareExpr) {
	if !e.Op.IsCompare() {
		unsupported(e, "comparison %s operator", e.Op)
	}

	b := g.builder
	temps := g.temporaries()
	defer temps.release()
	left := temps.newRegister()

	g.expr(e.X)
	b.StoreAccumulatorInRegister(left)
	g.expr(e.Y)
	b.CompareOperation(e.Op, left, g.fn.Mode)
}
