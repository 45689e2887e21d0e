// Copyright 2023 The Dynamo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

// This file defines the persisted form of a Program.
//
// The container is a flat protobuf-wire-primitive encoding: varints
// for counts and indices, length-prefixed bytes for strings and the
// code stream, fixed64 for floats. It is versioned by a single varint
// after the magic number and makes no attempt at forward
// compatibility: a mismatched version is an error.

import (
	"fmt"
	"io"
	"math"

	"github.com/dynamo-lang/dynamo/syntax"
	"google.golang.org/protobuf/encoding/protowire"
)

const magic = "dyn\x00bc\x01\n"

// serialVersion is bumped whenever the encoding changes incompatibly.
const serialVersion = 1

// Constant type tags in the serialized pool.
const (
	serialInt = iota
	serialFloat
	serialString
	serialTrue
	serialFalse
	serialUndefined
	serialNull
	serialHole
)

// Write writes the program to w in its persisted form.
func (p *Program) Write(w io.Writer) error {
	buf := []byte(magic)
	buf = protowire.AppendVarint(buf, serialVersion)
	buf = protowire.AppendString(buf, p.Name)
	buf = protowire.AppendVarint(buf, uint64(p.ParameterCount))
	buf = protowire.AppendVarint(buf, uint64(p.FrameSize))

	buf = protowire.AppendVarint(buf, uint64(len(p.Constants)))
	for _, c := range p.Constants {
		switch c := c.(type) {
		case int64:
			buf = protowire.AppendVarint(buf, serialInt)
			buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(c))
		case float64:
			buf = protowire.AppendVarint(buf, serialFloat)
			buf = protowire.AppendFixed64(buf, math.Float64bits(c))
		case string:
			buf = protowire.AppendVarint(buf, serialString)
			buf = protowire.AppendString(buf, c)
		case bool:
			if c {
				buf = protowire.AppendVarint(buf, serialTrue)
			} else {
				buf = protowire.AppendVarint(buf, serialFalse)
			}
		case syntax.UndefinedValue:
			buf = protowire.AppendVarint(buf, serialUndefined)
		case syntax.NullValue:
			buf = protowire.AppendVarint(buf, serialNull)
		case syntax.HoleValue:
			buf = protowire.AppendVarint(buf, serialHole)
		default:
			return fmt.Errorf("unserializable constant %T in %s", c, p.Name)
		}
	}

	buf = protowire.AppendBytes(buf, p.Code)
	_, err := w.Write(buf)
	return err
}

// ReadProgram reads a program in its persisted form from r.
func ReadProgram(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("not a compiled dynamo program")
	}
	d := decoder{data: data[len(magic):]}

	if v := d.varint(); v != serialVersion {
		return nil, fmt.Errorf("unsupported program version %d", v)
	}
	p := &Program{
		Name:           d.string(),
		ParameterCount: int(d.varint()),
		FrameSize:      int(d.varint()),
	}
	n := d.varint()
	for i := uint64(0); i < n && d.err == nil; i++ {
		switch tag := d.varint(); tag {
		case serialInt:
			p.Constants = append(p.Constants, protowire.DecodeZigZag(d.varint()))
		case serialFloat:
			p.Constants = append(p.Constants, math.Float64frombits(d.fixed64()))
		case serialString:
			p.Constants = append(p.Constants, d.string())
		case serialTrue:
			p.Constants = append(p.Constants, true)
		case serialFalse:
			p.Constants = append(p.Constants, false)
		case serialUndefined:
			p.Constants = append(p.Constants, syntax.UndefinedValue{})
		case serialNull:
			p.Constants = append(p.Constants, syntax.NullValue{})
		case serialHole:
			p.Constants = append(p.Constants, syntax.HoleValue{})
		default:
			return nil, fmt.Errorf("bad constant tag %d", tag)
		}
	}
	p.Code = d.bytes()
	if d.err != nil {
		return nil, fmt.Errorf("corrupt program: %v", d.err)
	}
	return p, nil
}

// A decoder consumes protowire primitives, latching the first error.
type decoder struct {
	data []byte
	err  error
}

func (d *decoder) varint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.data)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0
	}
	d.data = d.data[n:]
	return v
}

func (d *decoder) fixed64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := protowire.ConsumeFixed64(d.data)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0
	}
	d.data = d.data[n:]
	return v
}

func (d *decoder) bytes() []byte {
	if d.err != nil {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.data)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return nil
	}
	d.data = d.data[n:]
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (d *decoder) string() string { return string(d.bytes()) }
