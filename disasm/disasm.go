/*
	   nscc compiled-script disassembler

		Copyright (c) 2024, Richard Cornwell

		Permission is hereby granted, free of charge, to any person obtaining a
		copy of this software and associated documentation files (the "Software"),
		to deal in the Software without restriction, including without limitation
		the rights to use, copy, modify, merge, publish, distribute, sublicense,
		and/or sell copies of the Software, and to permit persons to whom the
		Software is furnished to do so, subject to the following conditions:

		The above copyright notice and this permission notice shall be included in
		all copies or substantial portions of the Software.

		THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
		IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
		FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
		RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
		IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
		CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package disasm decodes an emitted instruction stream back into
// (opcode, type, operands) tuples, and re-encodes them, so a compiled
// image can be inspected and the encoder's output verified by round
// trip.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ncsforge/nscc/vmisa"
)

// Operand shapes. A shape fixes how many payload bytes follow the
// two-byte (opcode, type) pair and how they are rendered.
const (
	shNone  = iota // no payload
	shCP           // int32 offset, int16 size
	shConst        // payload depends on the type byte
	shAct          // int16 action id, uint8 argc
	shBin          // none, unless type is the TT matrix: int16 size
	shMov          // int32 delta
	shJump         // int32 relative offset
	shDest         // int16 total, int16 element, int16 size
	shInc          // int32 offset
	shState        // int32 bp bytes, int32 sp bytes
)

type opcode struct {
	opName  string
	opShape int
}

var opMap = map[vmisa.Op]opcode{
	vmisa.OpCPDOWNSP:  {"CPDOWNSP", shCP},
	vmisa.OpRSADD:     {"RSADD", shNone},
	vmisa.OpCPTOPSP:   {"CPTOPSP", shCP},
	vmisa.OpCONST:     {"CONST", shConst},
	vmisa.OpACTION:    {"ACTION", shAct},
	vmisa.OpLOGAND:    {"LOGAND", shBin},
	vmisa.OpLOGOR:     {"LOGOR", shBin},
	vmisa.OpINCOR:     {"INCOR", shBin},
	vmisa.OpEXCOR:     {"EXCOR", shBin},
	vmisa.OpBOOLAND:   {"BOOLAND", shBin},
	vmisa.OpEQUAL:     {"EQUAL", shBin},
	vmisa.OpNEQUAL:    {"NEQUAL", shBin},
	vmisa.OpGEQ:       {"GEQ", shBin},
	vmisa.OpGT:        {"GT", shBin},
	vmisa.OpLT:        {"LT", shBin},
	vmisa.OpLEQ:       {"LEQ", shBin},
	vmisa.OpSHLEFT:    {"SHLEFT", shBin},
	vmisa.OpSHRIGHT:   {"SHRIGHT", shBin},
	vmisa.OpUSHRIGHT:  {"USHRIGHT", shBin},
	vmisa.OpADD:       {"ADD", shBin},
	vmisa.OpSUB:       {"SUB", shBin},
	vmisa.OpMUL:       {"MUL", shBin},
	vmisa.OpDIV:       {"DIV", shBin},
	vmisa.OpMOD:       {"MOD", shBin},
	vmisa.OpNEG:       {"NEG", shNone},
	vmisa.OpCOMP:      {"COMP", shNone},
	vmisa.OpMOVSP:     {"MOVSP", shMov},
	vmisa.OpJMP:       {"JMP", shJump},
	vmisa.OpJSR:       {"JSR", shJump},
	vmisa.OpJZ:        {"JZ", shJump},
	vmisa.OpRETN:      {"RETN", shNone},
	vmisa.OpDESTRUCT:  {"DESTRUCT", shDest},
	vmisa.OpNOT:       {"NOT", shNone},
	vmisa.OpDECISP:    {"DECISP", shInc},
	vmisa.OpINCISP:    {"INCISP", shInc},
	vmisa.OpJNZ:       {"JNZ", shJump},
	vmisa.OpCPDOWNBP:  {"CPDOWNBP", shCP},
	vmisa.OpCPTOPBP:   {"CPTOPBP", shCP},
	vmisa.OpDECIBP:    {"DECIBP", shInc},
	vmisa.OpINCIBP:    {"INCIBP", shInc},
	vmisa.OpSAVEBP:    {"SAVEBP", shNone},
	vmisa.OpRESTOREBP: {"RESTOREBP", shNone},
	vmisa.OpSTORE_STATE: {"STORE_STATE", shState},
	vmisa.OpNOP:       {"NOP", shNone},
}

// Instr is one decoded instruction. Operands holds the payload's fixed
// integer fields in encoding order; Str holds a CONST string's bytes.
type Instr struct {
	Offset   int // byte offset within the instruction stream
	Op       vmisa.Op
	Type     byte
	Operands []int32
	Str      string
	Size     int // encoded size in bytes
}

// Name returns the instruction's mnemonic.
func (i Instr) Name() string {
	if op, ok := opMap[i.Op]; ok {
		return op.opName
	}
	return fmt.Sprintf("DB %02x", byte(i.Op))
}

// String renders one instruction the way the inspector prints it.
func (i Instr) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%08x  %-10s", i.Offset, i.Name())
	fmt.Fprintf(&sb, " %02x", i.Type)
	for _, o := range i.Operands {
		fmt.Fprintf(&sb, " %d", o)
	}
	if i.Op == vmisa.OpCONST && i.Type == vmisa.TypeString {
		fmt.Fprintf(&sb, " %q", i.Str)
	}
	return sb.String()
}

// Disassemble decodes a whole instruction stream (the NCS body, header
// excluded). It fails on a truncated instruction or an unknown opcode,
// either of which means the stream was not produced by this encoder.
func Disassemble(body []byte) ([]Instr, error) {
	var out []Instr
	pos := 0
	for pos < len(body) {
		instr, err := decodeOne(body, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
		pos += instr.Size
	}
	return out, nil
}

func decodeOne(body []byte, pos int) (Instr, error) {
	if pos+2 > len(body) {
		return Instr{}, fmt.Errorf("truncated instruction at %#x", pos)
	}
	op := vmisa.Op(body[pos])
	ty := body[pos+1]
	desc, ok := opMap[op]
	if !ok {
		return Instr{}, fmt.Errorf("unknown opcode %#02x at %#x", byte(op), pos)
	}
	in := Instr{Offset: pos, Op: op, Type: ty, Size: 2}

	need := func(n int) error {
		if pos+in.Size+n > len(body) {
			return fmt.Errorf("truncated %s at %#x", desc.opName, pos)
		}
		return nil
	}
	i32 := func() int32 {
		v := int32(binary.BigEndian.Uint32(body[pos+in.Size:]))
		in.Size += 4
		return v
	}
	i16 := func() int32 {
		v := int32(int16(binary.BigEndian.Uint16(body[pos+in.Size:])))
		in.Size += 2
		return v
	}

	switch desc.opShape {
	case shNone:
	case shCP:
		if err := need(6); err != nil {
			return Instr{}, err
		}
		in.Operands = []int32{i32(), i16()}
	case shConst:
		switch ty {
		case vmisa.TypeInteger, vmisa.TypeObject:
			if err := need(4); err != nil {
				return Instr{}, err
			}
			in.Operands = []int32{i32()}
		case vmisa.TypeFloat:
			if err := need(4); err != nil {
				return Instr{}, err
			}
			in.Operands = []int32{i32()}
		case vmisa.TypeString:
			if err := need(2); err != nil {
				return Instr{}, err
			}
			n := i16()
			if err := need(int(n)); err != nil {
				return Instr{}, err
			}
			in.Operands = []int32{n}
			in.Str = string(body[pos+in.Size : pos+in.Size+int(n)])
			in.Size += int(n)
		default:
			return Instr{}, fmt.Errorf("CONST with type %#02x at %#x", ty, pos)
		}
	case shAct:
		if err := need(3); err != nil {
			return Instr{}, err
		}
		in.Operands = []int32{i16()}
		in.Operands = append(in.Operands, int32(body[pos+in.Size]))
		in.Size++
	case shBin:
		if ty == vmisa.MatrixTT {
			if err := need(2); err != nil {
				return Instr{}, err
			}
			in.Operands = []int32{i16()}
		}
	case shMov, shJump, shInc:
		if err := need(4); err != nil {
			return Instr{}, err
		}
		in.Operands = []int32{i32()}
	case shDest:
		if err := need(6); err != nil {
			return Instr{}, err
		}
		in.Operands = []int32{i16(), i16(), i16()}
	case shState:
		if err := need(8); err != nil {
			return Instr{}, err
		}
		in.Operands = []int32{i32(), i32()}
	}
	return in, nil
}

// Encode re-assembles a decoded instruction list by the same rules the
// emitter uses; Disassemble followed by Encode reproduces the input
// stream byte for byte.
func Encode(instrs []Instr) []byte {
	var out []byte
	put16 := func(v int32) {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(int16(v)))
		out = append(out, b[:]...)
	}
	put32 := func(v int32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		out = append(out, b[:]...)
	}
	for _, in := range instrs {
		out = append(out, byte(in.Op), in.Type)
		desc := opMap[in.Op]
		switch desc.opShape {
		case shCP:
			put32(in.Operands[0])
			put16(in.Operands[1])
		case shConst:
			if in.Type == vmisa.TypeString {
				put16(in.Operands[0])
				out = append(out, in.Str...)
			} else {
				put32(in.Operands[0])
			}
		case shAct:
			put16(in.Operands[0])
			out = append(out, byte(in.Operands[1]))
		case shBin:
			if in.Type == vmisa.MatrixTT {
				put16(in.Operands[0])
			}
		case shMov, shJump, shInc:
			put32(in.Operands[0])
		case shDest:
			put16(in.Operands[0])
			put16(in.Operands[1])
			put16(in.Operands[2])
		case shState:
			put32(in.Operands[0])
			put32(in.Operands[1])
		}
	}
	return out
}

// Print renders the whole stream, one instruction per line.
func Print(instrs []Instr) string {
	var sb strings.Builder
	for _, in := range instrs {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
