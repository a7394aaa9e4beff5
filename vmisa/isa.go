/*
	   nscc target VM instruction set

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

// Package vmisa is the flat table of the stack machine's numeric opcode
// values, the single type byte carried by CONST/RSADD and the unary
// operators, and the two-operand type matrix byte carried by binary
// operators. The numeric values are fixed by the pre-existing VM and
// must never change.
package vmisa

import "github.com/ncsforge/nscc/symtab"

// Op is one VM instruction opcode.
type Op byte

const (
	OpCPDOWNSP Op = iota + 1
	OpRSADD
	OpCPTOPSP
	OpCONST
	OpACTION
	OpLOGAND
	OpLOGOR
	OpINCOR // bitwise or
	OpEXCOR // bitwise xor
	OpBOOLAND
	OpEQUAL
	OpNEQUAL
	OpGEQ
	OpGT
	OpLT
	OpLEQ
	OpSHLEFT
	OpSHRIGHT
	OpUSHRIGHT
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpMOD
	OpNEG
	OpCOMP // bitwise complement
	OpMOVSP
	OpSTORE_STATEALL // deprecated by the VM, never emitted; value reserved
	OpJMP
	OpJSR
	OpJZ
	OpRETN
	OpDESTRUCT
	OpNOT
	OpDECISP
	OpINCISP
	OpJNZ
	OpCPDOWNBP
	OpCPTOPBP
	OpDECIBP
	OpINCIBP
	OpSAVEBP
	OpRESTOREBP
	OpSTORE_STATE
	OpNOP
)

// Single-operand type byte values, used by CONST, RSADD and the unary
// operators. The copy/destruct family carries a fixed 1, the in-place
// increment family a fixed 3, and STORE_STATE a fixed 16; those are
// written literally where the instruction is encoded.
const (
	TypeVoid    byte = 0
	TypeInteger byte = 3
	TypeFloat   byte = 4
	TypeString  byte = 5
	TypeObject  byte = 6
)

// Binary-op type-matrix bytes. TT is the struct/vector comparison shape
// and carries an additional big-endian int16 payload giving the
// comparison's byte size.
const (
	MatrixII byte = 0x20
	MatrixFF byte = 0x21
	MatrixOO byte = 0x22
	MatrixSS byte = 0x23
	MatrixTT byte = 0x24
	MatrixIF byte = 0x25
	MatrixFI byte = 0x26
	MatrixVV byte = 0x3A
	MatrixVF byte = 0x3B
	MatrixFV byte = 0x3C

	// EngineBase + k is the matrix byte for two equal Engine[k] operands.
	EngineBase byte = 0x20
)

// DeclType returns the type byte used by RSADD and CONST for a scalar.
// Vector and Struct reservations are expanded member-by-member by the
// emitter; an Engine reference is one opaque handle cell.
func DeclType(t symtab.Type) byte {
	switch t.Tag {
	case symtab.Void:
		return TypeVoid
	case symtab.Integer, symtab.Engine:
		return TypeInteger
	case symtab.Float:
		return TypeFloat
	case symtab.String:
		return TypeString
	case symtab.Object:
		return TypeObject
	default:
		return TypeVoid
	}
}

// BinaryMatrix resolves the (lhs, rhs) type pair to the operand byte a
// binary/comparison opcode carries. useTT selects the struct/vector
// comparison shape used only by EQUAL and NEQUAL; when the returned
// byte is MatrixTT the instruction carries an extra int16 size payload
// the caller supplies. ok is false for a combination the VM has no
// instruction for (an IR invariant violation upstream).
func BinaryMatrix(lhs, rhs symtab.Type, useTT bool) (b byte, ok bool) {
	switch {
	case lhs.Tag == symtab.Integer && rhs.Tag == symtab.Integer:
		return MatrixII, true
	case lhs.Tag == symtab.Integer && rhs.Tag == symtab.Float:
		return MatrixIF, true
	case lhs.Tag == symtab.Float && rhs.Tag == symtab.Integer:
		return MatrixFI, true
	case lhs.Tag == symtab.Float && rhs.Tag == symtab.Float:
		return MatrixFF, true
	case lhs.Tag == symtab.Float && rhs.Tag == symtab.Vector:
		return MatrixFV, true
	case lhs.Tag == symtab.Object && rhs.Tag == symtab.Object:
		return MatrixOO, true
	case lhs.Tag == symtab.String && rhs.Tag == symtab.String:
		return MatrixSS, true
	case lhs.Tag == symtab.Vector && rhs.Tag == symtab.Vector:
		if useTT {
			return MatrixTT, true
		}
		return MatrixVV, true
	case lhs.Tag == symtab.Vector && rhs.Tag == symtab.Float:
		return MatrixVF, true
	case lhs.Tag == symtab.Engine && rhs.Tag == symtab.Engine && lhs.Index == rhs.Index:
		return EngineBase + byte(lhs.Index), true
	case useTT && lhs.Tag == symtab.Struct && rhs.Tag == symtab.Struct && lhs.Index == rhs.Index:
		return MatrixTT, true
	default:
		return 0, false
	}
}
